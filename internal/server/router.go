package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-core/internal/handler"
	"market-core/internal/service/market"
	"market-core/pkg/monitor"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
// monitor.Init 需要在此之前由 main 调用
func NewHTTPRouter(engine *market.Engine) *gin.Engine {
	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	lots := handler.NewLotHandler(engine)
	vouchers := handler.NewVoucherHandler(engine)
	markets := handler.NewMarketHandler(engine)
	admin := handler.NewAdminHandler(engine)

	// 4. 只读接口
	api := r.Group("/api/v1")
	{
		api.GET("/market", markets.State)
		api.GET("/roles/:address", markets.Roles)
		api.GET("/tokens/:address/supported", markets.IsSupportedToken)
		api.GET("/lots/:id", lots.GetLot)
		api.GET("/active_lots", lots.GetActiveLots)
		api.GET("/vouchers/:id/used", vouchers.IsVoucherUsed)
	}

	// 5. 写接口，需要调用方地址
	write := api.Group("", handler.RequireCaller())
	{
		write.POST("/lots", lots.CreateLot)
		write.POST("/lots/:id/buy", lots.BuyLot)
		write.POST("/lots/:id/cancel", lots.CancelLot)
		write.POST("/lots/:id/activate", lots.ActivateLot)
		write.POST("/lots/:id/deactivate", lots.DeactivateLot)

		write.POST("/batch/lots", lots.BatchCreateLots)
		write.POST("/batch/lots/cancel", lots.BatchCancelLots)
		write.POST("/batch/lots/activate", lots.BatchActivateLots)
		write.POST("/batch/lots/deactivate", lots.BatchDeactivateLots)

		write.POST("/vouchers/redeem", vouchers.BuyWithMint)

		a := write.Group("/admin")
		a.PUT("/recipient", admin.UpdateRecipient())
		a.PUT("/platform_fee", admin.UpdatePlatformFee)
		a.POST("/allowed_callers", admin.AddAllowedCaller())
		a.DELETE("/allowed_callers/:address", admin.RemoveAllowedCaller())
		a.POST("/minters", admin.AddMinter())
		a.DELETE("/minters/:address", admin.RemoveMinter())
		a.POST("/ownership", admin.TransferOwnership())
		a.POST("/pause", admin.Pause)
		a.POST("/unpause", admin.Unpause)
		a.POST("/rescue", admin.Rescue)
	}

	return r
}
