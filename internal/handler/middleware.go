package handler

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"market-core/internal/handler/response"
	"market-core/pkg/errno"
)

const (
	CallerHeader = "X-Caller-Address"
	callerKey    = "caller"
)

// RequireCaller 从请求头解析调用方地址
// 签名校验由上游网关完成，这里只负责格式检查
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(CallerHeader)
		if !common.IsHexAddress(raw) {
			response.Abort(c, errno.ErrBind.WithMessage(CallerHeader+" 缺失或格式不正确"))
			return
		}
		c.Set(callerKey, common.HexToAddress(raw))
		c.Next()
	}
}

func callerFrom(c *gin.Context) common.Address {
	if v, ok := c.Get(callerKey); ok {
		if addr, ok := v.(common.Address); ok {
			return addr
		}
	}
	return common.Address{}
}
