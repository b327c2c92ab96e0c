package handler

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"market-core/internal/handler/request"
	"market-core/internal/handler/response"
	"market-core/internal/service/market"
	"market-core/pkg/errno"
)

type LotHandler struct {
	engine *market.Engine
}

func NewLotHandler(engine *market.Engine) *LotHandler {
	return &LotHandler{engine: engine}
}

// CreateLot 上架 (仅 allowed caller)
// @Summary 上架拍品
// @Description 资产转入托管，返回新拍品 id
// @Tags Lot
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "调用方地址"
// @Param request body request.CreateLotRequest true "Create Lot Request"
// @Success 200 {object} response.Response
// @Router /api/v1/lots [post]
func (h *LotHandler) CreateLot(c *gin.Context) {
	var req request.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	lotID, err := h.engine.CreateLot(c.Request.Context(), callerFrom(c), market.CreateLotParams{
		Token:      common.HexToAddress(req.Token),
		TokenID:    req.TokenID,
		Owner:      common.HexToAddress(req.Owner),
		Price:      amount(req.Price),
		IsMultiple: req.IsMultiple,
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"lot_id": lotID})
}

// BatchCreateLots 批量上架，任意一条失败则全部回滚
// @Summary 批量上架
// @Tags Lot
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "调用方地址"
// @Param request body request.BatchCreateLotsRequest true "Batch Create Request"
// @Success 200 {object} response.Response
// @Router /api/v1/batch/lots [post]
func (h *LotHandler) BatchCreateLots(c *gin.Context) {
	var req request.BatchCreateLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	prices := make([]decimal.Decimal, len(req.Prices))
	for i, p := range req.Prices {
		prices[i] = amount(p)
	}
	lotIDs, err := h.engine.BatchCreateLots(c.Request.Context(), callerFrom(c), market.BatchCreateLotsParams{
		Tokens:      addresses(req.Tokens),
		TokenIDs:    req.TokenIDs,
		Owners:      addresses(req.Owners),
		Prices:      prices,
		IsMultiples: req.IsMultiples,
		Amounts:     req.Amounts,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"lot_ids": lotIDs})
}

// BuyLot 购买，调用方即付款方
// @Summary 购买拍品
// @Tags Lot
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "付款方地址"
// @Param id path int true "Lot ID"
// @Param request body request.BuyLotRequest true "Buy Request"
// @Success 200 {object} response.Response
// @Router /api/v1/lots/{id}/buy [post]
func (h *LotHandler) BuyLot(c *gin.Context) {
	lotID, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.BuyLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	if err := h.engine.BuyLot(c.Request.Context(), callerFrom(c), lotID, req.Amount, amount(req.Payment)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// CancelLot 下架并退还托管资产
// @Summary 撤单
// @Description 仅 owner；to 为空时退还给拍品 owner
// @Tags Lot
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "调用方地址"
// @Param id path int true "Lot ID"
// @Param request body request.CancelLotRequest false "Cancel Request"
// @Success 200 {object} response.Response
// @Router /api/v1/lots/{id}/cancel [post]
func (h *LotHandler) CancelLot(c *gin.Context) {
	lotID, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req request.CancelLotRequest
	// body 可以为空 (ContentLength 为 0 或 chunked 均按实际内容解析)
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err))
		return
	}

	if err := h.engine.CancelLot(c.Request.Context(), callerFrom(c), lotID, optionalAddress(req.To)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// BatchCancelLots POST /api/v1/batch/lots/cancel
func (h *LotHandler) BatchCancelLots(c *gin.Context) {
	var req request.BatchCancelLotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	tos := make([]*common.Address, len(req.Tos))
	for i, to := range req.Tos {
		tos[i] = optionalAddress(to)
	}
	if err := h.engine.BatchCancelLots(c.Request.Context(), callerFrom(c), req.LotIDs, tos); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ActivateLot POST /api/v1/lots/:id/activate
func (h *LotHandler) ActivateLot(c *gin.Context) {
	h.single(c, h.engine.ActivateLot)
}

// DeactivateLot POST /api/v1/lots/:id/deactivate
func (h *LotHandler) DeactivateLot(c *gin.Context) {
	h.single(c, h.engine.DeactivateLot)
}

// BatchActivateLots POST /api/v1/batch/lots/activate
func (h *LotHandler) BatchActivateLots(c *gin.Context) {
	h.batch(c, h.engine.BatchActivateLots)
}

// BatchDeactivateLots POST /api/v1/batch/lots/deactivate
func (h *LotHandler) BatchDeactivateLots(c *gin.Context) {
	h.batch(c, h.engine.BatchDeactivateLots)
}

type lotOp = func(ctx context.Context, caller common.Address, lotID uint64) error
type batchLotOp = func(ctx context.Context, caller common.Address, lotIDs []uint64) error

func (h *LotHandler) single(c *gin.Context, op lotOp) {
	lotID, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := op(c.Request.Context(), callerFrom(c), lotID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *LotHandler) batch(c *gin.Context, op batchLotOp) {
	var req request.BatchLotIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if err := op(c.Request.Context(), callerFrom(c), req.LotIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetLot godoc
// @Summary 查询拍品
// @Description 不存在的拍品返回零值 (status = 0)
// @Tags Lot
// @Produce json
// @Param id path int true "Lot ID"
// @Success 200 {object} response.Response
// @Router /api/v1/lots/{id} [get]
func (h *LotHandler) GetLot(c *gin.Context) {
	lotID, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	lot, err := h.engine.Lot(c.Request.Context(), lotID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, lot)
}

// GetActiveLots 窗口分页，返回数组长度与 count 相同，不足部分为零值
// @Summary 在售拍品窗口
// @Tags Lot
// @Produce json
// @Param start query int false "起始 id (不含)"
// @Param count query int false "窗口大小，最大 1000"
// @Success 200 {object} response.Response
// @Router /api/v1/active_lots [get]
func (h *LotHandler) GetActiveLots(c *gin.Context) {
	var q request.ActiveLotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if q.Count > market.MaxActiveLotsWindow {
		response.Error(c, errno.ErrBind.WithMessage(fmt.Sprintf("count 不能超过 %d", market.MaxActiveLotsWindow)))
		return
	}
	lots, err := h.engine.GetActiveLots(c.Request.Context(), q.Start, q.Count)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"lots": lots})
}

func optionalAddress(s *string) *common.Address {
	if s == nil || *s == "" {
		return nil
	}
	addr := common.HexToAddress(*s)
	return &addr
}
