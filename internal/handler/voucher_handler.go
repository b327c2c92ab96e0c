package handler

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"market-core/internal/handler/request"
	"market-core/internal/handler/response"
	"market-core/internal/model"
	"market-core/internal/service/market"
	"market-core/pkg/errno"
)

type VoucherHandler struct {
	engine *market.Engine
}

func NewVoucherHandler(engine *market.Engine) *VoucherHandler {
	return &VoucherHandler{engine: engine}
}

// BuyWithMint 兑换 voucher，调用方为付款方
// @Summary 兑换 voucher
// @Description 校验 minter 签名后铸造或从托管池转出，并按 voucher 分账
// @Tags Voucher
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "付款方地址"
// @Param request body request.BuyWithMintRequest true "Redeem Request"
// @Success 200 {object} response.Response
// @Router /api/v1/vouchers/redeem [post]
func (h *VoucherHandler) BuyWithMint(c *gin.Context) {
	var req request.BuyWithMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	v, err := toVoucher(req.Voucher)
	if err != nil {
		response.Error(c, err)
		return
	}

	tokenID, err := h.engine.BuyWithMint(c.Request.Context(), callerFrom(c), common.HexToAddress(req.To), v, amount(req.Payment))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"token_id": tokenID})
}

// IsVoucherUsed GET /api/v1/vouchers/:id/used
func (h *VoucherHandler) IsVoucherUsed(c *gin.Context) {
	voucherID, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	used, err := h.engine.IsVoucherUsed(c.Request.Context(), voucherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"voucher_id": voucherID, "used": used})
}

func toVoucher(p request.VoucherPayload) (*model.Voucher, error) {
	sig, err := hexutil.Decode(p.Signature)
	if err != nil {
		return nil, errno.ErrBind.WithMessage("signature 不是合法的十六进制")
	}

	v := &model.Voucher{
		VoucherID:  p.VoucherID,
		Token:      common.HexToAddress(p.Token),
		TokenID:    p.TokenID,
		Price:      amount(p.Price),
		IsMultiple: p.IsMultiple,
		Amount:     p.Amount,
		URI:        p.URI,
		Signature:  sig,
	}
	if p.Fees != nil {
		fees := &model.FeeSchedule{
			PlatformBps:  p.Fees.PlatformBps,
			RecipientBps: p.Fees.RecipientBps,
		}
		if p.Fees.Recipient != "" {
			fees.Recipient = common.HexToAddress(p.Fees.Recipient)
		}
		for _, b := range p.Fees.Beneficiaries {
			fees.Beneficiaries = append(fees.Beneficiaries, model.Beneficiary{
				Account: common.HexToAddress(b.Account),
				Bps:     b.Bps,
			})
		}
		v.Fees = fees
	}
	return v, nil
}
