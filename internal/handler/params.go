package handler

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"market-core/pkg/errno"
	"market-core/pkg/validator"
)

// bindError 把校验错误转成统一的 ErrBind
func bindError(err error) error {
	return errno.ErrBind.WithMessage(validator.GetErrorMsg(err))
}

func uintParam(c *gin.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, errno.ErrBind.WithMessage(name + " 必须是非负整数")
	}
	return v, nil
}

func addressParam(c *gin.Context, name string) (common.Address, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errno.ErrBind.WithMessage(name + " 不是合法的地址")
	}
	return common.HexToAddress(raw), nil
}

// amount 已经过 uint_str 校验
func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addresses(raw []string) []common.Address {
	out := make([]common.Address, len(raw))
	for i, s := range raw {
		out[i] = common.HexToAddress(s)
	}
	return out
}
