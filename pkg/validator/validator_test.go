package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Token string `validate:"required,eth_addr"`
	Price string `validate:"required,uint_str"`
	Count uint64 `validate:"max=1000"`
}

func TestCustomValidation(t *testing.T) {
	v := validator.New()
	register(v)

	ok := sample{Token: "0x5FbDB2315678afecb367f032d93F642f64180aa3", Price: "1000000000000000000", Count: 10}
	require.NoError(t, v.Struct(ok))

	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"bad address", sample{Token: "0x1234", Price: "1"}, "Token 不是合法的地址"},
		{"decimal price", sample{Token: ok.Token, Price: "1.5"}, "Price 必须是非负整数"},
		{"negative price", sample{Token: ok.Token, Price: "-1"}, "Price 必须是非负整数"},
		{"missing price", sample{Token: ok.Token}, "Price 不能为空"},
		{"count too large", sample{Token: ok.Token, Price: "1", Count: 1001}, "Count 不能超过 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, GetErrorMsg(err))
		})
	}
}

func TestGetErrorMsg_NonValidationError(t *testing.T) {
	assert.Equal(t, "请求参数错误", GetErrorMsg(assert.AnError))
}
