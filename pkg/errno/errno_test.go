package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"nil", nil, OK.Code, OK.Message},
		{"errno", ErrInvalidAmount, ErrInvalidAmount.Code, "InvalidAmount"},
		{"wrapped errno", fmt.Errorf("create lot: %w", ErrLotAlreadyExists), ErrLotAlreadyExists.Code, "LotAlreadyExists"},
		{"lot status", InvalidLotStatus(3), ErrInvalidLotStatus.Code, "InvalidLotStatus(3)"},
		{"collaborator", errors.New("ERC721: transfer from incorrect owner"), ErrCollaborator.Code, "ERC721: transfer from incorrect owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Decode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestIsAndWithMessage(t *testing.T) {
	err := ErrBind.WithMessage("Price 不能为空")
	assert.True(t, errors.Is(err, ErrBind))
	assert.False(t, errors.Is(err, ErrInvalidValue))

	statusErr := fmt.Errorf("batch: %w", InvalidLotStatus(0))
	assert.True(t, errors.Is(statusErr, ErrInvalidLotStatus))

	var ls *LotStatusError
	if assert.True(t, errors.As(statusErr, &ls)) {
		assert.Equal(t, uint8(0), ls.Status)
	}
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, ClassNone, ClassOf(nil))
	assert.Equal(t, ClassValidation, ClassOf(ErrWrongArrayLength))
	assert.Equal(t, ClassAuthorization, ClassOf(ErrInvalidSignature))
	assert.Equal(t, ClassState, ClassOf(ErrVoucherAlreadyUsed))
	assert.Equal(t, ClassState, ClassOf(InvalidLotStatus(2)))
	assert.Equal(t, ClassCollaborator, ClassOf(errors.New("Must be registered extension")))
}
