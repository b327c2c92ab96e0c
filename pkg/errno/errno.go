package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Is 按错误码比较，WithMessage 派生出的错误仍然匹配原始错误
func (e Errno) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return e.Code == t.Code
	case *Errno:
		return t != nil && e.Code == t.Code
	}
	return false
}

// WithMessage 返回同一错误码、附带具体信息的副本
func (e Errno) WithMessage(msg string) Errno {
	return Errno{Code: e.Code, Message: e.Message + ": " + msg}
}

// Class 错误分类 (由错误码区间决定)
type Class string

const (
	ClassNone          Class = ""
	ClassInternal      Class = "internal"
	ClassValidation    Class = "validation"
	ClassAuthorization Class = "authorization"
	ClassState         Class = "state"
	ClassCollaborator  Class = "collaborator"
)

// ClassOf 返回错误所属的分类
// 非 Errno 错误一律视为外部协作方 (custody/minting/settlement) 的原样错误
func ClassOf(err error) Class {
	if err == nil {
		return ClassNone
	}
	var e Errno
	if !errors.As(err, &e) {
		var ls *LotStatusError
		if errors.As(err, &ls) {
			return ClassState
		}
		return ClassCollaborator
	}
	switch {
	case e.Code >= 20000 && e.Code < 30000:
		return ClassValidation
	case e.Code >= 30000 && e.Code < 40000:
		return ClassAuthorization
	case e.Code >= 40000 && e.Code < 50000:
		return ClassState
	default:
		return ClassInternal
	}
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var ls *LotStatusError
	if errors.As(err, &ls) {
		return ErrInvalidLotStatus.Code, ls.Error()
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, typed.Message
	}
	var typedPtr *Errno
	if errors.As(err, &typedPtr) && typedPtr != nil {
		return typedPtr.Code, typedPtr.Message
	}
	return ErrCollaborator.Code, err.Error()
}

// LotStatusError 拍品状态不满足要求，携带当前状态便于排查
type LotStatusError struct {
	Status uint8
}

func (e *LotStatusError) Error() string {
	return fmt.Sprintf("InvalidLotStatus(%d)", e.Status)
}

func (e *LotStatusError) Is(target error) bool {
	return target == ErrInvalidLotStatus
}

// InvalidLotStatus 构造带状态的错误
func InvalidLotStatus(status uint8) error {
	return &LotStatusError{Status: status}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrCollaborator     = Errno{Code: 10005, Message: "Collaborator error"}
)

// Validation Errors (20000+)
var (
	ErrZeroAddress        = Errno{Code: 20001, Message: "ZeroAddress"}
	ErrInvalidAmount      = Errno{Code: 20002, Message: "InvalidAmount"}
	ErrInvalidValue       = Errno{Code: 20003, Message: "InvalidValue"}
	ErrWrongArrayLength   = Errno{Code: 20004, Message: "WrongArrayLength"}
	ErrInvalidVoucherFees = Errno{Code: 20005, Message: "InvalidVoucherFees"}
	ErrInvalidToken       = Errno{Code: 20006, Message: "InvalidToken"}
	ErrInvalidFees        = Errno{Code: 20007, Message: "InvalidFees"}
)

// Authorization Errors (30000+)
var (
	ErrOnlyAllowedCaller = Errno{Code: 30001, Message: "OnlyAllowedCaller"}
	ErrOnlyOwner         = Errno{Code: 30002, Message: "OnlyOwner"}
	ErrInvalidSignature  = Errno{Code: 30003, Message: "InvalidSignature"}
	ErrPaused            = Errno{Code: 30004, Message: "Paused"}
)

// State Conflict Errors (40000+)
var (
	ErrInvalidLotStatus   = Errno{Code: 40001, Message: "InvalidLotStatus"}
	ErrLotAlreadyExists   = Errno{Code: 40002, Message: "LotAlreadyExists"}
	ErrVoucherAlreadyUsed = Errno{Code: 40003, Message: "VoucherAlreadyUsed"}
	ErrAlreadySet         = Errno{Code: 40004, Message: "AlreadySet"}
	ErrAssetAlreadyMinted = Errno{Code: 40005, Message: "AssetAlreadyMinted"}
)
