package xerr

import (
	"errors"
	"fmt"
)

// 错误码定义
const (
	OK = 0

	// 订单簿参数错误 1xxx
	InvalidQuantity = 1001
	InvalidPrice    = 1002
	InvalidSide     = 1003
	DuplicateOrder  = 1004

	// 撮合 actor 状态 2xxx
	EngineBusy    = 2001
	EngineStopped = 2002
	RateLimited   = 2003
	BadCommand    = 2004
)

type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

// Is 按错误码比较，Wrapf 之后 errors.Is(err, sentinel) 依旧成立
func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func NewErrCode(code int) *CodeError {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

// Wrapf 保留错误码，追加上下文
func Wrapf(code int, format string, args ...any) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code) + ": " + fmt.Sprintf(format, args...)}
}

// CodeOf 取出错误码，非 CodeError 返回 -1
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return -1
}

func MapErrMsg(code int) string {
	switch code {
	case InvalidQuantity:
		return "invalid quantity"
	case InvalidPrice:
		return "invalid price"
	case InvalidSide:
		return "invalid side"
	case DuplicateOrder:
		return "duplicate order"
	case EngineBusy:
		return "engine busy: mailbox full"
	case EngineStopped:
		return "engine stopped"
	case RateLimited:
		return "rate limited"
	case BadCommand:
		return "bad command"
	default:
		return "unknown error"
	}
}
