package matching

import (
	"strings"

	"github.com/shopspring/decimal"
	"lobook.com/pkg/xerr"
)

// 买卖方向
type Side uint8

const (
	Bid Side = iota + 1 // 买
	Ask                 // 卖
)

func (s Side) Valid() bool { return s == Bid || s == Ask }

// Opposite 对手盘
func (s Side) Opposite() Side {
	switch s {
	case Bid:
		return Ask
	case Ask:
		return Bid
	default:
		return s
	}
}

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

// ParseSide 接受 bid/buy 与 ask/sell，大小写不敏感
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "buy":
		return Bid, nil
	case "ask", "sell":
		return Ask, nil
	default:
		return 0, xerr.Wrapf(xerr.InvalidSide, "%q", s)
	}
}

// 成交，只作为调用结果返回，不对外发布
type Trade struct {
	MakerID string
	TakerID string
	Price   decimal.Decimal
	Qty     decimal.Decimal
}

var (
	ErrInvalidQuantity = xerr.NewErrCode(xerr.InvalidQuantity)
	ErrInvalidPrice    = xerr.NewErrCode(xerr.InvalidPrice)
	ErrInvalidSide     = xerr.NewErrCode(xerr.InvalidSide)
	ErrDuplicateOrder  = xerr.NewErrCode(xerr.DuplicateOrder)
)
