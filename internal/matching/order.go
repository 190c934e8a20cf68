package matching

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"lobook.com/pkg/xerr"
)

// Order 一笔委托。剩余数量是唯一可变状态：
// 未成交 / 部分成交 / 全部成交都由 qty 推出来，不单独存状态字段。
type Order struct {
	id   string
	qty  decimal.Decimal // 剩余数量
	side Side
}

// NewOrder 数量必须为正
func NewOrder(qty decimal.Decimal, side Side) (*Order, error) {
	if !side.Valid() {
		return nil, xerr.Wrapf(xerr.InvalidSide, "side=%d", side)
	}
	if !qty.IsPositive() {
		return nil, xerr.Wrapf(xerr.InvalidQuantity, "qty=%s", qty)
	}
	return &Order{id: uuid.NewString(), qty: qty, side: side}, nil
}

func (o *Order) ID() string                 { return o.id }
func (o *Order) Side() Side                 { return o.side }
func (o *Order) Remaining() decimal.Decimal { return o.qty }

func (o *Order) IsFilled() bool { return o.qty.IsZero() }

// FillAgainst 两边同时减去 min(o, other)，返回成交量
// 数量相等时两边一起变成 0
// 已经挂进 OrderBook 的订单只能由 book 撮合；在外面对它调用会让价位里留下已成交订单，
// 直到下一次撮合走到它才被摘掉
func (o *Order) FillAgainst(other *Order) decimal.Decimal {
	if other == nil || other == o {
		return decimal.Zero
	}
	exec := decimal.Min(o.qty, other.qty)
	o.qty = o.qty.Sub(exec)
	other.qty = other.qty.Sub(exec)
	return exec
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id:%s side:%s qty:%s}", o.id, o.side, o.qty)
}
