package matching

import "github.com/shopspring/decimal"

// PriceLevel 同一价格上的 FIFO 队列
// 不变式：队列里只有未成交完的订单，被吃完的 maker 立刻摘链
type PriceLevel struct {
	price decimal.Decimal
	head  *lvNode // 头部指针，最早的订单
	tail  *lvNode // 尾部指针
	size  int
}

// 双向链表节点
type lvNode struct {
	prev  *lvNode
	next  *lvNode
	order *Order
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{price: price}
}

// levelLess 只按价格比较，作为 btree 的排序规则
func levelLess(a, b *PriceLevel) bool {
	return a.price.Cmp(b.price) < 0
}

func (l *PriceLevel) Price() decimal.Decimal { return l.price }
func (l *PriceLevel) Len() int               { return l.size }
func (l *PriceLevel) Empty() bool            { return l.size == 0 }

// TotalVolume 所有订单剩余数量之和，O(n)
func (l *PriceLevel) TotalVolume() decimal.Decimal {
	total := decimal.Zero
	for n := l.head; n != nil; n = n.next {
		total = total.Add(n.order.qty)
	}
	return total
}

// Orders 按时间优先顺序返回订单快照
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.size)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.order)
	}
	return out
}

// add 同价位直接追加到队尾 => 天然满足 FIFO
func (l *PriceLevel) add(o *Order) {
	n := &lvNode{order: o, prev: l.tail}
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.size++
}

func (l *PriceLevel) remove(n *lvNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	// 断开节点指针，避免误用
	n.prev, n.next = nil, nil
	l.size--
}

// fill 从队头开始吃单，taker 吃完即停
// onFilled 在 maker 被吃完并摘链后回调
func (l *PriceLevel) fill(taker *Order, onFilled func(maker *Order)) []Trade {
	var trades []Trade
	for n := l.head; n != nil && !taker.IsFilled(); {
		next := n.next
		maker := n.order
		if exec := maker.FillAgainst(taker); exec.IsPositive() {
			trades = append(trades, Trade{
				MakerID: maker.id,
				TakerID: taker.id,
				Price:   l.price,
				Qty:     exec,
			})
		}
		if maker.IsFilled() {
			l.remove(n)
			if onFilled != nil {
				onFilled(maker)
			}
		}
		n = next
	}
	return trades
}
