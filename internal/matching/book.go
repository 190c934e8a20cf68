package matching

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
	"lobook.com/pkg/xerr"
)

// 撮合方式，给 Observer 区分指标
type MatchKind string

const (
	KindMarket MatchKind = "market"
	KindLimit  MatchKind = "limit"
)

// Observer 订单簿状态变化的回调，metrics 实现它
type Observer interface {
	OrderRested(side Side, qty decimal.Decimal)
	Matched(kind MatchKind, trades []Trade)
	LevelCount(side Side, levels int)
}

type noopObserver struct{}

func (noopObserver) OrderRested(Side, decimal.Decimal) {}
func (noopObserver) Matched(MatchKind, []Trade)        {}
func (noopObserver) LevelCount(Side, int)              {}

type Option func(*OrderBook)

func WithLogger(l *zap.Logger) Option {
	return func(b *OrderBook) {
		if l != nil {
			b.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(b *OrderBook) {
		if o != nil {
			b.obs = o
		}
	}
}

// OrderBook 单一标的的限价订单簿
// 每一边是按价格升序的 btree：asks 正序遍历，bids 倒序遍历，都是最优价在前。
// 不变式：簿里的每个价位至少挂着一笔未成交订单，空价位立即删除。
// 前提是挂单只经由 book 成交（见 Order.FillAgainst）。
// 非并发安全，多协程访问走 engine.BookActor。
type OrderBook struct {
	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]
	ids  map[string]struct{} // 挂单 id 索引，防止同一笔订单重复入簿
	log  *zap.Logger
	obs  Observer
}

func NewOrderBook(opts ...Option) *OrderBook {
	b := &OrderBook{
		// 单写者，不需要 btree 自带的锁
		bids: btree.NewBTreeGOptions(levelLess, btree.Options{NoLocks: true}),
		asks: btree.NewBTreeGOptions(levelLess, btree.Options{NoLocks: true}),
		ids:  make(map[string]struct{}, 1024),
		log:  zap.NewNop(),
		obs:  noopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *OrderBook) tree(side Side) *btree.BTreeG[*PriceLevel] {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

// AddLimitOrder 挂单，不做撮合
func (b *OrderBook) AddLimitOrder(price decimal.Decimal, order *Order) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if err := b.validateOrder(order); err != nil {
		return err
	}
	b.rest(price, order)
	return nil
}

// FillMarketOrder 按价格优先、同价 FIFO 吃对手盘，直到吃完或对手盘为空
// 没成交完的部分不会挂单，调用方看 order.Remaining() 自行处理
func (b *OrderBook) FillMarketOrder(order *Order) ([]Trade, error) {
	if err := b.validateOrder(order); err != nil {
		return nil, err
	}

	opp := order.side.Opposite()
	var trades []Trade
	for !order.IsFilled() {
		lv, ok := b.best(opp)
		if !ok {
			break
		}
		trades = append(trades, b.fillLevel(opp, lv, order)...)
	}

	b.obs.Matched(KindMarket, trades)
	if !order.IsFilled() {
		b.log.Debug("market order not fully filled",
			zap.String("order_id", order.id),
			zap.Stringer("side", order.side),
			zap.Stringer("remaining", order.qty))
	}
	return trades, nil
}

// FillLimitOrder 只和对手盘同一价格的价位撮合（不跨价位），剩余部分在本方 price 挂单
func (b *OrderBook) FillLimitOrder(order *Order, price decimal.Decimal) ([]Trade, error) {
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := b.validateOrder(order); err != nil {
		return nil, err
	}

	opp := order.side.Opposite()
	var trades []Trade
	if lv, ok := b.tree(opp).Get(&PriceLevel{price: price}); ok {
		trades = b.fillLevel(opp, lv, order)
	}
	b.obs.Matched(KindLimit, trades)

	if !order.IsFilled() {
		b.rest(price, order)
	}
	return trades, nil
}

// SortedBids 买盘价位，价格从高到低
func (b *OrderBook) SortedBids() []*PriceLevel {
	out := make([]*PriceLevel, 0, b.bids.Len())
	b.bids.Reverse(func(lv *PriceLevel) bool {
		out = append(out, lv)
		return true
	})
	return out
}

// SortedAsks 卖盘价位，价格从低到高
func (b *OrderBook) SortedAsks() []*PriceLevel {
	out := make([]*PriceLevel, 0, b.asks.Len())
	b.asks.Scan(func(lv *PriceLevel) bool {
		out = append(out, lv)
		return true
	})
	return out
}

// BestBid 当前最优买价（最高价）
func (b *OrderBook) BestBid() (decimal.Decimal, bool) {
	lv, ok := b.best(Bid)
	if !ok {
		return decimal.Zero, false
	}
	return lv.price, true
}

// BestAsk 当前最优卖价（最低价）
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) {
	lv, ok := b.best(Ask)
	if !ok {
		return decimal.Zero, false
	}
	return lv.price, true
}

// Spread 最优卖价 - 最优买价，任一边为空时 ok=false
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// Level 按精确价格查价位，不存在不是错误
func (b *OrderBook) Level(side Side, price decimal.Decimal) (*PriceLevel, bool) {
	if !side.Valid() {
		return nil, false
	}
	return b.tree(side).Get(&PriceLevel{price: price})
}

// Len 两边的价位数
func (b *OrderBook) Len() (bids, asks int) {
	return b.bids.Len(), b.asks.Len()
}

func (b *OrderBook) best(side Side) (*PriceLevel, bool) {
	if side == Bid {
		return b.bids.Max()
	}
	return b.asks.Min()
}

// rest 找到或创建价位，追加到队尾
func (b *OrderBook) rest(price decimal.Decimal, order *Order) {
	tr := b.tree(order.side)
	lv, ok := tr.Get(&PriceLevel{price: price})
	if !ok {
		lv = newPriceLevel(price)
		tr.Set(lv)
		b.log.Debug("price level created",
			zap.Stringer("side", order.side),
			zap.Stringer("price", price))
		b.obs.LevelCount(order.side, tr.Len())
	}
	lv.add(order)
	b.ids[order.id] = struct{}{}
	b.obs.OrderRested(order.side, order.qty)
}

// fillLevel 在一个价位上撮合，被吃完的 maker 出索引，价位空了就删掉
func (b *OrderBook) fillLevel(side Side, lv *PriceLevel, taker *Order) []Trade {
	trades := lv.fill(taker, func(maker *Order) {
		delete(b.ids, maker.id)
	})
	if lv.Empty() {
		tr := b.tree(side)
		tr.Delete(lv)
		b.log.Debug("price level removed",
			zap.Stringer("side", side),
			zap.Stringer("price", lv.price))
		b.obs.LevelCount(side, tr.Len())
	}
	return trades
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return xerr.Wrapf(xerr.InvalidPrice, "price=%s", price)
	}
	return nil
}

func (b *OrderBook) validateOrder(order *Order) error {
	if order == nil {
		return xerr.Wrapf(xerr.InvalidQuantity, "nil order")
	}
	if !order.side.Valid() {
		return xerr.Wrapf(xerr.InvalidSide, "order=%s side=%d", order.id, order.side)
	}
	if !order.qty.IsPositive() {
		return xerr.Wrapf(xerr.InvalidQuantity, "order=%s qty=%s", order.id, order.qty)
	}
	if _, dup := b.ids[order.id]; dup {
		return xerr.Wrapf(xerr.DuplicateOrder, "order=%s", order.id)
	}
	return nil
}
