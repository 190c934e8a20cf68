package matching

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/segmentio/encoding/json"
)

// 调试输出用，不保证格式稳定

type OrderView struct {
	ID  string `json:"id"`
	Qty string `json:"qty"`
}

type LevelView struct {
	Price  string      `json:"price"`
	Volume string      `json:"volume"`
	Orders []OrderView `json:"orders"`
}

type Snapshot struct {
	Bids []LevelView `json:"bids"` // 价格从高到低
	Asks []LevelView `json:"asks"` // 价格从低到高
}

func (s Snapshot) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (b *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		Bids: viewLevels(b.SortedBids()),
		Asks: viewLevels(b.SortedAsks()),
	}
}

func viewLevels(levels []*PriceLevel) []LevelView {
	out := make([]LevelView, 0, len(levels))
	for _, lv := range levels {
		v := LevelView{
			Price:  lv.price.String(),
			Volume: lv.TotalVolume().String(),
			Orders: make([]OrderView, 0, lv.size),
		}
		for n := lv.head; n != nil; n = n.next {
			v.Orders = append(v.Orders, OrderView{ID: n.order.id, Qty: n.order.qty.String()})
		}
		out = append(out, v)
	}
	return out
}

// String 卖盘在上（高价到低价），买盘在下（高价到低价），中间是价差
func (b *OrderBook) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SIDE\tPRICE\tVOLUME\tORDERS")
	asks := b.SortedAsks()
	for i := len(asks) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "ask\t%s\t%s\t%d\n", asks[i].price, asks[i].TotalVolume(), asks[i].size)
	}
	if spread, ok := b.Spread(); ok {
		fmt.Fprintf(w, "--\tspread %s\t\t\n", spread)
	} else {
		fmt.Fprintln(w, "--\t\t\t")
	}
	for _, lv := range b.SortedBids() {
		fmt.Fprintf(w, "bid\t%s\t%s\t%d\n", lv.price, lv.TotalVolume(), lv.size)
	}
	_ = w.Flush()
	return sb.String()
}

func (l *PriceLevel) String() string {
	return fmt.Sprintf("PriceLevel{price:%s volume:%s orders:%d}", l.price, l.TotalVolume(), l.size)
}
