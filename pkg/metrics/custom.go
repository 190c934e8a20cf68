package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"lobook.com/internal/matching"
)

const namespace = "lobook"

// BookMetrics 实现 matching.Observer
type BookMetrics struct {
	OrdersRested  *prometheus.CounterVec
	RestedVolume  *prometheus.CounterVec
	Trades        *prometheus.CounterVec
	MatchedVolume *prometheus.CounterVec
	Levels        *prometheus.GaugeVec
}

var _ matching.Observer = (*BookMetrics)(nil)

// NewBookMetrics 注册到 reg；reg 为 nil 时用默认 registry
func NewBookMetrics(reg prometheus.Registerer) *BookMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &BookMetrics{
		OrdersRested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rested_total",
			Help:      "Orders (or remainders) added as resting liquidity.",
		}, []string{"side"}),
		RestedVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rested_volume_total",
			Help:      "Quantity added as resting liquidity.",
		}, []string{"side"}),
		Trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Maker/taker fills by matching kind.",
		}, []string{"kind"}),
		MatchedVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matched_volume_total",
			Help:      "Matched quantity by matching kind.",
		}, []string{"kind"}),
		Levels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "levels",
			Help:      "Price levels currently in the book.",
		}, []string{"side"}),
	}
	reg.MustRegister(m.OrdersRested, m.RestedVolume, m.Trades, m.MatchedVolume, m.Levels)
	return m
}

func (m *BookMetrics) OrderRested(side matching.Side, qty decimal.Decimal) {
	m.OrdersRested.WithLabelValues(side.String()).Inc()
	m.RestedVolume.WithLabelValues(side.String()).Add(qty.InexactFloat64())
}

func (m *BookMetrics) Matched(kind matching.MatchKind, trades []matching.Trade) {
	if len(trades) == 0 {
		return
	}
	vol := decimal.Zero
	for _, tr := range trades {
		vol = vol.Add(tr.Qty)
	}
	m.Trades.WithLabelValues(string(kind)).Add(float64(len(trades)))
	m.MatchedVolume.WithLabelValues(string(kind)).Add(vol.InexactFloat64())
}

func (m *BookMetrics) LevelCount(side matching.Side, levels int) {
	m.Levels.WithLabelValues(side.String()).Set(float64(levels))
}

// ActorStats engine.BookActor 的计数器
type ActorStats interface {
	MailboxFull() uint64
	RateRejected() uint64
}

// RegisterActor 把 actor 的拒绝计数暴露成 counter
func RegisterActor(reg prometheus.Registerer, a ActorStats) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_mailbox_full_total",
			Help:      "Commands rejected because the mailbox was full.",
		}, func() float64 { return float64(a.MailboxFull()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actor_rate_limited_total",
			Help:      "Commands rejected by the admission limiter.",
		}, func() float64 { return float64(a.RateRejected()) }),
	)
}
