package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"lobook.com/internal/matching"
	"lobook.com/pkg/logger"
	"lobook.com/pkg/safe"
)

var tracer = otel.Tracer("lobook.com/internal/engine")

type ActorConfig struct {
	MailboxSize int     // mailbox 容量
	BatchMax    int     // 一轮最多处理多少条
	RatePerSec  float64 // 准入限流，<=0 不限
	Burst       int
}

// BookActor 单写者：一个协程独占 OrderBook，所有读写都通过 mailbox 串行执行
type BookActor struct {
	book    *matching.OrderBook
	in      chan Command
	cfg     ActorConfig
	limiter *rate.Limiter

	seq         uint64 // 只在 actor 协程里写
	mailboxFull uint64
	rejected    uint64

	done     chan struct{}
	stopOnce sync.Once
}

func NewBookActor(book *matching.OrderBook, cfg ActorConfig) *BookActor {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 4096
	}
	if cfg.BatchMax <= 0 {
		cfg.BatchMax = 256
	}
	a := &BookActor{
		book: book,
		in:   make(chan Command, cfg.MailboxSize),
		cfg:  cfg,
		done: make(chan struct{}),
	}
	if cfg.RatePerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return a
}

// Start 在 safe 协程里跑 Run，panic 时也会让等待方拿到 ErrEngineStopped
func (a *BookActor) Start(ctx context.Context) {
	safe.GoCtx(ctx, a.Run, func(any) { a.stop() })
}

// TryEnqueue 非阻塞投递：mailbox 满了直接返回 ErrEngineBusy
func (a *BookActor) TryEnqueue(cmd Command) error {
	select {
	case <-a.done:
		return ErrEngineStopped
	default:
	}
	if a.limiter != nil && !a.limiter.Allow() {
		atomic.AddUint64(&a.rejected, 1)
		return ErrRateLimited
	}
	select {
	case a.in <- cmd:
		return nil
	default:
		atomic.AddUint64(&a.mailboxFull, 1)
		return ErrEngineBusy
	}
}

// Do 投递并等待结果，span 覆盖排队 + 执行
// ctx 取消时：命令还没被 actor 接手就作废，返回 ctx.Err()，book 不变；
// 已经接手就等它执行完，返回真实结果
func (a *BookActor) Do(ctx context.Context, cmd Command) (res Result, err error) {
	ctx, span := tracer.Start(ctx, "book."+cmd.Type.String(),
		trace.WithAttributes(attribute.String("req_id", cmd.ReqID)))
	defer func() {
		span.SetAttributes(
			attribute.Int64("seq", int64(res.Seq)),
			attribute.Int("trades", len(res.Trades)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	cmd.ctx = ctx
	cmd.claim = new(atomic.Int32)
	cmd.reply = make(chan Result, 1)
	if err := a.TryEnqueue(cmd); err != nil {
		return Result{}, err
	}

	select {
	case res := <-cmd.reply:
		return res, res.Err
	case <-ctx.Done():
		if cmd.abandon() {
			return Result{}, ctx.Err()
		}
	case <-a.done:
		if cmd.abandon() {
			return Result{}, ErrEngineStopped
		}
	}

	// actor 已接手，结果一定会回来
	res = <-cmd.reply
	return res, res.Err
}

func (a *BookActor) AddLimit(ctx context.Context, price decimal.Decimal, order *matching.Order) error {
	_, err := a.Do(ctx, Command{Type: CmdAddLimit, Order: order, Price: price})
	return err
}

func (a *BookActor) FillMarket(ctx context.Context, order *matching.Order) ([]matching.Trade, error) {
	res, err := a.Do(ctx, Command{Type: CmdFillMarket, Order: order})
	return res.Trades, err
}

func (a *BookActor) FillLimit(ctx context.Context, order *matching.Order, price decimal.Decimal) ([]matching.Trade, error) {
	res, err := a.Do(ctx, Command{Type: CmdFillLimit, Order: order, Price: price})
	return res.Trades, err
}

func (a *BookActor) Snapshot(ctx context.Context) (matching.Snapshot, error) {
	res, err := a.Do(ctx, Command{Type: CmdSnapshot})
	return res.Snapshot, err
}

func (a *BookActor) Render(ctx context.Context) (string, error) {
	res, err := a.Do(ctx, Command{Type: CmdRender})
	return res.Text, err
}

func (a *BookActor) MailboxFull() uint64  { return atomic.LoadUint64(&a.mailboxFull) }
func (a *BookActor) RateRejected() uint64 { return atomic.LoadUint64(&a.rejected) }

// Done actor 退出后关闭
func (a *BookActor) Done() <-chan struct{} { return a.done }

func (a *BookActor) stop() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Run 先阻塞拿 1 条，再非阻塞尽量多拿，凑成一批顺序执行
func (a *BookActor) Run(ctx context.Context) {
	logger.Info(ctx, "book actor started",
		zap.Int("mailbox", a.cfg.MailboxSize),
		zap.Int("batch_max", a.cfg.BatchMax))
	defer a.drain(ctx)

	// 复用 batch slice，避免每轮分配
	batch := make([]Command, 0, a.cfg.BatchMax)
	for {
		var first Command
		select {
		case <-ctx.Done():
			return
		case first = <-a.in:
		}

		batch = batch[:0]
		batch = append(batch, first)
	FILL:
		for len(batch) < a.cfg.BatchMax {
			select {
			case cmd := <-a.in:
				batch = append(batch, cmd)
			default:
				break FILL
			}
		}

		for i := range batch {
			a.apply(ctx, batch[i])
			batch[i] = Command{} // 释放 Order 引用
		}
	}
}

// drain 退出时把 mailbox 里剩下的命令全部拒掉
func (a *BookActor) drain(ctx context.Context) {
	a.stop()
	n := 0
	for {
		select {
		case cmd := <-a.in:
			n++
			a.reply(cmd, Result{Err: ErrEngineStopped})
		default:
			logger.Info(ctx, "book actor stopped", zap.Uint64("seq", a.seq), zap.Int("rejected", n))
			return
		}
	}
}

func (a *BookActor) apply(ctx context.Context, cmd Command) {
	if cmd.ctx != nil {
		ctx = cmd.ctx // 带上请求的 req_id / trace
	}
	if cmd.ctx != nil && cmd.ctx.Err() != nil {
		// 调用方已经取消，book 不动
		if cmd.abandon() {
			logger.Debug(logger.WithReqID(ctx, cmd.ReqID), "command cancelled before apply",
				zap.Stringer("cmd", cmd.Type), zap.Error(cmd.ctx.Err()))
			a.reply(cmd, Result{Err: cmd.ctx.Err()})
		}
		return
	}
	if !cmd.take() {
		return // Do 已经返回 ctx.Err()
	}
	defer func() {
		// 已接手的命令必须有回复，否则 Do 会一直等；panic 继续交给 safe.GoCtx
		if r := recover(); r != nil {
			a.reply(cmd, Result{Err: ErrEngineStopped})
			panic(r)
		}
	}()

	a.seq++
	res := Result{Seq: a.seq}

	switch cmd.Type {
	case CmdAddLimit:
		res.Err = a.book.AddLimitOrder(cmd.Price, cmd.Order)
	case CmdFillMarket:
		res.Trades, res.Err = a.book.FillMarketOrder(cmd.Order)
	case CmdFillLimit:
		res.Trades, res.Err = a.book.FillLimitOrder(cmd.Order, cmd.Price)
	case CmdSnapshot:
		res.Snapshot = a.book.Snapshot()
	case CmdRender:
		res.Text = a.book.String()
	default:
		res.Err = ErrBadCommand
	}
	if cmd.Order != nil {
		res.Remaining = cmd.Order.Remaining()
	}

	if res.Err != nil {
		logger.Warn(logger.WithReqID(ctx, cmd.ReqID), "command rejected",
			zap.Stringer("cmd", cmd.Type),
			zap.Uint64("seq", res.Seq),
			zap.Error(res.Err))
	} else {
		logger.Debug(logger.WithReqID(ctx, cmd.ReqID), "command applied",
			zap.Stringer("cmd", cmd.Type),
			zap.Uint64("seq", res.Seq),
			zap.Int("trades", len(res.Trades)))
	}
	a.reply(cmd, res)
}

func (a *BookActor) reply(cmd Command, res Result) {
	if cmd.reply == nil {
		return // TryEnqueue 直接投递的命令不等结果
	}
	cmd.reply <- res // 容量为 1，不会阻塞
}
