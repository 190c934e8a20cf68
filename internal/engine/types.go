package engine

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"lobook.com/internal/matching"
	"lobook.com/pkg/xerr"
)

// 命令类型
type CmdType uint8

const (
	CmdAddLimit   CmdType = iota + 1 // 只挂单
	CmdFillMarket                    // 市价吃单，剩余不挂
	CmdFillLimit                     // 同价撮合，剩余挂单
	CmdSnapshot                      // 读深度快照
	CmdRender                        // 读文本渲染
)

func (c CmdType) String() string {
	switch c {
	case CmdAddLimit:
		return "add_limit"
	case CmdFillMarket:
		return "fill_market"
	case CmdFillLimit:
		return "fill_limit"
	case CmdSnapshot:
		return "snapshot"
	case CmdRender:
		return "render"
	default:
		return "unknown"
	}
}

// Command 投递给 actor 的命令
// Order 在 actor 协程里被修改，调用方等到 Result 返回之后再读它
type Command struct {
	Type  CmdType
	ReqID string // 上游追踪用，写进日志
	Order *matching.Order
	Price decimal.Decimal

	ctx   context.Context // Do 的请求 ctx，已取消的命令不执行
	claim *atomic.Int32   // 由 Do 创建；actor 和调用方谁先 CAS 成功谁决定结果
	reply chan Result
}

// claim 状态
const (
	cmdPending   int32 = iota
	cmdApplied         // actor 已接手，调用方必须等结果
	cmdAbandoned       // 调用方已放弃，actor 不碰 book
)

// take actor 接手命令；TryEnqueue 直接投递的命令没有 claim，总是执行
func (c *Command) take() bool {
	return c.claim == nil || c.claim.CompareAndSwap(cmdPending, cmdApplied)
}

// abandon 调用方放弃；返回 false 说明 actor 已经在执行
func (c *Command) abandon() bool {
	return c.claim != nil && c.claim.CompareAndSwap(cmdPending, cmdAbandoned)
}

type Result struct {
	Seq       uint64 // actor 内单调递增
	Trades    []matching.Trade
	Remaining decimal.Decimal // 命令执行后 Order 的剩余数量
	Snapshot  matching.Snapshot
	Text      string
	Err       error
}

var (
	ErrEngineBusy    = xerr.NewErrCode(xerr.EngineBusy)
	ErrEngineStopped = xerr.NewErrCode(xerr.EngineStopped)
	ErrRateLimited   = xerr.NewErrCode(xerr.RateLimited)
	ErrBadCommand    = xerr.NewErrCode(xerr.BadCommand)
)
