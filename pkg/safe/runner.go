package safe

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
	"lobook.com/pkg/logger"
)

// Go 安全启动协程
func Go(fn func()) {
	GoCtx(context.Background(), func(context.Context) { fn() })
}

// GoCtx 安全启动携带 context 的协程，panic 只记日志，不拖垮进程。
// onPanic 可选，用于通知调用方（例如让 actor 的等待方不再阻塞）。
func GoCtx(ctx context.Context, fn func(ctx context.Context), onPanic ...func(r any)) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "goroutine panic recovered",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				for _, cb := range onPanic {
					cb(r)
				}
			}
		}()

		fn(ctx)
	}()
}
