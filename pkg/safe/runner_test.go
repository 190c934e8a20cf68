package safe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoCtx_RecoversPanic(t *testing.T) {
	got := make(chan any, 1)
	GoCtx(context.Background(), func(context.Context) {
		panic("boom")
	}, func(r any) { got <- r })

	select {
	case r := <-got:
		require.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic callback not invoked")
	}
}

func TestGo_Runs(t *testing.T) {
	done := make(chan struct{})
	Go(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fn not run")
	}
}
