package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lobook.com/internal/config"
	"lobook.com/internal/engine"
	"lobook.com/internal/matching"
	pkgconfig "lobook.com/pkg/config"
)

func TestReplay_SampleScenario(t *testing.T) {
	var cfg config.Config
	_, err := pkgconfig.Load("lobook", "../../config/lobook.yaml", &cfg)
	require.NoError(t, err)
	cfg.Defaults()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	actor := engine.NewBookActor(matching.NewOrderBook(), engine.ActorConfig{})
	actor.Start(ctx)

	require.NoError(t, replay(ctx, actor, cfg.Scenario))

	snap, err := actor.Snapshot(ctx)
	require.NoError(t, err)

	prices := func(levels []matching.LevelView) []string {
		out := make([]string, 0, len(levels))
		for _, lv := range levels {
			out = append(out, lv.Price+"/"+lv.Volume)
		}
		return out
	}
	assert.Equal(t, []string{"30/4", "20.1/2"}, prices(snap.Bids))
	assert.Equal(t, []string{"10.322/4", "11/6", "11.322/20"}, prices(snap.Asks))
	assert.NoError(t, printBook(ctx, actor))
}

func TestReplay_StopsOnBadStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	actor := engine.NewBookActor(matching.NewOrderBook(), engine.ActorConfig{})
	actor.Start(ctx)

	err := replay(ctx, actor, []config.Step{
		{Op: "limit", Side: "bid", Price: "10", Qty: "1"},
		{Op: "limit", Side: "bid", Price: "10", Qty: "0"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario[1]")
}
