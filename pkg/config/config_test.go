package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"lobook.com/pkg/logger"
)

type sample struct {
	Name string `mapstructure:"name"`
	Log  struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := writeFile(t, "name: svc\nlog:\n  level: debug\n")

	var out sample
	v, err := Load("svc", path, &out)
	require.NoError(t, err)
	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, "svc", out.Name)
	assert.Equal(t, "debug", out.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeFile(t, "name: svc\nlog:\n  level: debug\n")
	t.Setenv("SVC_LOG_LEVEL", "warn")

	var out sample
	_, err := Load("svc", path, &out)
	require.NoError(t, err)
	assert.Equal(t, "warn", out.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	var out sample
	_, err := Load("svc", filepath.Join(t.TempDir(), "nope.yaml"), &out)
	assert.Error(t, err)
}

func TestWatch_ReloadsLogLevel(t *testing.T) {
	path := writeFile(t, "name: svc\nlog:\n  level: debug\n")
	prev := logger.Level()
	t.Cleanup(func() { logger.SetLevel(prev.String()) })

	var out sample
	v, err := Load("svc", path, &out)
	require.NoError(t, err)
	logger.SetLevel(out.Log.Level)
	require.Equal(t, zapcore.DebugLevel, logger.Level())

	// 写文件时可能先触发一次内容为空的事件，回调里把当前值带出来
	levels := make(chan string, 16)
	Watch(v, "svc", &out, func() {
		logger.SetLevel(out.Log.Level)
		select {
		case levels <- out.Log.Level:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("name: svc\nlog:\n  level: warn\n"), 0o644))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case lvl := <-levels:
			if lvl != "warn" {
				continue
			}
			assert.Equal(t, zapcore.WarnLevel, logger.Level())
			return
		case <-timeout:
			t.Fatal("config change not observed")
		}
	}
}
