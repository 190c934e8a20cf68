package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"lobook.com/pkg/logger"
)

// Load 读取配置到 out
// 约定：file 为空时读 ./config/{service}.yaml，也兜底读当前目录
// 环境变量覆盖，例如 LOBOOK_LOG_LEVEL 覆盖 log.level
func Load(service, file string, out interface{}) (*viper.Viper, error) {
	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(service)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(strings.ToUpper(service))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}

	logger.Log.Info("config loaded",
		zap.String("service", service),
		zap.String("file", v.ConfigFileUsed()))
	return v, nil
}

// Watch 监听文件变更，热更新到 out，成功后回调 onChange
func Watch(v *viper.Viper, service string, out interface{}, onChange func()) {
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Log.Info("config file changed",
			zap.String("service", service),
			zap.String("file", e.Name),
			zap.String("op", e.Op.String()))

		if err := v.Unmarshal(out); err != nil {
			logger.Log.Error("reload config failed", zap.String("service", service), zap.Error(err))
			return
		}
		if onChange != nil {
			onChange()
		}
	})
	v.WatchConfig()
}
