package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"studyd/internal/structures"
	"time"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "STUDYD_LOG_LEVEL")
	viper.BindEnv("tracker.pollInterval", "STUDYD_POLL_INTERVAL")
	viper.BindEnv("gateway.baseUrl", "STUDYD_GATEWAY_URL")
	viper.BindEnv("gateway.transport", "STUDYD_TRANSPORT")
	viper.BindEnv("export.enabled", "STUDYD_EXPORT_ENABLED")
	viper.BindEnv("export.url", "STUDYD_EXPORT_URL")
	viper.BindEnv("export.secret", "STUDYD_EXPORT_SECRET")
	viper.BindEnv("cache.enabled", "STUDYD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "STUDYD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	applyDefaults(&conf)

	conf.AppName = "StudyTrackerDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func applyDefaults(conf *structures.Config) {
	if conf.Tracker.SessionMin == 0 {
		conf.Tracker.SessionMin = 5 * time.Minute
	}
	if conf.Board.ShowMax == 0 {
		conf.Board.ShowMax = 10
	}
	if conf.Gateway.Transport == "" {
		conf.Gateway.Transport = "user"
	}
	if conf.Gateway.Retries == 0 {
		conf.Gateway.Retries = 6
	}
	if conf.Gateway.Backoff == 0 {
		conf.Gateway.Backoff = time.Second
	}
	if conf.Storage.FlushRetries == 0 {
		conf.Storage.FlushRetries = 5
	}
	if conf.Storage.FlushBackoff == 0 {
		conf.Storage.FlushBackoff = 200 * time.Millisecond
	}
	if conf.Export.Timeout == 0 {
		conf.Export.Timeout = 1500 * time.Millisecond
	}
}
