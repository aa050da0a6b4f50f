package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/Pathviz/pkg"
	"github.com/spf13/viper"
)

// ReadConfig loads config.yaml from dir on top of the built in defaults.
// A missing file is not an error.
func ReadConfig(dir string) error {
	SetConfigDefaults()

	viper.SetConfigName("config")
	viper.AddConfigPath(dir)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func SetConfigDefaults() {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)
	viper.SetDefault("API_TIMEOUT", 30*time.Second)
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", 10*time.Second)
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", 30*time.Second)
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", 60*time.Second)
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", 5*time.Second)
	viper.SetDefault("HTTP_SERVER_SHUTDOWN_TIMEOUT", 5*time.Second)
	viper.SetDefault("STREAM_DELAY", time.Duration(pkg.DEFAULT_DELAY_MS)*time.Millisecond)
	viper.SetDefault("GRID_ROWS", pkg.DEFAULT_ROWS)
	viper.SetDefault("GRID_COLS", pkg.DEFAULT_COLS)
	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("MAX_SESSIONS", 64)
	viper.SetDefault("LOG_LEVEL", "info")
}
