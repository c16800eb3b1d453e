package providers

import (
	"barcodedrop/internal/structures"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const AppName = "BarcodeDrop"

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("channel.minDelay", time.Second)
	v.SetDefault("channel.maxDelay", 10*time.Second)
	v.SetDefault("channel.growthFactor", 1.3)
	v.SetDefault("channel.connectTimeout", 4*time.Second)
	v.SetDefault("autoCopy.enabled", true)
	v.SetDefault("autoCopy.highlightTtl", 5*time.Second)
	v.SetDefault("autoCopy.clipboardTimeout", 2*time.Second)
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8765)
	v.SetDefault("persistence.saveInterval", 30*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("cache.ttl", 30*time.Second)
	v.SetDefault("console.rows", 20)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	envFile := filepath.Join(filepath.Dir(flags.ConfigPath), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("unable to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")
	setConfigDefaults(v)

	v.BindEnv("username", "BARCODEDROP_USERNAME")
	v.BindEnv("api.baseUrl", "BARCODEDROP_API_URL")
	v.BindEnv("channel.url", "BARCODEDROP_CHANNEL_URL")
	v.BindEnv("channel.disabled", "BARCODEDROP_CHANNEL_DISABLED")
	v.BindEnv("autoCopy.enabled", "BARCODEDROP_AUTO_COPY")
	v.BindEnv("logger.level", "BARCODEDROP_LOG_LEVEL")
	v.BindEnv("metrics.enabled", "BARCODEDROP_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if flags.Username != "" {
		conf.Username = flags.Username
	}
	if conf.Persistence.FilePath == "" {
		conf.Persistence.FilePath = filepath.Join(conf.Logger.Dir, "preferences.dat")
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
