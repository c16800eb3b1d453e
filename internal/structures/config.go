package structures

import "time"

type Server struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required|uint|min:1"`
}

type ApiConfig struct {
	BaseURL string        `mapstructure:"baseUrl" validate:"required|fullUrl"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required|min:1"`
}

type ChannelConfig struct {
	URL            string        `mapstructure:"url"`
	Disabled       bool          `mapstructure:"disabled"`
	MinDelay       time.Duration `mapstructure:"minDelay"`
	MaxDelay       time.Duration `mapstructure:"maxDelay"`
	GrowthFactor   float64       `mapstructure:"growthFactor"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type AutoCopyConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	HighlightTTL   time.Duration `mapstructure:"highlightTtl"`
	ClipboardLimit time.Duration `mapstructure:"clipboardTimeout"`
}

type Persistence struct {
	FilePath     string        `mapstructure:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `mapstructure:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `mapstructure:"mode" validate:"required|uint"`
	Dir   string `mapstructure:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ConsoleConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Rows    int  `mapstructure:"rows"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Username    string         `mapstructure:"username"`
	Api         ApiConfig      `mapstructure:"api"`
	Channel     ChannelConfig  `mapstructure:"channel"`
	AutoCopy    AutoCopyConfig `mapstructure:"autoCopy"`
	WebServer   Server         `mapstructure:"webServer"`
	Persistence Persistence    `mapstructure:"persistence"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Console     ConsoleConfig  `mapstructure:"console"`
}
