package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ProjectID         string
	Region            string
	LogLevel          string
	Port              string
	KMSKeyName        string
	SourceCacheTTL    time.Duration
	SourceCacheSize   int64
	HTTPSourceTimeout time.Duration
	MaxSourceRows     int
}

// New reads the configuration from environment variables.
func New() *Config {
	return load(viper.New())
}

func load(v *viper.Viper) *Config {
	v.SetDefault("PROJECTID", "")
	v.SetDefault("REGION", "")
	v.SetDefault("LOGLEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("KMSKEYNAME", "")
	v.SetDefault("SOURCECACHETTL", 5*time.Minute)
	v.SetDefault("SOURCECACHESIZE", 1_000_000)
	v.SetDefault("HTTPSOURCETIMEOUT", 15*time.Second)
	v.SetDefault("MAXSOURCEROWS", 50_000)
	v.AutomaticEnv()

	return &Config{
		ProjectID:         v.GetString("PROJECTID"),
		Region:            v.GetString("REGION"),
		LogLevel:          v.GetString("LOGLEVEL"),
		Port:              v.GetString("PORT"),
		KMSKeyName:        v.GetString("KMSKEYNAME"),
		SourceCacheTTL:    v.GetDuration("SOURCECACHETTL"),
		SourceCacheSize:   v.GetInt64("SOURCECACHESIZE"),
		HTTPSourceTimeout: v.GetDuration("HTTPSOURCETIMEOUT"),
		MaxSourceRows:     v.GetInt("MAXSOURCEROWS"),
	}
}
