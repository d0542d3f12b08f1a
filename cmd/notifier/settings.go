package main

import (
	"strings"
	"time"
)

type Settings struct {
	Port     int    `env:"PORT,default=8000"`
	BasePath string `env:"BASE_PATH,default=/notifier"`

	JWTSecret   string `env:"JWT_SECRET,required=true"`
	JWTAudience string `env:"JWT_AUDIENCE,default=notifier"`
	APIKeys     string `env:"API_KEYS"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	LogEncoding    string `env:"LOG_ENCODING,default=console"`

	RegistryShards     int           `env:"REGISTRY_SHARDS,default=32"`
	OutboundBufferSize int           `env:"OUTBOUND_BUFFER_SIZE,default=64"`
	KeepAliveInterval  time.Duration `env:"KEEP_ALIVE_INTERVAL,default=15s"`
}

func (s Settings) APIKeyList() []string {
	return splitList(s.APIKeys)
}

func (s Settings) AllowedOriginList() []string {
	return splitList(s.AllowedOrigins)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}

	return items
}
