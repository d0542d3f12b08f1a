package main

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("API_KEYS", "key-1, key-2,,")
		t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
		t.Setenv("KEEP_ALIVE_INTERVAL", "5s")

		var settings Settings
		_, err := env.UnmarshalFromEnviron(&settings)
		require.NoError(t, err)

		assert.Equal(t, 8000, settings.Port)
		assert.Equal(t, "/notifier", settings.BasePath)
		assert.Equal(t, "notifier", settings.JWTAudience)
		assert.Equal(t, []string{"key-1", "key-2"}, settings.APIKeyList())
		assert.Equal(t, []string{"https://app.example.com"}, settings.AllowedOriginList())
		assert.Equal(t, 32, settings.RegistryShards)
		assert.Equal(t, 64, settings.OutboundBufferSize)
		assert.Equal(t, 5*time.Second, settings.KeepAliveInterval)
	})

	t.Run("empty lists", func(t *testing.T) {
		assert.Nil(t, Settings{}.APIKeyList())
		assert.Nil(t, Settings{AllowedOrigins: " , "}.AllowedOriginList())
	})
}
