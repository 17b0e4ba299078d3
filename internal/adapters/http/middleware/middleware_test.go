package middleware_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"libraryhub/internal/adapters/http/middleware"
	"libraryhub/internal/config"
)

func TestAppConfigIgnoresProxyHeadersByDefault(t *testing.T) {
	fc := middleware.AppConfig(&config.Config{})

	assert.Empty(t, fc.ProxyHeader)
	assert.False(t, fc.EnableTrustedProxyCheck)
	assert.NotNil(t, fc.ErrorHandler)
}

func TestAppConfigTrustsConfiguredProxies(t *testing.T) {
	fc := middleware.AppConfig(&config.Config{TrustedProxies: []string{"10.0.0.0/8"}})

	assert.Equal(t, fiber.HeaderXForwardedFor, fc.ProxyHeader)
	assert.True(t, fc.EnableTrustedProxyCheck)
	assert.True(t, fc.EnableIPValidation)
	assert.Equal(t, []string{"10.0.0.0/8"}, fc.TrustedProxies)
}
