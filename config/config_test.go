package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var c Config
	c.JWT = JWTConfig{
		Issuer:          "todo-api",
		Audience:        "todo-api-clients",
		SecretKey:       "a-reasonably-long-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	c.Repositories.Postgres.Host = "localhost"
	return c
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		c := validConfig()
		require.NoError(t, c.Validate())
	})

	t.Run("MissingSecretKey", func(t *testing.T) {
		c := validConfig()
		c.JWT.SecretKey = ""

		err := c.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "secretKey")
	})

	t.Run("MissingIssuer", func(t *testing.T) {
		c := validConfig()
		c.JWT.Issuer = ""

		assert.Error(t, c.Validate())
	})

	t.Run("MissingAudience", func(t *testing.T) {
		c := validConfig()
		c.JWT.Audience = ""

		assert.Error(t, c.Validate())
	})

	t.Run("NonPositiveAccessTTL", func(t *testing.T) {
		c := validConfig()
		c.JWT.AccessTokenTTL = 0

		err := c.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "accessTokenTTL")
	})

	t.Run("MissingPostgresHost", func(t *testing.T) {
		c := validConfig()
		c.Repositories.Postgres.Host = ""

		assert.Error(t, c.Validate())
	})

	t.Run("MailDisabledSkipsMailChecks", func(t *testing.T) {
		c := validConfig()
		c.Mail.Enabled = false

		assert.NoError(t, c.Validate())
	})

	t.Run("MailEnabledRequiresServerAndSender", func(t *testing.T) {
		c := validConfig()
		c.Mail.Enabled = true

		err := c.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "mail")

		c.Mail.Server = "smtp.example.com"
		c.Mail.SenderEmail = "noreply@example.com"
		assert.NoError(t, c.Validate())
	})
}
