package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Server struct {
		HTTPPort      string        `mapstructure:"HTTPPort"`
		Timeout       time.Duration `mapstructure:"HTTPTimeout"`
		RedirectHTTPS bool          `mapstructure:"redirectHTTPS"`
	} `mapstructure:"server"`
	JWT   JWTConfig  `mapstructure:"jwt"`
	Mail  MailConfig `mapstructure:"mail"`
	Cache struct {
		TTL             time.Duration `mapstructure:"ttl"`
		CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	} `mapstructure:"cache"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
}

// JWTConfig holds the settings used to sign and validate access tokens.
// Loaded once at startup and treated as immutable afterwards.
type JWTConfig struct {
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	SecretKey       string        `mapstructure:"secretKey"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
}

type MailConfig struct {
	Server      string `mapstructure:"server"`
	Port        int    `mapstructure:"port"`
	SenderName  string `mapstructure:"senderName"`
	SenderEmail string `mapstructure:"senderEmail"`
	Account     string `mapstructure:"account"`
	Password    string `mapstructure:"password"`
	Enabled     bool   `mapstructure:"enabled"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Environment overrides, e.g. TODOAPI_JWT_SECRETKEY
	v.SetEnvPrefix("TODOAPI")
	v.AutomaticEnv()

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate rejects configurations the server cannot start with. Recognized
// options are enumerated here instead of being checked ad hoc at use sites.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("jwt.secretKey must not be empty")
	}
	if c.JWT.Issuer == "" || c.JWT.Audience == "" {
		return fmt.Errorf("jwt.issuer and jwt.audience must be configured")
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("jwt.accessTokenTTL must be positive, got %s", c.JWT.AccessTokenTTL)
	}
	if c.Repositories.Postgres.Host == "" {
		return fmt.Errorf("repositories.postgres.host must be configured")
	}
	if c.Mail.Enabled && (c.Mail.Server == "" || c.Mail.SenderEmail == "") {
		return fmt.Errorf("mail.server and mail.senderEmail are required when mail is enabled")
	}
	return nil
}
