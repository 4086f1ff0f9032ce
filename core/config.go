package core

import (
	"fmt"
	"strings"
)

const (
	TokenModeLegacy = "legacy"
	TokenModeSigned = "signed"
)

type PaginationConfig struct {
	DefaultLimit int `koanf:"default_limit" mapstructure:"default_limit"`
	MaxLimit     int `koanf:"max_limit" mapstructure:"max_limit"`
}

type PasswordConfig struct {
	Cost int `koanf:"cost" mapstructure:"cost"`
}

type TokenConfig struct {
	Mode       string `koanf:"mode" mapstructure:"mode"`
	SigningKey string `koanf:"signing_key" mapstructure:"signing_key"`
	TTLMinutes int    `koanf:"ttl_minutes" mapstructure:"ttl_minutes"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	HTTPAddr    string           `koanf:"http_addr" mapstructure:"http_addr"`
	Pagination  PaginationConfig `koanf:"pagination" mapstructure:"pagination"`
	Password    PasswordConfig   `koanf:"password" mapstructure:"password"`
	Token       TokenConfig      `koanf:"token" mapstructure:"token"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "tasks",
		HTTPAddr:    ":8080",
		Pagination: PaginationConfig{
			DefaultLimit: 20,
			MaxLimit:     100,
		},
		Password: PasswordConfig{
			Cost: 10,
		},
		Token: TokenConfig{
			Mode:       TokenModeLegacy,
			TTLMinutes: 60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Pagination.MaxLimit < 1 {
		return fmt.Errorf("core: pagination.max_limit must be at least 1")
	}
	if c.Pagination.DefaultLimit < 1 || c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		return fmt.Errorf("core: pagination.default_limit must be within [1, %d]", c.Pagination.MaxLimit)
	}
	if c.Password.Cost < 4 || c.Password.Cost > 31 {
		return fmt.Errorf("core: password.cost must be within [4, 31]")
	}
	switch strings.TrimSpace(strings.ToLower(c.Token.Mode)) {
	case TokenModeLegacy:
	case TokenModeSigned:
		if strings.TrimSpace(c.Token.SigningKey) == "" {
			return fmt.Errorf("core: token.signing_key is required for signed tokens")
		}
		if c.Token.TTLMinutes < 1 {
			return fmt.Errorf("core: token.ttl_minutes must be at least 1 for signed tokens")
		}
	default:
		return fmt.Errorf("core: token.mode must be %q or %q", TokenModeLegacy, TokenModeSigned)
	}
	return nil
}
