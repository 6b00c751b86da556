package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func productionConfig() *Config {
	return &Config{
		Server:  ServerConfig{Env: "production"},
		Gateway: GatewayConfig{ServerKey: "Mid-server-live", VerifySignature: true},
		Auth:    AuthConfig{APIKey: "k3y", JWTSecret: "a-long-private-secret"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "complete", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.Auth.APIKey = "" }, wantErr: "API_KEY"},
		{name: "default jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = DefaultJWTSecret }, wantErr: "JWT_SECRET"},
		{name: "empty jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "missing server key", mutate: func(c *Config) { c.Gateway.ServerKey = "" }, wantErr: "MIDTRANS_SERVER_KEY"},
		{name: "signature check off", mutate: func(c *Config) { c.Gateway.VerifySignature = false }, wantErr: "MIDTRANS_VERIFY_SIGNATURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := productionConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "production"}, Auth: AuthConfig{JWTSecret: DefaultJWTSecret}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "API_KEY")
	assert.ErrorContains(t, err, "JWT_SECRET")
	assert.ErrorContains(t, err, "MIDTRANS_SERVER_KEY")
}

func TestValidateDevelopment(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Env: "development"}, Auth: AuthConfig{JWTSecret: DefaultJWTSecret}}
	assert.NoError(t, cfg.Validate())
}
