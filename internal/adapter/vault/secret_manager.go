package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"
)

// Config points at a KV v2 mount holding the service secrets.
type Config struct {
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Mount   string `mapstructure:"mount"`
}

type SecretManager struct {
	client *api.Client
	mount  string
}

func NewSecretManager(cfg Config) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(cfg.Token)

	mount := strings.Trim(cfg.Mount, "/")
	if mount == "" {
		mount = "secret"
	}
	return &SecretManager{client: client, mount: mount}, nil
}

func (sm *SecretManager) GetDatabaseURL(ctx context.Context) (string, error) {
	return sm.read(ctx, "database", "connection_string")
}

func (sm *SecretManager) GetOpenAIAPIKey(ctx context.Context) (string, error) {
	return sm.read(ctx, "openai", "api_key")
}

func (sm *SecretManager) GetJWTSecret(ctx context.Context) (string, error) {
	return sm.read(ctx, "jwt", "secret")
}

func (sm *SecretManager) read(ctx context.Context, name, field string) (string, error) {
	path := sm.mount + "/data/" + name
	secret, err := sm.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: secret %s is not a KV v2 entry", path)
	}
	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault: secret %s has no %q", path, field)
	}
	return value, nil
}
