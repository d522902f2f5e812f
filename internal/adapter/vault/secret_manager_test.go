package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestVault(t *testing.T, secrets map[string]map[string]interface{}) *SecretManager {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		data, ok := secrets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"data": data},
		})
	}))
	t.Cleanup(srv.Close)

	sm, err := NewSecretManager(Config{Address: srv.URL, Token: "root", Mount: "kv"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return sm
}

func TestSecretManager_Reads(t *testing.T) {
	sm := newTestVault(t, map[string]map[string]interface{}{
		"/v1/kv/data/openai":   {"api_key": "sk-test"},
		"/v1/kv/data/database": {"connection_string": "postgres://db"},
	})
	ctx := context.Background()

	key, err := sm.GetOpenAIAPIKey(ctx)
	if err != nil || key != "sk-test" {
		t.Errorf("expected sk-test, got %q (%v)", key, err)
	}
	url, err := sm.GetDatabaseURL(ctx)
	if err != nil || url != "postgres://db" {
		t.Errorf("expected postgres://db, got %q (%v)", url, err)
	}
}

func TestSecretManager_MissingSecrets(t *testing.T) {
	sm := newTestVault(t, map[string]map[string]interface{}{
		"/v1/kv/data/jwt": {"secret": 42},
	})
	ctx := context.Background()

	if _, err := sm.GetJWTSecret(ctx); err == nil {
		t.Error("expected error for non-string field")
	}
	if _, err := sm.GetOpenAIAPIKey(ctx); err == nil {
		t.Error("expected error for absent secret")
	}
}
