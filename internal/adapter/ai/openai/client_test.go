package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/infrastructure/circuitbreaker"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	breaker := circuitbreaker.New(circuitbreaker.Settings{Name: "openai-test", FailureThreshold: 1}, zap.NewNop())
	return NewClient(cfg, breaker, zap.NewNop())
}

func TestTranscribe_SendsLanguageHint(t *testing.T) {
	// Arrange
	var gotLanguage, gotFile string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body, got %v", err)
		}
		gotLanguage = r.FormValue("language")
		if _, fh, err := r.FormFile("file"); err == nil {
			gotFile = fh.Filename
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " aysor vizit "})
	}, Config{})

	// Act
	text, err := c.Transcribe(context.Background(), domain.AudioClip{Data: []byte("ogg"), Filename: "rec.ogg"}, domain.LocaleArmenian)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != " aysor vizit " {
		t.Errorf("expected raw provider text, got %q", text)
	}
	if gotLanguage != "hy" {
		t.Errorf("expected language hy, got %q", gotLanguage)
	}
	if gotFile != "audio.ogg" {
		t.Errorf("expected upload name audio.ogg, got %q", gotFile)
	}
}

func TestComplete_RequestsJSONObject(t *testing.T) {
	var body struct {
		Temperature    float32 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"action\":\"add_note\"}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`)
	}, Config{})

	out, err := c.Complete(context.Background(), "system", "user")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"action":"add_note"}` {
		t.Errorf("unexpected completion %q", out)
	}
	if body.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %q", body.ResponseFormat.Type)
	}
	if body.Temperature != 0.1 {
		t.Errorf("expected default temperature 0.1, got %v", body.Temperature)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
		t.Errorf("expected system and user messages, got %+v", body.Messages)
	}
}

func TestProviderFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}, Config{})

	_, err := c.Complete(context.Background(), "s", "u")
	if !domain.IsKind(err, domain.KindParsing) || !domain.IsRetriable(err) {
		t.Errorf("expected retriable parsing error, got %v", err)
	}

	_, err = c.Transcribe(context.Background(), domain.AudioClip{Data: []byte("x")}, domain.LocaleAuto)
	if !domain.IsKind(err, domain.KindTranscription) || !circuitbreaker.IsOpen(err) {
		t.Errorf("expected transcription error from open breaker, got %v", err)
	}
}

func TestTimeoutIsRetriable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, Config{LLMTimeout: 20 * time.Millisecond})

	_, err := c.Complete(context.Background(), "s", "u")

	if !domain.IsKind(err, domain.KindParsing) || !domain.IsRetriable(err) {
		t.Errorf("expected retriable parsing error on timeout, got %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Config{}, circuitbreaker.New(circuitbreaker.DefaultSettings("x"), zap.NewNop()), zap.NewNop())

	_, err := c.Transcribe(context.Background(), domain.AudioClip{Data: []byte("x")}, domain.LocaleRussian)
	if !domain.IsKind(err, domain.KindNotConfigured) {
		t.Errorf("expected not_configured, got %v", err)
	}
	if domain.IsRetriable(err) {
		t.Error("expected not_configured to be final")
	}
}

func TestLanguageHint(t *testing.T) {
	for locale, want := range map[domain.Locale]string{
		domain.LocaleArmenian: "hy",
		domain.LocaleRussian:  "ru",
		domain.LocaleEnglish:  "en",
		domain.LocaleAuto:     "",
	} {
		if got := languageHint(locale); got != want {
			t.Errorf("languageHint(%s) = %q, want %q", locale, got, want)
		}
	}
}
