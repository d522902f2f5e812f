package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/http/fiber/middleware"
	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/mocks"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice"
)

type fakeVoiceService struct {
	lastRequest domain.Request
	lastCommit  voice.CommitRequest
	lastAuto    bool
	err         error
}

func (f *fakeVoiceService) Draft(ctx context.Context, req domain.Request) (*domain.Draft, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Draft{Transcript: "today's visit", Warnings: []string{}}, nil
}

func (f *fakeVoiceService) Auto(ctx context.Context, req domain.Request, commit bool) (*domain.AutoResult, error) {
	f.lastRequest, f.lastAuto = req, commit
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AutoResult{Action: domain.ActionCreateVisit, NeedsConfirmation: !commit}, nil
}

func (f *fakeVoiceService) Commit(ctx context.Context, req voice.CommitRequest) (*domain.ActionResult, error) {
	f.lastCommit = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ActionResult{PerformedAction: domain.PerformedCreateVisit}, nil
}

func (f *fakeVoiceService) ParsePatient(ctx context.Context, req domain.Request) (*domain.PatientDraft, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PatientDraft{Patient: domain.PatientHint{FirstName: "Ani"}}, nil
}

func newTestApp(svc VoiceService) *fiber.App {
	log := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	api := app.Group("/api/v1/ai/voice", middleware.AuthRequired(&mocks.MockTokenVerifier{}, log))
	NewVoiceHandler(svc, domain.LocaleRussian, "Asia/Yerevan", log).RegisterRoutes(api)
	return app
}

func uploadRequest(t *testing.T, path string, audio []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if audio != nil {
		part, err := w.CreateFormFile("file", "clip.webm")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		_, _ = part.Write(audio)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	data, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", data, err)
	}
	return out
}

var clip = bytes.Repeat([]byte{0x1a}, 512)

func TestParse_ReadsFormFields(t *testing.T) {
	// Arrange
	svc := &fakeVoiceService{}
	app := newTestApp(svc)
	req := uploadRequest(t, "/api/v1/ai/voice/parse", clip, map[string]string{
		"mode":       "payment",
		"locale":     "am",
		"patient_id": "patient-1",
		"today":      "2025-01-06",
	})

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	got := svc.lastRequest
	if got.Mode != domain.ModePayment || got.Locale != domain.LocaleArmenian {
		t.Errorf("unexpected mode/locale %s/%s", got.Mode, got.Locale)
	}
	if got.DoctorID != "doctor-1" || got.PatientID != "patient-1" {
		t.Errorf("unexpected ids %s/%s", got.DoctorID, got.PatientID)
	}
	if got.Today == nil || got.Today.String() != "2025-01-06" {
		t.Errorf("expected today 2025-01-06, got %v", got.Today)
	}
	if got.Timezone != "Asia/Yerevan" {
		t.Errorf("expected default timezone, got %q", got.Timezone)
	}
	if len(got.Clip.Data) != len(clip) || got.Clip.Filename != "clip.webm" {
		t.Errorf("unexpected clip %d bytes %q", len(got.Clip.Data), got.Clip.Filename)
	}
}

func TestAutoParse_AutoCommitFlag(t *testing.T) {
	tests := []struct {
		name string
		flag string
		want bool
	}{
		{"default on", "", true},
		{"explicit off", "false", false},
		{"numeric on", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeVoiceService{}
			app := newTestApp(svc)
			fields := map[string]string{}
			if tt.flag != "" {
				fields["auto_commit"] = tt.flag
			}

			resp, _ := app.Test(uploadRequest(t, "/api/v1/ai/voice/auto-parse", clip, fields))

			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if svc.lastAuto != tt.want {
				t.Errorf("expected commit=%v, got %v", tt.want, svc.lastAuto)
			}
		})
	}
}

func TestVoiceEndpoints_RejectBadInput(t *testing.T) {
	tests := []struct {
		name   string
		audio  []byte
		fields map[string]string
		status int
		kind   string
	}{
		{"missing file", nil, nil, fiber.StatusBadRequest, "audio_validation"},
		{"tiny clip", []byte("short"), nil, fiber.StatusBadRequest, "audio_validation"},
		{"unknown locale", clip, map[string]string{"locale": "de"}, fiber.StatusBadRequest, "invalid_request"},
		{"unknown mode", clip, map[string]string{"mode": "billing"}, fiber.StatusBadRequest, "invalid_request"},
		{"bad today", clip, map[string]string{"today": "06.01.2025"}, fiber.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeVoiceService{}
			app := newTestApp(svc)

			resp, _ := app.Test(uploadRequest(t, "/api/v1/ai/voice/parse", tt.audio, tt.fields))

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if body := decodeBody(t, resp); body["kind"] != tt.kind {
				t.Errorf("expected kind %s, got %v", tt.kind, body["kind"])
			}
		})
	}
}

func TestVoiceEndpoints_MapServiceErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retriable bool
	}{
		{"transcription", domain.NewError(domain.KindTranscription, "t", "stt down"), fiber.StatusBadGateway, true},
		{"parsing", domain.NewError(domain.KindParsing, "p", "bad json"), fiber.StatusBadGateway, true},
		{"not configured", domain.NewError(domain.KindNotConfigured, "c", "no key"), fiber.StatusServiceUnavailable, false},
		{"too large", &domain.Error{Kind: domain.KindAudioValidation, Message: "big", Cause: domain.ErrAudioTooLarge}, fiber.StatusRequestEntityTooLarge, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeVoiceService{err: tt.err})

			resp, _ := app.Test(uploadRequest(t, "/api/v1/ai/voice/parse", clip, nil))

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if body := decodeBody(t, resp); body["retriable"] != tt.retriable {
				t.Errorf("expected retriable=%v, got %v", tt.retriable, body["retriable"])
			}
		})
	}
}

func TestCommit_JSONBody(t *testing.T) {
	// Arrange
	svc := &fakeVoiceService{}
	app := newTestApp(svc)
	body := `{"patient_id":"patient-1","mode":"payment","amount":300000,"visit_date":"2025-01-06"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/voice/commit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %v (%v)", resp.StatusCode, err)
	}
	got := svc.lastCommit
	if got.DoctorID != "doctor-1" || got.Mode != domain.ModePayment {
		t.Errorf("unexpected commit request %+v", got)
	}
	if got.Amount == nil || *got.Amount != 300000 {
		t.Errorf("expected amount 300000, got %v", got.Amount)
	}
	if got.Locale != domain.LocaleRussian || got.Timezone != "Asia/Yerevan" {
		t.Errorf("expected defaults ru/Asia/Yerevan, got %s/%s", got.Locale, got.Timezone)
	}
}

func TestCommit_VoiceActionErrors(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
	}{
		{"not found", domain.ErrPatientNotFound, fiber.StatusNotFound},
		{"foreign patient", domain.ErrPatientAccessDenied, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.WrapError(domain.KindVoiceAction, "voice.route", "patient check failed", tt.cause)
			app := newTestApp(&fakeVoiceService{err: err})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/voice/commit",
				strings.NewReader(`{"patient_id":"p","mode":"visit","visit_date":"2025-01-06"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer token")

			resp, _ := app.Test(req)

			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(&fakeVoiceService{})
	req := uploadRequest(t, "/api/v1/ai/voice/parse", clip, nil)
	req.Header.Del("Authorization")

	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}
