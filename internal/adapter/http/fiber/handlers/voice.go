package handlers

import (
	"context"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice"
)

// MinUploadBytes is the smallest clip the API treats as a recording.
const MinUploadBytes = 100

// VoiceService is the part of voice.Service the HTTP layer drives.
type VoiceService interface {
	Draft(ctx context.Context, req domain.Request) (*domain.Draft, error)
	Auto(ctx context.Context, req domain.Request, commit bool) (*domain.AutoResult, error)
	Commit(ctx context.Context, req voice.CommitRequest) (*domain.ActionResult, error)
	ParsePatient(ctx context.Context, req domain.Request) (*domain.PatientDraft, error)
}

type VoiceHandler struct {
	service         VoiceService
	defaultLocale   domain.Locale
	defaultTimezone string
	log             *zap.Logger
}

func NewVoiceHandler(service VoiceService, defaultLocale domain.Locale, defaultTimezone string, log *zap.Logger) *VoiceHandler {
	if defaultLocale == "" {
		defaultLocale = domain.LocaleRussian
	}
	return &VoiceHandler{
		service:         service,
		defaultLocale:   defaultLocale,
		defaultTimezone: defaultTimezone,
		log:             log,
	}
}

// RegisterRoutes mounts the voice endpoints on an authenticated router.
func (h *VoiceHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/parse", h.Parse)
	r.Post("/auto-parse", h.AutoParse)
	r.Post("/commit", h.Commit)
	r.Post("/patient-parse", h.PatientParse)
}

// Parse returns a draft without writing anything.
func (h *VoiceHandler) Parse(c *fiber.Ctx) error {
	req, err := h.readRequest(c, domain.ModeVisit)
	if err != nil {
		return err
	}
	draft, err := h.service.Draft(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(draft)
}

// AutoParse drafts and, when auto_commit allows and the gates pass, writes.
func (h *VoiceHandler) AutoParse(c *fiber.Ctx) error {
	req, err := h.readRequest(c, domain.ModeVisit)
	if err != nil {
		return err
	}
	commit, err := formBool(c, "auto_commit", true)
	if err != nil {
		return err
	}
	res, err := h.service.Auto(c.UserContext(), req, commit)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *VoiceHandler) Commit(c *fiber.Ctx) error {
	var req voice.CommitRequest
	if err := c.BodyParser(&req); err != nil {
		return invalid("Invalid body: " + err.Error())
	}
	req.DoctorID = doctorID(c)

	if req.Locale == "" {
		req.Locale = h.defaultLocale
	}
	locale, ok := domain.ParseLocale(string(req.Locale))
	if !ok {
		return invalid("unsupported locale " + strconv.Quote(string(req.Locale)))
	}
	req.Locale = locale
	mode, ok := domain.ParseMode(string(req.Mode))
	if !ok {
		return invalid("unsupported mode " + strconv.Quote(string(req.Mode)))
	}
	req.Mode = mode
	if req.Timezone == "" {
		req.Timezone = h.defaultTimezone
	}

	res, err := h.service.Commit(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// PatientParse drafts a new patient card from an intake dictation.
func (h *VoiceHandler) PatientParse(c *fiber.Ctx) error {
	req, err := h.readRequest(c, domain.ModePatient)
	if err != nil {
		return err
	}
	draft, err := h.service.ParsePatient(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(draft)
}

// readRequest reads the multipart upload and its form fields.
func (h *VoiceHandler) readRequest(c *fiber.Ctx, defaultMode domain.Mode) (domain.Request, error) {
	const op = "http.voice"

	fh, err := c.FormFile("file")
	if err != nil {
		return domain.Request{}, domain.NewError(domain.KindAudioValidation, op, "audio file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Request{}, domain.WrapError(domain.KindAudioValidation, op, "failed to read upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Request{}, domain.WrapError(domain.KindAudioValidation, op, "failed to read upload", err)
	}
	if len(data) < MinUploadBytes {
		return domain.Request{}, domain.NewError(domain.KindAudioValidation, op, "audio file is empty")
	}

	mode := defaultMode
	if v := c.FormValue("mode"); v != "" {
		m, ok := domain.ParseMode(v)
		if !ok {
			return domain.Request{}, invalid("unsupported mode " + strconv.Quote(v))
		}
		mode = m
	}

	locale := h.defaultLocale
	if v := c.FormValue("locale"); v != "" {
		l, ok := domain.ParseLocale(v)
		if !ok {
			return domain.Request{}, invalid("unsupported locale " + strconv.Quote(v))
		}
		locale = l
	}

	var today *civil.Date
	if v := strings.TrimSpace(c.FormValue("today")); v != "" {
		d, err := civil.ParseDate(v)
		if err != nil {
			return domain.Request{}, invalid("today must be YYYY-MM-DD")
		}
		today = &d
	}

	tz := c.FormValue("timezone")
	if tz == "" {
		tz = h.defaultTimezone
	}

	req := domain.Request{
		Clip: domain.AudioClip{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
			Filename:    fh.Filename,
		},
		Mode:        mode,
		Locale:      locale,
		Timezone:    tz,
		Today:       today,
		DoctorID:    doctorID(c),
		PatientID:   strings.TrimSpace(c.FormValue("patient_id")),
		PatientName: strings.TrimSpace(c.FormValue("patient_name")),
	}
	h.log.Debug("Voice request received",
		zap.String("doctor_id", req.DoctorID),
		zap.String("mode", string(req.Mode)),
		zap.String("locale", string(req.Locale)),
		zap.Int("bytes", len(data)),
	)
	return req, nil
}

func formBool(c *fiber.Ctx, key string, def bool) (bool, error) {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, invalid(key + " must be a boolean")
	}
	return b, nil
}

func doctorID(c *fiber.Ctx) string {
	id, _ := c.Locals("doctor_id").(string)
	return id
}

func invalid(msg string) error {
	return domain.NewError(domain.KindInvalidRequest, "http.voice", msg)
}
