// Package voice turns a dictated clinical instruction into a structured,
// guarded store write: audio validation, transcription, model extraction,
// multilingual normalization, scoring and routing.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/queue"
	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/messages"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/normalize"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/prompts"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

// SubjectActionApplied carries a domain.VoiceCommandLog for every write.
const SubjectActionApplied = "voice.action.applied"

type Config struct {
	MaxAudioBytes   int
	DefaultTimezone string
	DefaultCurrency domain.Currency
	EventSubject    string
}

type Service struct {
	transcriber ports.Transcriber
	parser      *Parser
	normalizer  *normalize.Normalizer
	scorer      *scoring.Scorer
	router      *Router
	mq          queue.MessageQueue
	cfg         Config
	tracer      trace.Tracer
	log         *zap.Logger
	now         func() time.Time
}

// NewService wires the pipeline. mq may be nil, in which case no events
// are published.
func NewService(
	transcriber ports.Transcriber,
	llm ports.LanguageModel,
	store ports.ClinicStore,
	scorer *scoring.Scorer,
	mq queue.MessageQueue,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = DefaultMaxAudioBytes
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = normalize.ArmeniaTimezone
	}
	if cfg.EventSubject == "" {
		cfg.EventSubject = SubjectActionApplied
	}
	return &Service{
		transcriber: transcriber,
		parser:      NewParser(llm, log),
		normalizer:  normalize.NewNormalizer(log),
		scorer:      scorer,
		router:      NewRouter(store, scorer, log),
		mq:          mq,
		cfg:         cfg,
		tracer:      otel.Tracer("smilecrm/voice"),
		log:         log,
		now:         time.Now,
	}
}

// understanding is everything the pipeline knows about one utterance
// before anything is written.
type understanding struct {
	transcript string
	intent     domain.NormalizedIntent
	warnings   []string
	rc         RouteContext
	mode       domain.Mode
	silent     bool
}

// Draft runs the pipeline without writing.
func (s *Service) Draft(ctx context.Context, req domain.Request) (*domain.Draft, error) {
	start := time.Now()
	u, err := s.understand(ctx, req)
	if err != nil {
		s.countFailure("draft", err)
		return nil, err
	}
	telemetry.VoiceLatency.Observe(time.Since(start).Seconds())
	telemetry.VoiceCommandsTotal.WithLabelValues("draft", string(u.intent.Action), "drafted").Inc()
	return u.draft(), nil
}

// Auto runs the pipeline and, when commit is set, hands the intent to the
// router. Store failures are reported in the result rather than returned.
func (s *Service) Auto(ctx context.Context, req domain.Request, commit bool) (*domain.AutoResult, error) {
	start := time.Now()
	u, err := s.understand(ctx, req)
	if err != nil {
		s.countFailure("auto", err)
		return nil, err
	}

	out := &domain.AutoResult{
		Draft:           *u.draft(),
		Action:          u.intent.Action,
		Confidence:      u.intent.Confidence,
		ModelConfidence: u.intent.ModelConfidence,
	}

	switch {
	case u.silent:
		out.Result = pending(domain.PerformedNone, u.warnings[0])
	case !commit:
		out.Result = domain.ActionResult{PerformedAction: domain.PerformedNone, Warnings: []string{}, NeedsConfirmation: true}
	default:
		ctx, end := s.stage(ctx, "route")
		res, err := s.router.Route(ctx, u.intent, u.rc)
		end(err)
		if err != nil {
			s.log.Error("Voice action failed",
				zap.String("doctor_id", u.rc.DoctorID),
				zap.String("patient_id", u.rc.PatientID),
				zap.String("action", string(u.intent.Action)),
				zap.Error(err),
			)
			res = domain.ActionResult{
				PerformedAction:   domain.PerformedError,
				Warnings:          []string{messages.Text(u.rc.Locale, messages.ActionFailed, actionFailure(err))},
				NeedsConfirmation: true,
			}
		}
		out.Result = res
	}
	if !u.silent {
		out.Result.Warnings = append(append([]string{}, u.warnings...), out.Result.Warnings...)
	}
	out.NeedsConfirmation = out.Result.NeedsConfirmation

	s.publishApplied(u.rc, u.mode, u.transcript, u.intent, out.Result)
	telemetry.VoiceLatency.Observe(time.Since(start).Seconds())
	telemetry.VoiceCommandsTotal.WithLabelValues("auto", string(u.intent.Action), string(out.Result.PerformedAction)).Inc()
	return out, nil
}

// ParsePatient drafts a new patient card from an intake dictation.
func (s *Service) ParsePatient(ctx context.Context, req domain.Request) (*domain.PatientDraft, error) {
	if err := ValidateAudio(req.Clip, s.cfg.MaxAudioBytes); err != nil {
		return nil, err
	}
	locale, rc := s.resolve(req)

	transcript, err := s.transcribe(ctx, req.Clip, locale)
	if err != nil {
		s.countFailure("patient", err)
		return nil, err
	}
	if transcript == "" {
		return &domain.PatientDraft{Warnings: []string{messages.Text(locale, messages.SpeechNotRecognized)}}, nil
	}

	ctx, end := s.stage(ctx, "parse_patient")
	draft, err := s.parser.ParsePatient(ctx, locale, prompts.UserContext{
		Transcript:      transcript,
		Mode:            domain.ModePatient,
		Today:           rc.Today,
		Timezone:        rc.Timezone,
		DefaultCurrency: s.cfg.DefaultCurrency,
	})
	end(err)
	if err != nil {
		s.countFailure("patient", err)
		return nil, err
	}
	if draft.Warnings == nil {
		draft.Warnings = []string{}
	}
	telemetry.VoiceCommandsTotal.WithLabelValues("patient", "parse_patient", "drafted").Inc()
	return &draft, nil
}

func (s *Service) understand(ctx context.Context, req domain.Request) (*understanding, error) {
	ctx, span := s.tracer.Start(ctx, "voice.pipeline", trace.WithAttributes(
		attribute.String("voice.mode", string(req.Mode)),
		attribute.String("voice.locale", string(req.Locale)),
	))
	defer span.End()

	if err := ValidateAudio(req.Clip, s.cfg.MaxAudioBytes); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	locale, rc := s.resolve(req)
	u := &understanding{rc: rc, mode: req.Mode}

	transcript, err := s.transcribe(ctx, req.Clip, locale)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	u.transcript = transcript
	if transcript == "" {
		u.silent = true
		u.intent = domain.NormalizedIntent{Action: domain.ActionUnknown, AmountSource: domain.AmountSourceNone}
		u.warnings = []string{messages.Text(locale, messages.SpeechNotRecognized)}
		return u, nil
	}

	pctx, end := s.stage(ctx, "parse")
	raw, warnings, err := s.parser.Parse(pctx, locale, prompts.UserContext{
		Transcript:      transcript,
		Mode:            req.Mode,
		Today:           rc.Today,
		Timezone:        rc.Timezone,
		DefaultCurrency: s.cfg.DefaultCurrency,
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
	})
	end(err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	intent, nw := s.normalizer.Normalize(raw, transcript, normalize.Context{
		Locale:          locale,
		Timezone:        rc.Timezone,
		Today:           rc.Today,
		Mode:            req.Mode,
		DefaultCurrency: s.cfg.DefaultCurrency,
	})
	warnings = append(warnings, nw...)

	// Guard first so that fields it discards earn no score.
	intent = scoring.Guard(intent)
	intent.Confidence = s.scorer.Score(intent.Fields, len(warnings))

	u.intent = intent
	u.warnings = warnings

	telemetry.VoiceConfidence.Observe(intent.Confidence)
	telemetry.VoiceWarningsTotal.Add(float64(len(warnings)))
	span.SetAttributes(
		attribute.String("voice.action", string(intent.Action)),
		attribute.Float64("voice.confidence", intent.Confidence),
		attribute.Int("voice.warnings", len(warnings)),
	)
	s.log.Info("Voice command understood",
		zap.String("doctor_id", rc.DoctorID),
		zap.String("mode", string(req.Mode)),
		zap.String("locale", string(locale)),
		zap.String("action", string(intent.Action)),
		zap.Float64("confidence", intent.Confidence),
		zap.Float64("model_confidence", intent.ModelConfidence),
		zap.Int("warnings", len(warnings)),
	)
	return u, nil
}

func (s *Service) transcribe(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error) {
	ctx, end := s.stage(ctx, "transcribe")
	text, err := s.transcriber.Transcribe(ctx, clip, locale)
	end(err)
	if err != nil {
		return "", domain.WrapError(domain.KindTranscription, "voice.transcribe", "speech-to-text failed", err)
	}
	return strings.TrimSpace(text), nil
}

// resolve fills locale, timezone and today from the request and defaults.
func (s *Service) resolve(req domain.Request) (domain.Locale, RouteContext) {
	locale := req.Locale
	if locale == "" {
		locale = domain.LocaleAuto
	}

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("Unknown timezone, using default", zap.String("timezone", tz), zap.Error(err))
		tz = s.cfg.DefaultTimezone
		if loc, err = time.LoadLocation(tz); err != nil {
			loc = time.UTC
		}
	}

	today := civil.DateOf(s.now().In(loc))
	if req.Today != nil {
		today = *req.Today
	}

	return locale, RouteContext{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		Locale:          locale,
		Timezone:        tz,
		Location:        loc,
		Today:           today,
		DefaultCurrency: s.cfg.DefaultCurrency,
	}
}

// stage opens a span and returns a closer that records latency and error.
func (s *Service) stage(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "voice."+name)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		telemetry.VoiceStageLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func (s *Service) countFailure(flow string, err error) {
	kind := "internal"
	var typed *domain.Error
	if errors.As(err, &typed) {
		kind = string(typed.Kind)
	}
	telemetry.VoiceCommandsTotal.WithLabelValues(flow, "", kind).Inc()
}

func (s *Service) publishApplied(rc RouteContext, mode domain.Mode, transcript string, intent domain.NormalizedIntent, res domain.ActionResult) {
	if s.mq == nil || !wrote(res.PerformedAction) {
		return
	}
	entry := domain.VoiceCommandLog{
		ID:              uuid.NewString(),
		DoctorID:        rc.DoctorID,
		PatientID:       rc.PatientID,
		Locale:          rc.Locale,
		Mode:            mode,
		Transcript:      transcript,
		Action:          intent.Action,
		PerformedAction: res.PerformedAction,
		Confidence:      intent.Confidence,
		CreatedAt:       s.now().UTC(),
	}
	if id, ok := res.Updated["id"].(string); ok {
		entry.RecordID = id
	}
	data, err := json.Marshal(entry)
	if err != nil {
		s.log.Error("Failed to encode voice event", zap.Error(err))
		return
	}
	if err := s.mq.Publish(s.cfg.EventSubject, data); err != nil {
		s.log.Warn("Failed to publish voice event", zap.String("subject", s.cfg.EventSubject), zap.Error(err))
	}
}

func (u *understanding) draft() *domain.Draft {
	warnings := u.warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &domain.Draft{
		Transcript: u.transcript,
		Structured: domain.StructuredFrom(u.intent.Fields),
		Warnings:   warnings,
	}
}

func wrote(p domain.PerformedAction) bool {
	switch p {
	case domain.PerformedNone, domain.PerformedUnknown, domain.PerformedError:
		return false
	}
	return true
}

// actionFailure is the short reason shown to the clinician.
func actionFailure(err error) string {
	var typed *domain.Error
	if errors.As(err, &typed) {
		if typed.Cause != nil && (errors.Is(typed.Cause, domain.ErrPatientNotFound) || errors.Is(typed.Cause, domain.ErrPatientAccessDenied)) {
			return typed.Cause.Error()
		}
		return typed.Message
	}
	return "internal error"
}
