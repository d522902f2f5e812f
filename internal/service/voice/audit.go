package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/queue"
	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/ports"
)

const auditWriteTimeout = 5 * time.Second

// AuditWorker persists applied-action events to the audit log.
type AuditWorker struct {
	mq      queue.MessageQueue
	repo    ports.AuditRepository
	subject string
	log     *zap.Logger
}

func NewAuditWorker(mq queue.MessageQueue, repo ports.AuditRepository, subject string, log *zap.Logger) *AuditWorker {
	if subject == "" {
		subject = SubjectActionApplied
	}
	return &AuditWorker{mq: mq, repo: repo, subject: subject, log: log}
}

func (w *AuditWorker) Start() error {
	if err := w.mq.Subscribe(w.subject, w.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", w.subject, err)
	}
	w.log.Info("Audit worker subscribed", zap.String("subject", w.subject))
	return nil
}

func (w *AuditWorker) handle(data []byte) error {
	var entry domain.VoiceCommandLog
	if err := json.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("invalid voice event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := w.repo.SaveVoiceCommandLog(ctx, &entry); err != nil {
		return fmt.Errorf("failed to save voice command log %s: %w", entry.ID, err)
	}
	return nil
}
