package openai

import (
	"bytes"
	"context"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// Transcribe sends the clip to Whisper. Locale auto sends no language hint.
func (c *Client) Transcribe(ctx context.Context, clip domain.AudioClip, locale domain.Locale) (string, error) {
	const op = "openai.transcribe"
	if err := c.configured(op); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.STTTimeout)
	defer cancel()

	req := openai.AudioRequest{
		Model:    c.cfg.STTModel,
		FilePath: uploadName(clip),
		Reader:   bytes.NewReader(clip.Data),
		Language: languageHint(locale),
		Format:   openai.AudioResponseFormatJSON,
	}
	resp, err := c.api.CreateTranscription(ctx, req)
	if err != nil {
		return "", c.providerError(domain.KindTranscription, op, "whisper", err)
	}
	return resp.Text, nil
}

// languageHint maps a locale to the ISO-639-1 code Whisper expects.
func languageHint(locale domain.Locale) string {
	switch locale {
	case domain.LocaleArmenian, domain.LocaleRussian, domain.LocaleEnglish:
		return string(locale)
	}
	return ""
}

// uploadName keeps the extension Whisper uses to sniff the container.
func uploadName(clip domain.AudioClip) string {
	if ext := filepath.Ext(clip.Filename); ext != "" {
		return "audio" + ext
	}
	return "audio.webm"
}
