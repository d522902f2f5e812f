package voice

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// DefaultMaxAudioBytes is the pipeline's own ceiling; the HTTP layer may
// enforce a different one.
const DefaultMaxAudioBytes = 10 << 20

var acceptedMIMETypes = map[string]bool{
	"audio/webm":  true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
	"audio/ogg":   true,
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/x-m4a": true,
}

var acceptedExtensions = map[string]bool{
	".webm": true,
	".wav":  true,
	".ogg":  true,
	".mp3":  true,
	".m4a":  true,
}

// ValidateAudio rejects empty, oversized and unsupported clips.
func ValidateAudio(clip domain.AudioClip, maxBytes int) error {
	const op = "voice.validate_audio"
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAudioBytes
	}

	if clip.Size() == 0 {
		return domain.NewError(domain.KindAudioValidation, op, "audio file is empty")
	}
	if clip.Size() > maxBytes {
		return &domain.Error{
			Kind:    domain.KindAudioValidation,
			Op:      op,
			Message: fmt.Sprintf("audio file exceeds %d MB", maxBytes>>20),
			Cause:   domain.ErrAudioTooLarge,
		}
	}
	if !acceptedFormat(clip) {
		return domain.NewError(domain.KindAudioValidation, op,
			fmt.Sprintf("unsupported audio format %q (%s); use webm, wav, ogg, mp3 or m4a", clip.ContentType, clip.Filename))
	}
	return nil
}

func acceptedFormat(clip domain.AudioClip) bool {
	if mt, _, err := mime.ParseMediaType(clip.ContentType); err == nil && acceptedMIMETypes[strings.ToLower(mt)] {
		return true
	}
	return acceptedExtensions[strings.ToLower(filepath.Ext(clip.Filename))]
}
