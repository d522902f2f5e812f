// Package prompts is the per-locale instruction registry for the language
// model and the builder of the user turn.
package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"cloud.google.com/go/civil"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

var (
	systemPrompts = map[domain.Locale]string{
		domain.LocaleArmenian: armenianInstructions + outputContract,
		domain.LocaleRussian:  russianInstructions + outputContract,
		domain.LocaleEnglish:  englishInstructions + outputContract,
	}

	userMessage = template.Must(template.New("user_message").Parse(userMessageTemplate))
)

// System returns the instructions for locale; auto and unknown locales get
// the Russian block, which covers mixed speech.
func System(locale domain.Locale) string {
	if p, ok := systemPrompts[locale]; ok {
		return p
	}
	return systemPrompts[domain.LocaleRussian]
}

// PatientSystem returns the instructions for patient intake dictation.
func PatientSystem() string {
	return patientInstructions
}

// UserContext is substituted into the user turn.
type UserContext struct {
	Transcript      string
	Mode            domain.Mode
	Today           civil.Date
	Timezone        string
	DefaultCurrency domain.Currency
	PatientID       string
	PatientName     string
}

// UserMessage renders the user turn with date anchors and patient hints.
func UserMessage(uc UserContext) (string, error) {
	data := struct {
		UserContext
		Tomorrow civil.Date
		DayAfter civil.Date
	}{
		UserContext: uc,
		Tomorrow:    uc.Today.AddDays(1),
		DayAfter:    uc.Today.AddDays(2),
	}
	if data.DefaultCurrency == "" {
		data.DefaultCurrency = domain.CurrencyAMD
	}

	var buf bytes.Buffer
	if err := userMessage.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render user message: %w", err)
	}
	return buf.String(), nil
}
