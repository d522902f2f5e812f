// Package messages holds the user-facing warning texts of the voice pipeline.
package messages

import (
	"fmt"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

type ID string

const (
	SpeechNotRecognized    ID = "speech_not_recognized"
	CurrencyConflict       ID = "currency_conflict"
	CurrencyRUBInArmenian  ID = "currency_rub_in_armenian"
	CurrencyCorrected      ID = "currency_corrected"
	AmountFromTranscript   ID = "amount_from_transcript"
	DateOutOfRange         ID = "date_out_of_range"
	DateInvalid            ID = "date_invalid"
	LowConfidence          ID = "low_confidence"
	VisitDateDefaulted     ID = "visit_date_defaulted"
	NothingToUpdateVisit   ID = "nothing_to_update_visit"
	AmountMissing          ID = "amount_missing"
	AmountNotPositive      ID = "amount_not_positive"
	NothingToUpdatePatient ID = "nothing_to_update_patient"
	InvalidPatientStatus   ID = "invalid_patient_status"
	NoteEmpty              ID = "note_empty"
	NoMedications          ID = "no_medications"
	CommandNotRecognized   ID = "command_not_recognized"
	PatientRequired        ID = "patient_required"
	ActionFailed           ID = "action_failed"
	DiagnosisLabel         ID = "diagnosis_label"
	MedicationsLabel       ID = "medications_label"
)

var catalogue = map[ID]map[domain.Locale]string{
	SpeechNotRecognized: {
		domain.LocaleRussian:  "Не удалось распознать речь. Попробуйте снова.",
		domain.LocaleArmenian: "Չհաջողվեց ճանաչել խոսքը։ Փորձեք կրկին։",
		domain.LocaleEnglish:  "Could not recognize speech. Please try again.",
	},
	CurrencyConflict: {
		domain.LocaleRussian:  "Найдены и драмы, и рубли; выбран AMD (частая ошибка распознавания)",
		domain.LocaleArmenian: "Հայտնաբերվել են և՛ դրամ, և՛ ռուբլի; ընտրվել է AMD",
		domain.LocaleEnglish:  "Detected both AMD and RUB tokens; using AMD (common transcription error)",
	},
	CurrencyRUBInArmenian: {
		domain.LocaleRussian:  "Рубли в армянской речи; выбран AMD, проверьте валюту",
		domain.LocaleArmenian: "Ռուբլի է հայտնաբերվել հայերեն խոսքում; ընտրվել է AMD, ստուգեք արժույթը",
		domain.LocaleEnglish:  "RUB detected in Armenian speech; using AMD, please verify",
	},
	CurrencyCorrected: {
		domain.LocaleRussian:  "Валюта исправлена с %s на %s",
		domain.LocaleArmenian: "Արժույթը ուղղվել է %s-ից %s",
		domain.LocaleEnglish:  "Currency corrected from %s to %s",
	},
	AmountFromTranscript: {
		domain.LocaleRussian:  "Сумма взята из текста: %d",
		domain.LocaleArmenian: "Գումարը վերցվել է տեքստից՝ %d",
		domain.LocaleEnglish:  "Extracted amount from transcript: %d",
	},
	DateOutOfRange: {
		domain.LocaleRussian:  "Дата %s вне допустимого диапазона и была удалена",
		domain.LocaleArmenian: "%s ամսաթիվը թույլատրելի միջակայքից դուրս է և հեռացվել է",
		domain.LocaleEnglish:  "Date %s is out of the allowed range and was cleared",
	},
	DateInvalid: {
		domain.LocaleRussian:  "Некорректная дата «%s» удалена",
		domain.LocaleArmenian: "Սխալ ամսաթիվ «%s», հեռացվել է",
		domain.LocaleEnglish:  "Invalid date %q was cleared",
	},
	LowConfidence: {
		domain.LocaleRussian:  "Низкая уверенность распознавания (%.0f%%). Проверьте данные.",
		domain.LocaleArmenian: "Ճանաչման ցածր վստահություն (%.0f%%)։ Ստուգեք տվյալները։",
		domain.LocaleEnglish:  "Low recognition confidence (%.0f%%). Please check the data.",
	},
	VisitDateDefaulted: {
		domain.LocaleRussian:  "Дата визита не указана, установлено сегодня",
		domain.LocaleArmenian: "Այցի ամսաթիվը նշված չէ, դրվել է այսօր",
		domain.LocaleEnglish:  "Visit date not given, set to today",
	},
	NothingToUpdateVisit: {
		domain.LocaleRussian:  "Нет данных для обновления визита",
		domain.LocaleArmenian: "Այցը թարմացնելու տվյալներ չկան",
		domain.LocaleEnglish:  "Nothing to update on the visit",
	},
	AmountMissing: {
		domain.LocaleRussian:  "Сумма оплаты не указана",
		domain.LocaleArmenian: "Վճարման գումարը նշված չէ",
		domain.LocaleEnglish:  "Payment amount not given",
	},
	AmountNotPositive: {
		domain.LocaleRussian:  "Сумма должна быть положительной",
		domain.LocaleArmenian: "Գումարը պետք է լինի դրական",
		domain.LocaleEnglish:  "Amount must be positive",
	},
	NothingToUpdatePatient: {
		domain.LocaleRussian:  "Нет данных для обновления пациента",
		domain.LocaleArmenian: "Պացիենտին թարմացնելու տվյալներ չկան",
		domain.LocaleEnglish:  "Nothing to update on the patient",
	},
	InvalidPatientStatus: {
		domain.LocaleRussian:  "Неизвестный статус пациента «%s» пропущен",
		domain.LocaleArmenian: "Պացիենտի անհայտ կարգավիճակ «%s», բաց է թողնվել",
		domain.LocaleEnglish:  "Unknown patient status %q was skipped",
	},
	NoteEmpty: {
		domain.LocaleRussian:  "Текст заметки пуст",
		domain.LocaleArmenian: "Նշումը դատարկ է",
		domain.LocaleEnglish:  "Note text is empty",
	},
	NoMedications: {
		domain.LocaleRussian:  "Не указано ни одного препарата",
		domain.LocaleArmenian: "Դեղամիջոց նշված չէ",
		domain.LocaleEnglish:  "No medication was named",
	},
	CommandNotRecognized: {
		domain.LocaleRussian:  "Команда не распознана. Попробуйте сформулировать иначе.",
		domain.LocaleArmenian: "Հրամանը չի ճանաչվել։ Փորձեք ձևակերպել այլ կերպ։",
		domain.LocaleEnglish:  "Command not recognized. Try phrasing it differently.",
	},
	PatientRequired: {
		domain.LocaleRussian:  "Не выбран пациент",
		domain.LocaleArmenian: "Պացիենտը ընտրված չէ",
		domain.LocaleEnglish:  "No patient selected",
	},
	ActionFailed: {
		domain.LocaleRussian:  "Не удалось выполнить действие: %s",
		domain.LocaleArmenian: "Չհաջողվեց կատարել գործողությունը՝ %s",
		domain.LocaleEnglish:  "Could not apply the action: %s",
	},
	DiagnosisLabel: {
		domain.LocaleRussian:  "Диагноз: %s",
		domain.LocaleArmenian: "Ախտորոշում՝ %s",
		domain.LocaleEnglish:  "Diagnosis: %s",
	},
	MedicationsLabel: {
		domain.LocaleRussian:  "Препараты: %s",
		domain.LocaleArmenian: "Դեղամիջոցներ՝ %s",
		domain.LocaleEnglish:  "Medications: %s",
	},
}

// Fallback is used when a locale has no text of its own, including auto.
const Fallback = domain.LocaleRussian

// Text renders message id for locale with fmt-style args.
func Text(locale domain.Locale, id ID, args ...any) string {
	texts, ok := catalogue[id]
	if !ok {
		return string(id)
	}
	format, ok := texts[locale]
	if !ok {
		format = texts[Fallback]
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
