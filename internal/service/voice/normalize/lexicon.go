package normalize

import "github.com/smilecrm/smilecrm-voice/internal/domain"

// Concept is a meaning several surface forms share.
type Concept string

const (
	ConceptAMD Concept = "currency.amd"
	ConceptRUB Concept = "currency.rub"
	ConceptUSD Concept = "currency.usd"
	ConceptEUR Concept = "currency.eur"

	ConceptHundred  Concept = "multiplier.hundred"
	ConceptThousand Concept = "multiplier.thousand"
	ConceptMillion  Concept = "multiplier.million"

	ConceptToday    Concept = "day.today"
	ConceptTomorrow Concept = "day.tomorrow"
	ConceptDayAfter Concept = "day.after_tomorrow"

	ConceptMonday    Concept = "weekday.monday"
	ConceptTuesday   Concept = "weekday.tuesday"
	ConceptWednesday Concept = "weekday.wednesday"
	ConceptThursday  Concept = "weekday.thursday"
	ConceptFriday    Concept = "weekday.friday"
	ConceptSaturday  Concept = "weekday.saturday"
	ConceptSunday    Concept = "weekday.sunday"

	ConceptNext Concept = "qualifier.next"

	// "in N days" building blocks: a prefix before the number, a suffix after
	// the unit, or a unit form that already means "from now".
	ConceptInPrefix  Concept = "span.prefix"
	ConceptInSuffix  Concept = "span.suffix"
	ConceptDayUnit   Concept = "span.day"
	ConceptWeekUnit  Concept = "span.week"
	ConceptDaysFrom  Concept = "span.days_from"
	ConceptWeeksFrom Concept = "span.weeks_from"

	ConceptJanuary   Concept = "month.01"
	ConceptFebruary  Concept = "month.02"
	ConceptMarch     Concept = "month.03"
	ConceptApril     Concept = "month.04"
	ConceptMay       Concept = "month.05"
	ConceptJune      Concept = "month.06"
	ConceptJuly      Concept = "month.07"
	ConceptAugust    Concept = "month.08"
	ConceptSeptember Concept = "month.09"
	ConceptOctober   Concept = "month.10"
	ConceptNovember  Concept = "month.11"
	ConceptDecember  Concept = "month.12"
)

// Surface forms per locale. A trailing "*" marks a stem matched as a token
// prefix; forms with a space are phrases; forms without letters are matched
// anywhere in the text.
var lexicon = map[domain.Locale]map[Concept][]string{
	domain.LocaleArmenian: {
		ConceptAMD: {"դրամ*", "֏", "dram*", "drm", "amd"},
		ConceptRUB: {"ռուբլի*", "rubli"},
		ConceptUSD: {"դոլար*", "դոլլար*", "dolar*"},
		ConceptEUR: {"եվրո*", "evro"},

		ConceptHundred:  {"հարյուր*", "haryur*"},
		ConceptThousand: {"հազար*", "հզր", "hazar*", "hzr"},
		ConceptMillion:  {"միլիոն*", "milion*", "million*"},

		ConceptToday:    {"այսօր", "aysor", "aiso", "aisor"},
		ConceptTomorrow: {"վաղը", "վաղ", "vaghe", "vagh", "vaghy", "vaxy", "vakhe"},
		ConceptDayAfter: {"վաղը չէ մյուս օրը", "verevaghy", "mekelor", "mek el or"},

		ConceptMonday:    {"երկուշաբթի*", "yerkushabti", "yerkushapti", "erkushabti", "erkushapti"},
		ConceptTuesday:   {"երեքշաբթի*", "yerekshabti", "yerekshapti", "erekshabti", "erekshapti"},
		ConceptWednesday: {"չորեքշաբթի*", "choreqshabti", "choreqshapti", "chorekshabti", "chorekshapti"},
		ConceptThursday:  {"հինգշաբթի*", "hingshabti", "hingshapti"},
		ConceptFriday:    {"ուրբաթ", "urbat", "urbath", "erbat"},
		ConceptSaturday:  {"շաբաթ", "shabat", "shabath"},
		ConceptSunday:    {"կիրակի", "kiraki"},

		ConceptNext: {"հաջորդ*", "hajord*", "hachord*"},

		ConceptInPrefix:  {"mech", "մեջ"},
		ConceptInSuffix:  {"հետո", "heto"},
		ConceptDayUnit:   {"օր", "օրվա", "or", "orov", "ori"},
		ConceptWeekUnit:  {"շաբաթվա", "shabatva"},
		ConceptDaysFrom:  {"օրից", "orits", "oric", "orich"},
		ConceptWeeksFrom: {"շաբաթից", "shabatits", "shabatic"},

		ConceptJanuary:   {"հունվար*", "hunvar*"},
		ConceptFebruary:  {"փետրվար*", "petrvar*", "petrar*", "februari"},
		ConceptMarch:     {"մարտ*", "mart", "marti"},
		ConceptApril:     {"ապրիլ*", "april", "aprili"},
		ConceptMay:       {"մայիս*", "mayis*"},
		ConceptJune:      {"հունիս*", "hunis*"},
		ConceptJuly:      {"հուլիս*", "hulis*"},
		ConceptAugust:    {"օգոստոս*", "ogostos*"},
		ConceptSeptember: {"սեպտեմբեր*", "septemberi"},
		ConceptOctober:   {"հոկտեմբեր*", "hoktember*"},
		ConceptNovember:  {"նոյեմբեր*", "noyember*"},
		ConceptDecember:  {"դեկտեմբեր*", "dektember*"},
	},
	domain.LocaleRussian: {
		ConceptAMD: {"драм*", "dramov"},
		ConceptRUB: {"рубл*", "руб", "₽", "rubl*", "rubley", "rub"},
		ConceptUSD: {"доллар*", "бакс*", "dollarov"},
		ConceptEUR: {"евро", "evro"},

		ConceptHundred:  {"сотен", "сотни", "сот"},
		ConceptThousand: {"тысяч*", "тыс", "тыщ*", "tysyach*", "tisyach*", "tys"},
		ConceptMillion:  {"миллион*", "млн", "million*", "mln"},

		ConceptToday:    {"сегодня", "segodnya", "sevodnya", "segodnia"},
		ConceptTomorrow: {"завтра", "zavtra"},
		ConceptDayAfter: {"послезавтра", "poslezavtra"},

		ConceptMonday:    {"понедельник*", "ponedelnik*"},
		ConceptTuesday:   {"вторник*", "vtornik*"},
		ConceptWednesday: {"среда", "среду", "среды", "sreda", "sredu"},
		ConceptThursday:  {"четверг*", "chetverg*"},
		ConceptFriday:    {"пятниц*", "pyatnic*", "pyatnits*"},
		ConceptSaturday:  {"суббот*", "subbot*"},
		ConceptSunday:    {"воскресень*", "воскресенье", "voskresen*"},

		ConceptNext: {"следующ*", "sleduyush*", "sleduyusch*", "sleduyushch*"},

		ConceptInPrefix:  {"через", "cherez"},
		ConceptInSuffix:  {"спустя"},
		ConceptDayUnit:   {"день", "дня", "дней", "суток", "den", "dnya", "dney", "dnei"},
		ConceptWeekUnit:  {"недел*", "nedel*"},
		ConceptDaysFrom:  {},
		ConceptWeeksFrom: {},

		ConceptJanuary:   {"январ*", "yanvar*"},
		ConceptFebruary:  {"феврал*", "fevral*"},
		ConceptMarch:     {"март*", "marta"},
		ConceptApril:     {"апрел*", "aprel*"},
		ConceptMay:       {"май", "мая", "maya"},
		ConceptJune:      {"июн*", "iyun*"},
		ConceptJuly:      {"июл*", "iyul*"},
		ConceptAugust:    {"август*", "avgust*"},
		ConceptSeptember: {"сентябр*", "sentyabr*"},
		ConceptOctober:   {"октябр*", "oktyabr*"},
		ConceptNovember:  {"ноябр*", "noyabr*"},
		ConceptDecember:  {"декабр*", "dekabr*"},
	},
	domain.LocaleEnglish: {
		ConceptAMD: {"dram*", "amd"},
		ConceptRUB: {"ruble*", "rouble*", "rub"},
		ConceptUSD: {"dollar*", "usd", "$", "bucks"},
		ConceptEUR: {"euro*", "eur", "€"},

		ConceptHundred:  {"hundred*"},
		ConceptThousand: {"thousand*", "k", "grand"},
		ConceptMillion:  {"million*", "mil", "mln", "m"},

		ConceptToday:    {"today", "tonight"},
		ConceptTomorrow: {"tomorrow"},
		ConceptDayAfter: {"day after tomorrow"},

		ConceptMonday:    {"monday"},
		ConceptTuesday:   {"tuesday"},
		ConceptWednesday: {"wednesday"},
		ConceptThursday:  {"thursday"},
		ConceptFriday:    {"friday"},
		ConceptSaturday:  {"saturday"},
		ConceptSunday:    {"sunday"},

		ConceptNext: {"next"},

		ConceptInPrefix:  {"in", "through", "after"},
		ConceptInSuffix:  {"later"},
		ConceptDayUnit:   {"day", "days"},
		ConceptWeekUnit:  {"week", "weeks"},
		ConceptDaysFrom:  {},
		ConceptWeeksFrom: {},

		ConceptJanuary:   {"january", "jan"},
		ConceptFebruary:  {"february", "feb"},
		ConceptMarch:     {"march", "mar"},
		ConceptApril:     {"april", "apr"},
		ConceptMay:       {"may"},
		ConceptJune:      {"june", "jun"},
		ConceptJuly:      {"july", "jul"},
		ConceptAugust:    {"august", "aug"},
		ConceptSeptember: {"september", "sept", "sep"},
		ConceptOctober:   {"october", "oct"},
		ConceptNovember:  {"november", "nov"},
		ConceptDecember:  {"december", "dec"},
	},
}

var (
	currencyConcepts = []Concept{ConceptAMD, ConceptRUB, ConceptUSD, ConceptEUR}

	multipliers = []struct {
		concept Concept
		factor  float64
	}{
		{ConceptMillion, 1_000_000},
		{ConceptThousand, 1_000},
		{ConceptHundred, 100},
	}

	dayOffsets = []struct {
		concept Concept
		days    int
	}{
		{ConceptDayAfter, 2},
		{ConceptTomorrow, 1},
		{ConceptToday, 0},
	}

	weekdays = []Concept{
		ConceptSunday, ConceptMonday, ConceptTuesday, ConceptWednesday,
		ConceptThursday, ConceptFriday, ConceptSaturday,
	}

	months = []Concept{
		ConceptJanuary, ConceptFebruary, ConceptMarch, ConceptApril,
		ConceptMay, ConceptJune, ConceptJuly, ConceptAugust,
		ConceptSeptember, ConceptOctober, ConceptNovember, ConceptDecember,
	}
)

// localeOrder lists the locales whose forms are tried, active locale first.
func localeOrder(active domain.Locale) []domain.Locale {
	switch active {
	case domain.LocaleArmenian:
		return []domain.Locale{domain.LocaleArmenian, domain.LocaleRussian, domain.LocaleEnglish}
	case domain.LocaleEnglish:
		return []domain.Locale{domain.LocaleEnglish, domain.LocaleRussian, domain.LocaleArmenian}
	}
	return []domain.Locale{domain.LocaleRussian, domain.LocaleArmenian, domain.LocaleEnglish}
}
