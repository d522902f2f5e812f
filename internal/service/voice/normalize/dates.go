package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
)

// Window a resolved date must fall in, relative to today.
const (
	MaxPastDays   = 30
	MaxFutureDays = 365
	maxSpanDays   = 3650
)

var numericDateRe = regexp.MustCompile(`(?:^|\D)(\d{1,2})[./](\d{1,2})(?:[./](\d{2,4}))?(?:\D|$)`)

// ParseDate resolves the first date reference in s against today. It never
// guesses: false means s names no date.
func ParseDate(s string, today civil.Date, locale domain.Locale) (civil.Date, bool) {
	t := newText(s)
	if len(t.tokens) == 0 {
		return civil.Date{}, false
	}

	order := localeOrder(locale)
	for _, l := range order {
		for _, off := range dayOffsets {
			if t.hasIn(off.concept, l) {
				return today.AddDays(off.days), true
			}
		}
	}

	for _, l := range order {
		for wd, c := range weekdays {
			if t.hasIn(c, l) {
				return nextWeekday(today, time.Weekday(wd), t.has(ConceptNext)), true
			}
		}
	}

	if d, ok := t.span(today); ok {
		return d, true
	}
	if d, ok := t.monthDay(today); ok {
		return d, true
	}
	return numericDate(t.folded, today)
}

// nextWeekday is the first wd strictly after today. With a "next" qualifier a
// result still inside today's week moves on by seven days.
func nextWeekday(today civil.Date, wd time.Weekday, next bool) civil.Date {
	ahead := (int(wd) - int(weekday(today)) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	d := today.AddDays(ahead)
	if next && sameISOWeek(d, today) {
		d = d.AddDays(7)
	}
	return d
}

func weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func sameISOWeek(a, b civil.Date) bool {
	ay, aw := a.In(time.UTC).ISOWeek()
	by, bw := b.In(time.UTC).ISOWeek()
	return ay == by && aw == bw
}

// span resolves "in N days/weeks" in any of its localized shapes:
// "через 3 дня", "mech 3 or", "3 օրից", "3 days later", "через неделю".
func (t *text) span(today civil.Date) (civil.Date, bool) {
	toks := t.tokens
	for i, tok := range toks {
		if tok.digit {
			if i+1 >= len(toks) {
				continue
			}
			n, err := strconv.Atoi(tok.text)
			if err != nil || n > maxSpanDays {
				continue
			}
			unit := toks[i+1]
			prefixed := i > 0 && tokenIs(toks[i-1], ConceptInPrefix)
			suffixed := i+2 < len(toks) && tokenIs(toks[i+2], ConceptInSuffix)
			switch {
			case tokenIs(unit, ConceptDaysFrom):
				return today.AddDays(n), true
			case tokenIs(unit, ConceptWeeksFrom):
				return today.AddDays(7 * n), true
			case (prefixed || suffixed) && tokenIs(unit, ConceptDayUnit):
				return today.AddDays(n), true
			case (prefixed || suffixed) && tokenIs(unit, ConceptWeekUnit):
				return today.AddDays(7 * n), true
			}
			continue
		}

		// "через неделю", "in a week": a prefix followed by a bare unit.
		if !tokenIs(tok, ConceptInPrefix) || i+1 >= len(toks) {
			continue
		}
		unit := toks[i+1]
		if isArticle(unit) && i+2 < len(toks) {
			unit = toks[i+2]
		}
		switch {
		case tokenIs(unit, ConceptWeekUnit):
			return today.AddDays(7), true
		case tokenIs(unit, ConceptDayUnit):
			return today.AddDays(1), true
		}
	}
	return civil.Date{}, false
}

func isArticle(tok token) bool {
	switch tok.text {
	case "a", "one", "одну", "один", "мек", "mek":
		return true
	}
	return false
}

// monthDay resolves "5 hunvar", "января 12", "march 3".
func (t *text) monthDay(today civil.Date) (civil.Date, bool) {
	toks := t.tokens
	for i, tok := range toks {
		if tok.digit {
			continue
		}
		month := 0
		for m, c := range months {
			if tokenIs(tok, c) {
				month = m + 1
				break
			}
		}
		if month == 0 {
			continue
		}
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(toks) || !toks[j].digit || len(toks[j].text) > 2 {
				continue
			}
			day, _ := strconv.Atoi(toks[j].text)
			if d, ok := rollForward(today, time.Month(month), day); ok {
				return d, true
			}
		}
	}
	return civil.Date{}, false
}

// numericDate resolves the first "DD.MM" or "DD.MM.YYYY" that is not a
// decimal amount such as "1.5 тысячи" or "12.5 hazar".
func numericDate(folded string, today civil.Date) (civil.Date, bool) {
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(folded, -1) {
		end := m[5]
		if m[6] >= 0 {
			end = m[7]
		}
		if m[6] < 0 && moneyFollows(folded[end:]) {
			continue
		}
		day, _ := strconv.Atoi(folded[m[2]:m[3]])
		month, _ := strconv.Atoi(folded[m[4]:m[5]])
		if m[6] < 0 {
			if d, ok := rollForward(today, time.Month(month), day); ok {
				return d, true
			}
			continue
		}
		yearText := folded[m[6]:m[7]]
		year, _ := strconv.Atoi(yearText)
		switch len(yearText) {
		case 2:
			year += 2000
		case 3:
			continue
		}
		if d := (civil.Date{Year: year, Month: time.Month(month), Day: day}); d.IsValid() {
			return d, true
		}
	}
	return civil.Date{}, false
}

var moneyConcepts = []Concept{
	ConceptHundred, ConceptThousand, ConceptMillion,
	ConceptAMD, ConceptRUB, ConceptUSD, ConceptEUR,
}

// moneyFollows reports whether rest opens with a multiplier or a currency.
func moneyFollows(rest string) bool {
	trimmed := strings.TrimSpace(rest)
	for _, c := range moneyConcepts {
		for _, l := range allLocal {
			for _, form := range lexicon[l][c] {
				if !hasLetter(form) && strings.HasPrefix(trimmed, form) {
					return true
				}
			}
		}
	}
	toks := tokenize(rest)
	if len(toks) == 0 || toks[0].digit {
		return false
	}
	for _, c := range moneyConcepts {
		if tokenIs(toks[0], c) {
			return true
		}
	}
	return false
}

// rollForward places day/month in today's year, or the next one if that
// date has already passed.
func rollForward(today civil.Date, month time.Month, day int) (civil.Date, bool) {
	d := civil.Date{Year: today.Year, Month: month, Day: day}
	if !d.IsValid() {
		return civil.Date{}, false
	}
	if d.Before(today) {
		d.Year++
		if !d.IsValid() {
			return civil.Date{}, false
		}
	}
	return d, true
}

// InWindow reports whether d lies within [today-30d, today+365d].
func InWindow(d, today civil.Date) bool {
	return !d.Before(today.AddDays(-MaxPastDays)) && !d.After(today.AddDays(MaxFutureDays))
}
