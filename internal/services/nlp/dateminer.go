package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	// "15 January 2008", "15th of January, 2008"
	dayMonthYearPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?(?:\s+of)?\s+(` + monthPattern + `)[,.]?\s+(\d{4})\b`)

	// "January 15, 2008", "Jan 15 2008"
	monthDayYearPattern = regexp.MustCompile(`(?i)\b(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?[,.]?\s+(\d{4})\b`)

	// "January 2008" with no day
	monthYearPattern = regexp.MustCompile(`(?i)\b(` + monthPattern + `)[,.]?\s+(\d{4})\b`)

	// "01/02/2008", "2008-02-01", "01.02.08"
	numericPattern = regexp.MustCompile(`\b(\d{1,4})[/.-](\d{1,2})[/.-](\d{1,4})\b`)

	// preposition immediately before the match
	prepPattern = regexp.MustCompile(`(?i)\b(on|at|in|by|since|from|until|before|after)\s*$`)
)

// Miner extracts date contexts from an HTML tree. Textual dates parse one
// way and become certain; numeric dates whose fields could swap yield one
// candidate per plausible reading.
type Miner struct{}

// NewMiner returns a date miner.
func NewMiner() *Miner {
	return &Miner{}
}

// Version identifies the miner for software provenance.
func (m *Miner) Version() string {
	return "sentropy-dates/" + common.GetVersion()
}

// Mine scans the rendered text of the document and returns date contexts
// keyed by matched text and position.
func (m *Miner) Mine(doc *goquery.Document) map[string]interfaces.DateContext {
	text := doc.Text()
	contexts := make(map[string]interfaces.DateContext)

	claimed := make([]bool, len(text))
	record := func(start, end int, candidates []interfaces.DateCandidate) {
		if len(candidates) == 0 {
			return
		}
		for i := start; i < end; i++ {
			if claimed[i] {
				return
			}
		}
		for i := start; i < end; i++ {
			claimed[i] = true
		}

		matched := text[start:end]
		ctx := interfaces.DateContext{
			Dates:    candidates,
			Text:     matched,
			Prep:     precedingPrep(text, start),
			Position: start,
		}
		contexts[fmt.Sprintf("%s@%d", matched, start)] = ctx
	}

	for _, loc := range dayMonthYearPattern.FindAllStringSubmatchIndex(text, -1) {
		day := atoi(text[loc[2]:loc[3]])
		month := monthsByName[strings.ToLower(text[loc[4]:loc[5]])]
		year := atoi(text[loc[6]:loc[7]])
		if d, ok := makeDate(year, month, day); ok {
			record(loc[0], loc[1], []interfaces.DateCandidate{{Date: d, DayFirst: true}})
		}
	}

	for _, loc := range monthDayYearPattern.FindAllStringSubmatchIndex(text, -1) {
		month := monthsByName[strings.ToLower(text[loc[2]:loc[3]])]
		day := atoi(text[loc[4]:loc[5]])
		year := atoi(text[loc[6]:loc[7]])
		if d, ok := makeDate(year, month, day); ok {
			record(loc[0], loc[1], []interfaces.DateCandidate{{Date: d}})
		}
	}

	for _, loc := range monthYearPattern.FindAllStringSubmatchIndex(text, -1) {
		month := monthsByName[strings.ToLower(text[loc[2]:loc[3]])]
		year := atoi(text[loc[4]:loc[5]])
		if d, ok := makeDate(year, month, 1); ok {
			record(loc[0], loc[1], []interfaces.DateCandidate{{Date: d}})
		}
	}

	for _, loc := range numericPattern.FindAllStringSubmatchIndex(text, -1) {
		a := atoi(text[loc[2]:loc[3]])
		b := atoi(text[loc[4]:loc[5]])
		c := atoi(text[loc[6]:loc[7]])
		record(loc[0], loc[1], numericCandidates(a, b, c))
	}

	return contexts
}

// numericCandidates enumerates the plausible readings of a numeric
// a-b-c date. The middle field is always a month once the year's side is
// fixed, so ambiguity is day/month order plus year placement.
func numericCandidates(a, b, c int) []interfaces.DateCandidate {
	var candidates []interfaces.DateCandidate
	seen := make(map[time.Time]struct{})

	add := func(year int, month, day int, dayFirst, yearFirst bool) {
		d, ok := makeDate(normalizeYear(year), time.Month(month), day)
		if !ok {
			return
		}
		if _, dup := seen[d]; dup {
			return
		}
		seen[d] = struct{}{}
		candidates = append(candidates, interfaces.DateCandidate{
			Date:      d,
			DayFirst:  dayFirst,
			YearFirst: yearFirst,
		})
	}

	yearLooking := func(n int) bool { return n > 31 || n == 0 }

	if yearLooking(a) {
		// year-first: y-m-d and y-d-m
		add(a, b, c, false, true)
		add(a, c, b, true, true)
	} else if yearLooking(c) || (a <= 31 && b <= 31) {
		// year-last: d/m/y and m/d/y
		add(c, b, a, true, false)
		add(c, a, b, false, false)
	}

	return candidates
}

// normalizeYear widens two-digit years. 69 and below land in the 2000s.
func normalizeYear(y int) int {
	if y >= 100 {
		return y
	}
	if y <= 69 {
		return 2000 + y
	}
	return 1900 + y
}

func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if year < 1000 || year > 2100 || month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Reject overflowed days like Feb 30.
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

func precedingPrep(text string, start int) string {
	windowStart := start - 16
	if windowStart < 0 {
		windowStart = 0
	}
	match := prepPattern.FindString(strings.TrimRight(text[windowStart:start], " \t\n"))
	return strings.ToLower(strings.TrimSpace(match))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
