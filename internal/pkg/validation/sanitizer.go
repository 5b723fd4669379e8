package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/odds"
)

const (
	maxPrice = 1000
	// maxFieldLength caps free-text fields, counted in runes.
	maxFieldLength = 200
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Sanitizer cleans source records in place before validation.
type Sanitizer struct{}

// NewSanitizer creates a new sanitizer
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// SanitizeRecord sanitizes match record data
func (s *Sanitizer) SanitizeRecord(rec *models.MatchRecord) {
	if rec == nil {
		return
	}

	rec.HomeTeam = s.sanitizeTeamName(rec.HomeTeam)
	rec.AwayTeam = s.sanitizeTeamName(rec.AwayTeam)
	rec.League = s.sanitizeString(rec.League)
	rec.Country = s.sanitizeString(rec.Country)
	rec.TipLabel = s.sanitizeString(rec.TipLabel)
	rec.HomeForm = s.sanitizeForm(rec.HomeForm)
	rec.AwayForm = s.sanitizeForm(rec.AwayForm)

	for i := range rec.HeadToHead {
		rec.HeadToHead[i].HomeTeam = s.sanitizeTeamName(rec.HeadToHead[i].HomeTeam)
		rec.HeadToHead[i].AwayTeam = s.sanitizeTeamName(rec.HeadToHead[i].AwayTeam)
	}
	for i := range rec.Injuries {
		rec.Injuries[i].Team = s.sanitizeTeamName(rec.Injuries[i].Team)
		rec.Injuries[i].Player = s.sanitizeString(rec.Injuries[i].Player)
		rec.Injuries[i].Severity = strings.ToLower(strings.TrimSpace(rec.Injuries[i].Severity))
	}
	for i := range rec.Markets {
		s.SanitizeQuotes(&rec.Markets[i])
	}
}

// SanitizeQuotes standardizes the bookmaker name and zeroes unusable prices.
func (s *Sanitizer) SanitizeQuotes(q *models.BookmakerQuotes) {
	q.Bookmaker = s.sanitizeBookmaker(q.Bookmaker)
	for _, p := range []*float64{&q.Home, &q.Draw, &q.Away, &q.BTTSYes, &q.BTTSNo, &q.Over25, &q.Under25} {
		if !odds.ValidPrice(*p) || *p > maxPrice {
			*p = 0
		}
	}
}

// Helper methods for sanitization

func (s *Sanitizer) sanitizeString(str string) string {
	sanitized := strings.TrimSpace(str)
	sanitized = controlChars.ReplaceAllString(sanitized, "")
	if utf8.RuneCountInString(sanitized) > maxFieldLength {
		sanitized = string([]rune(sanitized)[:maxFieldLength])
	}
	return sanitized
}

func (s *Sanitizer) sanitizeTeamName(name string) string {
	sanitized := controlChars.ReplaceAllString(name, " ")
	sanitized = multiSpace.ReplaceAllString(strings.TrimSpace(sanitized), " ")
	return sanitized
}

func (s *Sanitizer) sanitizeForm(form []string) []string {
	if len(form) == 0 {
		return form
	}
	out := make([]string, 0, len(form))
	for _, r := range form {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Sanitizer) sanitizeBookmaker(bookmaker string) string {
	sanitized := strings.TrimSpace(bookmaker)

	// Map common variations to standard names
	bookmakerMap := map[string]string{
		"bet365":       "Bet365",
		"pinnacle":     "Pinnacle",
		"betfair":      "Betfair",
		"sbobet":       "SBOBET",
		"williamhill":  "WilliamHill",
		"william hill": "WilliamHill",
		"unibet":       "Unibet",
		"1xbet":        "1xBet",
	}
	if standard, exists := bookmakerMap[strings.ToLower(sanitized)]; exists {
		return standard
	}

	// If not in map, capitalize first letter of each word
	words := strings.Fields(sanitized)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}
	return strings.Join(words, " ")
}
