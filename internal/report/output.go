package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/report-engine/internal/translate"
	"github.com/pdiddy/report-engine/pkg/types"
)

// SafeTitle reduces a paper title to a filesystem-safe name: letters,
// digits, dashes, and underscores survive, spaces become underscores, and
// the result is capped at 80 characters.
func SafeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	s = strings.ReplaceAll(s, " ", "_")

	runes := []rune(s)
	if len(runes) > 80 {
		s = string(runes[:80])
	}
	return s
}

// Filename builds the report filename for a paper, language, and mode, e.g.
// "Attention_Is_All_You_Need_EN_simple.pdf".
func Filename(title string, lang translate.Language, mode types.ReportMode) string {
	modeCode := "simple"
	if mode == types.ModeDetailed {
		modeCode = "detailed"
	}
	return fmt.Sprintf("%s_%s_%s.pdf", SafeTitle(title), lang.Code(), modeCode)
}

// WeeklyDir returns the report directory for the given time: the calendar
// year and zero-padded ISO week number under base. Around new year the two
// can disagree; the calendar year wins, so late-December reports land in
// the closing year's folder even when they fall in ISO week 1.
func WeeklyDir(base string, now time.Time) string {
	_, week := now.ISOWeek()
	return filepath.Join(base, fmt.Sprintf("%d", now.Year()), fmt.Sprintf("week_%02d", week))
}
