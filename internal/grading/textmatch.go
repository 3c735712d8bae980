package grading

import (
	"strings"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

// BlankMatches reports whether a submitted string fills a blank. Surrounding
// whitespace is ignored; letter case only matters when the blank is case
// sensitive.
func BlankMatches(b quiz.Blank, submitted string) bool {
	got := strings.TrimSpace(submitted)
	for _, want := range b.PossibleAnswers {
		want = strings.TrimSpace(want)
		if b.CaseSensitive {
			if got == want {
				return true
			}
			continue
		}
		if strings.EqualFold(got, want) {
			return true
		}
	}
	return false
}
