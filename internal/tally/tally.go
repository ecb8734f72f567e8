package tally

import (
	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
)

// Options are the four Ask The Audience choices.
var Options = []string{"A", "B", "C", "D"}

// ValidOption reports whether letter is one of the four choices.
func ValidOption(letter string) bool {
	for _, o := range Options {
		if o == letter {
			return true
		}
	}
	return false
}

// Compute returns the vote distribution across options A-D. It is the
// single tally function: called after every accepted vote for live
// updates and again at round end for the final result. With zero votes
// every percentage is zero.
func Compute(questionID string, subs []models.Submission) *models.ATAResult {
	counts := make(map[string]int, len(Options))
	total := 0
	for _, s := range subs {
		if !ValidOption(s.OptionLetter) {
			continue
		}
		counts[s.OptionLetter]++
		total++
	}

	result := &models.ATAResult{
		QuestionID: questionID,
		Counts:     make([]models.OptionCount, len(Options)),
		TotalVotes: total,
	}
	for i, opt := range Options {
		oc := models.OptionCount{Option: opt, Votes: counts[opt]}
		if total > 0 {
			oc.Percent = float64(oc.Votes) / float64(total) * 100
		}
		result.Counts[i] = oc
	}
	return result
}
