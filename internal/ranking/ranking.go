package ranking

import (
	"sort"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
)

type scored struct {
	entry models.RankingEntry
	seq   int64
}

// Compute builds the Fastest Finger First leaderboard from the raw
// submissions of one question. Order: correct before incorrect, then
// ascending elapsed time since round start, then ledger acceptance
// order. The winner is the rank-1 entry only when it is correct; with
// no correct submissions there is no winner.
//
// Elapsed time is submittedAt minus the server-side round start. No
// per-participant latency compensation is applied.
func Compute(questionID string, correctOrder []int, roundStart time.Time, subs []models.Submission, names map[string]string) *models.FFFResult {
	rows := make([]scored, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, scored{
			entry: models.RankingEntry{
				ParticipantID: s.ParticipantID,
				DisplayName:   names[s.ParticipantID],
				Correct:       isCorrect(s.Ordering, correctOrder),
				ElapsedMs:     s.SubmittedAt.Sub(roundStart).Milliseconds(),
			},
			seq: s.Seq,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].entry.Correct != rows[j].entry.Correct {
			return rows[i].entry.Correct
		}
		if rows[i].entry.ElapsedMs != rows[j].entry.ElapsedMs {
			return rows[i].entry.ElapsedMs < rows[j].entry.ElapsedMs
		}
		return rows[i].seq < rows[j].seq
	})

	result := &models.FFFResult{
		QuestionID:       questionID,
		Entries:          make([]models.RankingEntry, len(rows)),
		TotalSubmissions: len(rows),
	}
	for i, row := range rows {
		row.entry.Rank = i + 1
		result.Entries[i] = row.entry
	}
	if len(result.Entries) > 0 && result.Entries[0].Correct {
		winner := result.Entries[0]
		result.Winner = &winner
	}
	return result
}

func isCorrect(ordering, correct []int) bool {
	if len(ordering) != len(correct) || len(correct) == 0 {
		return false
	}
	for i := range correct {
		if ordering[i] != correct[i] {
			return false
		}
	}
	return true
}
