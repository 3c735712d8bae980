package quiz

import "time"

// Viewer says how much of a quiz a caller may see.
type Viewer int

const (
	ViewerOther Viewer = iota
	ViewerOwner
)

// View renders z for the given viewer. Owners get the full quiz; everyone
// else gets a copy with every answer key removed. The input is never
// modified.
func View(z Quiz, v Viewer) Quiz {
	if v == ViewerOwner {
		return Clone(z)
	}
	return Redact(z)
}

// ViewAll applies View to each quiz.
func ViewAll(zs []Quiz, v Viewer) []Quiz {
	out := make([]Quiz, 0, len(zs))
	for _, z := range zs {
		out = append(out, View(z, v))
	}
	return out
}

// Redact returns a deep copy of z without correctChoiceIndex, correctAnswer
// or blank answer sets on any question.
func Redact(z Quiz) Quiz {
	out := Clone(z)
	for i := range out.Questions {
		out.Questions[i] = RedactQuestion(out.Questions[i])
	}
	return out
}

// RedactQuestion strips the answer key from a single question.
func RedactQuestion(q Question) Question {
	q = cloneQuestion(q)
	q.CorrectChoiceIndex = nil
	q.CorrectAnswer = nil
	for i := range q.Blanks {
		q.Blanks[i].PossibleAnswers = nil
	}
	return q
}

// HasAnswerKey reports whether any question still carries answer-key data.
func HasAnswerKey(z Quiz) bool {
	for _, q := range z.Questions {
		if q.CorrectChoiceIndex != nil || q.CorrectAnswer != nil {
			return true
		}
		for _, b := range q.Blanks {
			if len(b.PossibleAnswers) > 0 {
				return true
			}
		}
	}
	return false
}

// Clone deep-copies a quiz so callers can mutate the result freely.
func Clone(z Quiz) Quiz {
	out := z
	out.AvailableDate = cloneTime(z.AvailableDate)
	out.DueDate = cloneTime(z.DueDate)
	out.UntilDate = cloneTime(z.UntilDate)
	if z.Questions != nil {
		out.Questions = make([]Question, len(z.Questions))
		for i, q := range z.Questions {
			out.Questions[i] = cloneQuestion(q)
		}
	}
	return out
}

func cloneQuestion(q Question) Question {
	out := q
	if q.Choices != nil {
		out.Choices = append([]string(nil), q.Choices...)
	}
	if q.CorrectChoiceIndex != nil {
		v := *q.CorrectChoiceIndex
		out.CorrectChoiceIndex = &v
	}
	if q.CorrectAnswer != nil {
		v := *q.CorrectAnswer
		out.CorrectAnswer = &v
	}
	if q.Blanks != nil {
		out.Blanks = make([]Blank, len(q.Blanks))
		for i, b := range q.Blanks {
			b.PossibleAnswers = append([]string(nil), b.PossibleAnswers...)
			if len(b.PossibleAnswers) == 0 {
				b.PossibleAnswers = nil
			}
			out.Blanks[i] = b
		}
	}
	return out
}

// CloneAttempt deep-copies an attempt.
func CloneAttempt(a Attempt) Attempt {
	out := a
	if a.Answers != nil {
		out.Answers = make([]Answer, len(a.Answers))
		for i, ans := range a.Answers {
			c := ans
			if ans.Value != nil {
				c.Value = append([]byte(nil), ans.Value...)
			}
			if ans.Correct != nil {
				v := *ans.Correct
				c.Correct = &v
			}
			if ans.Points != nil {
				v := *ans.Points
				c.Points = &v
			}
			out.Answers[i] = c
		}
	}
	if a.Score != nil {
		v := *a.Score
		out.Score = &v
	}
	out.SubmittedAt = cloneTime(a.SubmittedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
