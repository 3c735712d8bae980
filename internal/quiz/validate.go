package quiz

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON applies the authoring default of one point to questions that
// do not state their points.
func (q *Question) UnmarshalJSON(b []byte) error {
	type plain Question
	p := plain{Points: 1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = Question(p)
	return nil
}

// UnmarshalJSON defaults blank points to one.
func (bl *Blank) UnmarshalJSON(b []byte) error {
	type plain Blank
	p := plain{Points: 1}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*bl = Blank(p)
	return nil
}

// Validate checks an authored quiz. It returns a validation error for
// anything grading could not handle, and a list of non-fatal warnings.
func Validate(z Quiz) (warnings []string, err error) {
	const op = "quiz.validate"
	if z.CourseID == "" {
		return nil, Invalid(op, "course is required")
	}
	if z.Points < 0 {
		return nil, Invalid(op, "points must not be negative")
	}
	if z.TimeLimit < 0 {
		return nil, Invalid(op, "timeLimit must not be negative")
	}
	if z.AttemptsAllowed < 0 {
		return nil, Invalid(op, "attemptsAllowed must not be negative")
	}
	seen := make(map[string]struct{}, len(z.Questions))
	for i, q := range z.Questions {
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				return nil, Invalid(op, "question %d: duplicate id %q", i, q.ID)
			}
			seen[q.ID] = struct{}{}
		}
		w, err := ValidateQuestion(q)
		if err != nil {
			return nil, Invalid(op, "question %d: %v", i, err)
		}
		for _, s := range w {
			warnings = append(warnings, fmt.Sprintf("question %d: %s", i, s))
		}
	}
	return warnings, nil
}

// ValidateQuestion checks a single question's variant fields.
func ValidateQuestion(q Question) (warnings []string, err error) {
	if q.Points < 0 {
		return nil, fmt.Errorf("points must not be negative")
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Choices) == 0 {
			return nil, fmt.Errorf("multiple choice question needs choices")
		}
		if q.CorrectChoiceIndex == nil {
			return nil, fmt.Errorf("correctChoiceIndex is required")
		}
		if idx := *q.CorrectChoiceIndex; idx < 0 || idx >= len(q.Choices) {
			return nil, fmt.Errorf("correctChoiceIndex %d out of range [0,%d)", idx, len(q.Choices))
		}
	case TypeTrueFalse:
		if q.CorrectAnswer == nil {
			return nil, fmt.Errorf("correctAnswer is required")
		}
	case TypeFillBlank:
		if len(q.Blanks) == 0 {
			return nil, fmt.Errorf("fill blank question needs at least one blank")
		}
		for i, b := range q.Blanks {
			if len(b.PossibleAnswers) == 0 {
				return nil, fmt.Errorf("blank %d has no possible answers", i)
			}
			if b.Points < 0 {
				return nil, fmt.Errorf("blank %d: points must not be negative", i)
			}
		}
		if sum := q.BlankPoints(); sum != q.Points {
			warnings = append(warnings, fmt.Sprintf("points %.2f differ from blank total %.2f", q.Points, sum))
		}
	default:
		return nil, fmt.Errorf("unknown question type %q", q.Type)
	}
	return warnings, nil
}
