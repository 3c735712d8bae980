package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/nishamurthy-22/kambaz-node-server-app/internal/quiz"
)

// Result is the outcome of grading a single question response.
type Result struct {
	Correct   bool
	Points    float64 // points earned
	MaxPoints float64 // the question's max points
}

// Strategy grades a single question variant. A non-nil error means the
// response does not have the shape the variant expects.
type Strategy interface {
	Grade(ctx context.Context, q quiz.Question, response json.RawMessage) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q quiz.Question, response json.RawMessage) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q quiz.Question, response json.RawMessage) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points}, fmt.Errorf("no strategy for question type %q", q.Type)
	}
	return s.Grade(ctx, q, response)
}

// BlankPolicy decides how a FILL_BLANK question with several blanks is scored.
type BlankPolicy string

const (
	// BlankAllOrNothing awards the question's points only when every blank
	// is right.
	BlankAllOrNothing BlankPolicy = "all_or_nothing"
	// BlankPartial awards each correct blank its own points.
	BlankPartial BlankPolicy = "partial"
)

// ParseBlankPolicy maps a config string onto a policy, defaulting to
// all-or-nothing.
func ParseBlankPolicy(s string) (BlankPolicy, error) {
	switch BlankPolicy(s) {
	case "", BlankAllOrNothing:
		return BlankAllOrNothing, nil
	case BlankPartial:
		return BlankPartial, nil
	}
	return "", fmt.Errorf("unknown fill blank policy %q", s)
}

// Engine options

type Option func(*config)

type config struct {
	BlankPolicy BlankPolicy
}

func WithBlankPolicy(p BlankPolicy) Option { return func(c *config) { c.BlankPolicy = p } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{BlankPolicy: BlankAllOrNothing}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			quiz.TypeMultipleChoice: multipleChoiceStrategy{},
			quiz.TypeTrueFalse:      trueFalseStrategy{},
			quiz.TypeFillBlank:      fillBlankStrategy{policy: cfg.BlankPolicy},
		},
	}
}

// --- Strategies ---

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Grade(_ context.Context, q quiz.Question, response json.RawMessage) (Result, error) {
	res := Result{MaxPoints: q.Points}
	var idx int
	if err := decodeStrict(response, &idx); err != nil {
		return res, fmt.Errorf("response must be a choice index")
	}
	if idx < 0 || idx >= len(q.Choices) {
		return res, fmt.Errorf("choice index %d out of range [0,%d)", idx, len(q.Choices))
	}
	if q.CorrectChoiceIndex != nil && idx == *q.CorrectChoiceIndex {
		res.Correct = true
		res.Points = q.Points
	}
	return res, nil
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(_ context.Context, q quiz.Question, response json.RawMessage) (Result, error) {
	res := Result{MaxPoints: q.Points}
	var v bool
	if err := decodeStrict(response, &v); err != nil {
		return res, fmt.Errorf("response must be true or false")
	}
	if q.CorrectAnswer != nil && v == *q.CorrectAnswer {
		res.Correct = true
		res.Points = q.Points
	}
	return res, nil
}

type fillBlankStrategy struct{ policy BlankPolicy }

func (s fillBlankStrategy) Grade(_ context.Context, q quiz.Question, response json.RawMessage) (Result, error) {
	res := Result{MaxPoints: q.Points}
	var answers []string
	if err := decodeStrict(response, &answers); err != nil || answers == nil {
		return res, fmt.Errorf("response must be an array of strings")
	}
	if len(answers) != len(q.Blanks) {
		return res, fmt.Errorf("expected %d blank answers, got %d", len(q.Blanks), len(answers))
	}
	all := true
	partial := 0.0
	for i, b := range q.Blanks {
		if BlankMatches(b, answers[i]) {
			partial += b.Points
		} else {
			all = false
		}
	}
	res.Correct = all
	switch {
	case all:
		res.Points = q.Points
	case s.policy == BlankPartial:
		res.Points = partial
	}
	return res, nil
}

// decodeStrict unmarshals a raw JSON value, refusing null and values of the
// wrong JSON type (e.g. 1.5 or "1" for an int).
func decodeStrict(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("missing value")
	}
	return json.Unmarshal(trimmed, v)
}
