package quiz

import (
	"encoding/json"
	"time"
)

// Question types.
const (
	TypeMultipleChoice = "MULTIPLE_CHOICE"
	TypeTrueFalse      = "TRUE_FALSE"
	TypeFillBlank      = "FILL_BLANK"
)

// Blank is one fill-in slot of a FILL_BLANK question.
type Blank struct {
	PossibleAnswers []string `json:"possibleAnswers,omitempty"` // answer key
	CaseSensitive   bool     `json:"caseSensitive"`
	Points          float64  `json:"points"`
}

// Question is a tagged union over the three question variants. Type selects
// which of the variant fields are meaningful.
type Question struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Title  string  `json:"title"`
	Text   string  `json:"question"`
	Points float64 `json:"points"`

	// MULTIPLE_CHOICE
	Choices            []string `json:"choices,omitempty"`
	CorrectChoiceIndex *int     `json:"correctChoiceIndex,omitempty"`

	// TRUE_FALSE
	CorrectAnswer *bool `json:"correctAnswer,omitempty"`

	// FILL_BLANK
	Blanks []Blank `json:"blanks,omitempty"`
}

// BlankPoints sums the nominal points of a fill-blank question's blanks.
func (q Question) BlankPoints() float64 {
	sum := 0.0
	for _, b := range q.Blanks {
		sum += b.Points
	}
	return sum
}

type Quiz struct {
	ID          string  `json:"id"`
	CourseID    string  `json:"course"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`

	AvailableDate *time.Time `json:"availableDate,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	UntilDate     *time.Time `json:"untilDate,omitempty"`

	Published       bool   `json:"published"`
	QuizType        string `json:"quizType"`
	AssignmentGroup string `json:"assignmentGroup"`

	ShuffleAnswers              bool   `json:"shuffleAnswers"`
	HasTimeLimit                bool   `json:"hasTimeLimit"`
	TimeLimit                   int    `json:"timeLimit"` // minutes, advisory
	MultipleAttempts            bool   `json:"multipleAttempts"`
	AttemptsAllowed             int    `json:"attemptsAllowed"`
	ShowCorrectAnswers          string `json:"showCorrectAnswers"`
	AccessCode                  string `json:"accessCode"`
	OneQuestionAtATime          bool   `json:"oneQuestionAtATime"`
	WebcamRequired              bool   `json:"webcamRequired"`
	LockQuestionsAfterAnswering bool   `json:"lockQuestionsAfterAnswering"`

	Questions []Question `json:"questions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewQuiz returns a quiz carrying the authoring defaults. Decoding a request
// body on top of it keeps the defaults for fields the client left out.
func NewQuiz() Quiz {
	return Quiz{
		QuizType:           "Graded Quiz",
		AssignmentGroup:    "QUIZZES",
		ShuffleAnswers:     true,
		HasTimeLimit:       true,
		TimeLimit:          20,
		AttemptsAllowed:    1,
		OneQuestionAtATime: true,
		Questions:          []Question{},
	}
}

// QuestionPoints is the sum of the points of every question.
func (z Quiz) QuestionPoints() float64 {
	sum := 0.0
	for _, q := range z.Questions {
		sum += q.Points
	}
	return sum
}

// Question looks up a question by id.
func (z Quiz) Question(id string) (Question, bool) {
	for _, q := range z.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// AttemptCap is the largest attemptNumber a user may start. Zero means no cap.
func (z Quiz) AttemptCap() int {
	if !z.MultipleAttempts {
		return 1
	}
	if z.AttemptsAllowed <= 0 {
		return 0
	}
	return z.AttemptsAllowed
}

// Answer is one submitted response. Value is kept as raw JSON until grading
// decodes it against the question variant.
type Answer struct {
	QuestionID string          `json:"question"`
	Value      json.RawMessage `json:"answer"`
	Correct    *bool           `json:"correct,omitempty"`
	Points     *float64        `json:"points,omitempty"`
}

type Attempt struct {
	ID            string     `json:"id"`
	QuizID        string     `json:"quiz"`
	UserID        string     `json:"student"`
	AttemptNumber int        `json:"attemptNumber"`
	InProgress    bool       `json:"inProgress"`
	Answers       []Answer   `json:"answers"`
	Score         *float64   `json:"score"`
	TotalPoints   float64    `json:"totalPoints"`
	StartedAt     time.Time  `json:"startedAt"`
	SubmittedAt   *time.Time `json:"submittedAt"`
}

// Status strings persisted by the stores.
const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

func (a Attempt) Status() string {
	if a.InProgress {
		return StatusInProgress
	}
	return StatusSubmitted
}
