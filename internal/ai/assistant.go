package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

// DefaultOpenQuestion opens the interview when no conversational model is
// available or it fails.
const DefaultOpenQuestion = "Tell me a bit about your situation. What kind of help are you looking for?"

// ErrNoAnswer is returned when a collaborator produced an empty response.
var ErrNoAnswer = errors.New("collaborator returned no answer")

// Exchange is one question and the user's answer. Field is the dataset column
// the question was about and stays empty for open-ended questions.
type Exchange struct {
	Field    string `json:"field,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Transcript is the ordered list of exchanges of one stage.
type Transcript []Exchange

// String renders the transcript as Q/A lines.
func (t Transcript) String() string {
	var b strings.Builder
	for _, e := range t {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", e.Question, e.Answer)
	}
	return b.String()
}

// QuestionPhraser turns a dataset field into a short question for the user.
type QuestionPhraser interface {
	PhraseQuestion(ctx context.Context, field string) (string, error)
}

// AnswerInterpreter extracts profile values from a transcript. Attributes it
// cannot resolve are left unknown.
type AnswerInterpreter interface {
	Interpret(ctx context.Context, transcript Transcript) (profile.Profile, error)
}

// Shortlister chooses candidate programs from a free-text transcript.
type Shortlister interface {
	Shortlist(ctx context.Context, transcript Transcript, catalogue []programs.Program) ([]string, error)
}

// Conversationalist asks the next open-ended question of the first stage.
type Conversationalist interface {
	OpenQuestion(ctx context.Context, transcript Transcript) (string, error)
}

// Collaborators bundles the model-backed parts of an interview. Nil members
// fall back to their safe defaults.
type Collaborators struct {
	Phraser           QuestionPhraser
	Interpreter       AnswerInterpreter
	Shortlister       Shortlister
	Conversationalist Conversationalist
}

// MalformedResponseError reports model output that does not match the
// expected format.
type MalformedResponseError struct {
	Collaborator string
	Raw          string
	Err          error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: malformed response", e.Collaborator)
	}
	return fmt.Sprintf("%s: malformed response: %v", e.Collaborator, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// TemplateQuestion is the question asked when phrasing fails.
func TemplateQuestion(field string) string {
	return fmt.Sprintf("What is your %s?", field)
}
