package ai

import (
	"errors"
	"io"
	"testing"
)

func TestTranscriptString(t *testing.T) {
	t.Parallel()

	tr := Transcript{
		{Question: "How old are you?", Answer: "42"},
		{Field: "is_veteran", Question: "Did you serve?", Answer: "no"},
	}

	want := "Q: How old are you?\nA: 42\nQ: Did you serve?\nA: no\n"
	if got := tr.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if got := (Transcript{}).String(); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestMalformedResponseError(t *testing.T) {
	t.Parallel()

	err := error(&MalformedResponseError{Collaborator: "interpreter", Raw: "oops", Err: io.ErrUnexpectedEOF})

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) || malformed.Raw != "oops" {
		t.Fatalf("expected typed error, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped cause")
	}
	if err.Error() != "interpreter: malformed response: unexpected EOF" {
		t.Fatalf("unexpected message: %s", err)
	}
}

func TestTemplateQuestion(t *testing.T) {
	t.Parallel()

	if got := TemplateQuestion("is_veteran"); got != "What is your is_veteran?" {
		t.Fatalf("unexpected template question: %q", got)
	}
}
