package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

var (
	yes  = programs.BoolValue(true)
	no   = programs.BoolValue(false)
	null = programs.Null
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func mustCatalogue(t *testing.T, fields []string, rows ...programs.Row) *programs.Catalogue {
	t.Helper()

	c, err := programs.New(fields, rows)
	if err != nil {
		t.Fatalf("building catalogue: %v", err)
	}
	return c
}

func row(id string, values map[string]programs.Value) programs.Row {
	return programs.Row{Program: id, Values: values}
}

// benefits has four programs that differ on veteran status, criminal record,
// income and child focus.
func benefits(t *testing.T) *programs.Catalogue {
	return mustCatalogue(t,
		[]string{
			programs.ColumnVeteran,
			programs.ColumnCriminalDisqualifying,
			programs.ColumnMaxMonthlyIncome,
			programs.ColumnForChildren,
		},
		row("VETS", map[string]programs.Value{
			programs.ColumnVeteran:          yes,
			programs.ColumnMaxMonthlyIncome: programs.IntValue(2000),
			programs.ColumnForChildren:      no,
		}),
		row("FOOD", map[string]programs.Value{
			programs.ColumnVeteran:               no,
			programs.ColumnCriminalDisqualifying: no,
			programs.ColumnMaxMonthlyIncome:      programs.IntValue(2500),
			programs.ColumnForChildren:           no,
		}),
		row("KIDS", map[string]programs.Value{
			programs.ColumnMaxMonthlyIncome: programs.IntValue(3000),
			programs.ColumnForChildren:      yes,
		}),
		row("REENTRY", map[string]programs.Value{
			programs.ColumnVeteran:               no,
			programs.ColumnCriminalDisqualifying: yes,
			programs.ColumnMaxMonthlyIncome:      programs.IntValue(1500),
			programs.ColumnForChildren:           no,
		}),
	)
}

// veterans has a single field so an offline interview asks exactly one
// question.
func veterans(t *testing.T) *programs.Catalogue {
	return mustCatalogue(t,
		[]string{programs.ColumnVeteran},
		row("VETS", map[string]programs.Value{programs.ColumnVeteran: yes}),
		row("FOOD", map[string]programs.Value{programs.ColumnVeteran: no}),
		row("OTHER", map[string]programs.Value{programs.ColumnVeteran: null}),
	)
}

type stubPhraser struct {
	err    error
	fields []string
}

func (s *stubPhraser) PhraseQuestion(_ context.Context, field string) (string, error) {
	s.fields = append(s.fields, field)
	if s.err != nil {
		return "", s.err
	}
	return "Tell me about " + field + "?", nil
}

type blockingPhraser struct{}

func (blockingPhraser) PhraseQuestion(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type stubInterpreter struct {
	fn  func(ai.Transcript) profile.Profile
	err error
}

func (s *stubInterpreter) Interpret(_ context.Context, t ai.Transcript) (profile.Profile, error) {
	if s.err != nil {
		return profile.Profile{}, s.err
	}
	return s.fn(t), nil
}

type stubShortlister struct {
	names []string
	err   error
	calls int
}

func (s *stubShortlister) Shortlist(_ context.Context, _ ai.Transcript, _ []programs.Program) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.names, nil
}

type stubConversationalist struct {
	err   error
	calls int
}

func (s *stubConversationalist) OpenQuestion(_ context.Context, _ ai.Transcript) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("Open question %d?", s.calls), nil
}

func newCoordinator(t *testing.T, catalogue *programs.Catalogue, collaborators ai.Collaborators, opts Options, logger *zap.Logger) *Coordinator {
	t.Helper()

	engine := ranking.New(catalogue, logger)
	optimizer := selection.New(catalogue, nil)
	driver := NewDriver(catalogue, optimizer, engine, collaborators, opts, logger)
	return NewCoordinator(NewStore(), driver, logger)
}

func TestInterviewWithCollaborators(t *testing.T) {
	t.Parallel()

	conversationalist := &stubConversationalist{}
	shortlister := &stubShortlister{names: []string{" vets ", "Food", "Housing Voucher"}}
	phraser := &stubPhraser{}
	interpreter := &stubInterpreter{fn: func(tr ai.Transcript) profile.Profile {
		if tr[0].Field == "" {
			return profile.Profile{MonthlyIncome: intPtr(1200)}
		}
		return profile.Profile{IsVeteran: boolPtr(false)}
	}}

	c := newCoordinator(t, benefits(t), ai.Collaborators{
		Phraser:           phraser,
		Interpreter:       interpreter,
		Shortlister:       shortlister,
		Conversationalist: conversationalist,
	}, Options{ShortlistThreshold: 2, QuestionBudget: 2}, zap.NewNop())

	ctx := context.Background()

	reply := c.Start(ctx)
	if reply.Stage != StageShortlist || reply.Question == nil || reply.Question.Text != "Open question 1?" {
		t.Fatalf("unexpected first reply: %+v", reply)
	}

	for i := 0; i < 2; i++ {
		var err error
		reply, err = c.Respond(ctx, reply.SessionID, "I lost my job last month")
		if err != nil {
			t.Fatalf("respond: %v", err)
		}
		if reply.Stage != StageShortlist {
			t.Fatalf("expected to stay in shortlist stage after %d answers", i+1)
		}
	}

	reply, err := c.Respond(ctx, reply.SessionID, "I served in the navy a long time ago")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Stage != StageRanking {
		t.Fatalf("expected ranking stage, got %s", reply.Stage)
	}
	if conversationalist.calls != 3 || shortlister.calls != 1 {
		t.Fatalf("unexpected collaborator calls: open=%d shortlist=%d", conversationalist.calls, shortlister.calls)
	}
	if reply.Question == nil || reply.Question.Field == "" || reply.Question.Source != "ai" {
		t.Fatalf("expected structured ai question, got %+v", reply.Question)
	}
	if reply.Question.Field == programs.ColumnMaxMonthlyIncome {
		t.Fatalf("income is known from the open answers and must not be asked")
	}

	snap, err := c.Get(reply.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(snap.Shortlist, []string{"VETS", "FOOD"}) {
		t.Fatalf("unexpected shortlist: %v", snap.Shortlist)
	}
	if !reflect.DeepEqual(snap.Eliminated, []string{"KIDS", "REENTRY"}) {
		t.Fatalf("unexpected eliminated programs: %v", snap.Eliminated)
	}

	reply, err = c.Respond(ctx, reply.SessionID, "no")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Done {
		t.Fatalf("expected a second structured question")
	}

	reply, err = c.Respond(ctx, reply.SessionID, "no")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !reply.Done || reply.Question != nil {
		t.Fatalf("expected finished interview, got %+v", reply)
	}
	if !reflect.DeepEqual(reply.Programs, []string{"FOOD", "VETS"}) {
		t.Fatalf("unexpected recommendation: %v", reply.Programs)
	}
	if reply.Results[0].Score != ranking.Baseline+3 || reply.Fallback {
		t.Fatalf("unexpected results: %+v", reply.Results)
	}
	if len(phraser.fields) != 2 || phraser.fields[0] == phraser.fields[1] {
		t.Fatalf("expected two different fields to be phrased, got %v", phraser.fields)
	}

	if _, err := c.Respond(ctx, reply.SessionID, "hello?"); !errors.Is(err, ErrSessionDone) {
		t.Fatalf("expected ErrSessionDone, got %v", err)
	}
}

func TestCollaboratorFailuresFallBackToDefaults(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	boom := errors.New("quota exceeded")
	catalogue := benefits(t)

	c := newCoordinator(t, catalogue, ai.Collaborators{
		Phraser:           &stubPhraser{err: boom},
		Interpreter:       &stubInterpreter{err: boom},
		Shortlister:       &stubShortlister{err: boom},
		Conversationalist: &stubConversationalist{err: boom},
	}, Options{ShortlistThreshold: 1, QuestionBudget: 1}, zap.New(core))

	ctx := context.Background()

	reply := c.Start(ctx)
	if reply.Question.Text != ai.DefaultOpenQuestion || reply.Question.Source != "template" {
		t.Fatalf("expected default open question, got %+v", reply.Question)
	}

	reply, _ = c.Respond(ctx, reply.SessionID, "hi")
	reply, err := c.Respond(ctx, reply.SessionID, "I need food")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	if reply.Stage != StageRanking || reply.Question == nil {
		t.Fatalf("expected ranking question, got %+v", reply)
	}
	if want := ai.TemplateQuestion(reply.Question.Field); reply.Question.Text != want || reply.Question.Source != "template" {
		t.Fatalf("expected template question %q, got %+v", want, reply.Question)
	}

	snap, _ := c.Get(reply.SessionID)
	if !reflect.DeepEqual(snap.Shortlist, catalogue.Programs()) {
		t.Fatalf("expected whole catalogue as shortlist, got %v", snap.Shortlist)
	}
	if len(snap.Profile.KnownFields()) != 0 {
		t.Fatalf("failed interpretation must leave the profile empty: %+v", snap.Profile)
	}

	reply, err = c.Respond(ctx, reply.SessionID, "yes")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !reply.Done || len(reply.Programs) != catalogue.Len() {
		t.Fatalf("expected every program ranked, got %+v", reply)
	}

	failed := map[string]int{}
	for _, entry := range logs.FilterMessage("collaborator failed, using default").All() {
		failed[entry.ContextMap()["collaborator"].(string)]++
	}
	for _, name := range []string{"conversationalist", "shortlister", "interpreter", "phraser"} {
		if failed[name] == 0 {
			t.Fatalf("expected a logged failure for %s, got %v", name, failed)
		}
	}
}

func TestOfflineInterview(t *testing.T) {
	t.Parallel()

	c := newCoordinator(t, veterans(t), ai.Collaborators{}, Options{}, zap.NewNop())
	ctx := context.Background()

	reply := c.Start(ctx)
	if reply.Question.Text != ai.DefaultOpenQuestion {
		t.Fatalf("expected default open question, got %q", reply.Question.Text)
	}

	reply, err := c.Respond(ctx, reply.SessionID, "I need help with groceries")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Stage != StageRanking || reply.Question.Field != programs.ColumnVeteran || reply.Question.Source != "pool" {
		t.Fatalf("expected pooled veteran question, got %+v", reply)
	}

	reply, err = c.Respond(ctx, reply.SessionID, "No")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if !reply.Done {
		t.Fatalf("expected interview to end once nothing is left to ask")
	}
	if !reflect.DeepEqual(reply.Programs, []string{"FOOD", "OTHER", "VETS"}) {
		t.Fatalf("unexpected recommendation: %v", reply.Programs)
	}

	snap, _ := c.Get(reply.SessionID)
	if snap.Profile.IsVeteran == nil || *snap.Profile.IsVeteran {
		t.Fatalf("expected plain answer to be read, got %+v", snap.Profile)
	}
	if !reflect.DeepEqual(snap.Eliminated, []string{"VETS"}) {
		t.Fatalf("expected disqualified program eliminated, got %v", snap.Eliminated)
	}
	if snap.Questions != 1 || len(snap.Exchanges) != 1 || len(snap.Open) != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestExcludeFileHidesPrograms(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")
	if err := programs.NewExcluded("closed for applications", "FOOD").ToFile(path); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	c := newCoordinator(t, veterans(t), ai.Collaborators{}, Options{ExcludeFile: path}, zap.NewNop())
	ctx := context.Background()

	reply := c.Start(ctx)
	reply, err := c.Respond(ctx, reply.SessionID, "hello")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}

	snap, _ := c.Get(reply.SessionID)
	if !reflect.DeepEqual(snap.Shortlist, []string{"VETS", "OTHER"}) {
		t.Fatalf("unexpected shortlist: %v", snap.Shortlist)
	}
	if !reflect.DeepEqual(snap.Eliminated, []string{"FOOD"}) {
		t.Fatalf("unexpected eliminated programs: %v", snap.Eliminated)
	}
}

func TestCollaboratorTimeout(t *testing.T) {
	t.Parallel()

	c := newCoordinator(t, veterans(t), ai.Collaborators{Phraser: blockingPhraser{}}, Options{Timeout: 10 * time.Millisecond}, zap.NewNop())
	ctx := context.Background()

	reply := c.Start(ctx)
	reply, err := c.Respond(ctx, reply.SessionID, "hello")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if reply.Question.Text != ai.TemplateQuestion(programs.ColumnVeteran) {
		t.Fatalf("expected template question after timeout, got %q", reply.Question.Text)
	}
}

func TestRespondErrors(t *testing.T) {
	t.Parallel()

	c := newCoordinator(t, veterans(t), ai.Collaborators{}, Options{}, zap.NewNop())
	reply := c.Start(context.Background())

	if _, err := c.Respond(context.Background(), reply.SessionID, "  \n"); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
	if _, err := c.Respond(context.Background(), uuid.New(), "hi"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := c.Delete(reply.SessionID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(reply.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected deleted session to be gone, got %v", err)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	t.Parallel()

	c := newCoordinator(t, veterans(t), ai.Collaborators{}, Options{}, zap.NewNop())
	answers := []string{"yes", "no"}

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			ctx := context.Background()
			reply := c.Start(ctx)
			ids[i] = reply.SessionID

			if _, err := c.Respond(ctx, reply.SessionID, "hello"); err != nil {
				t.Errorf("respond: %v", err)
				return
			}
			if _, err := c.Respond(ctx, reply.SessionID, answers[i%2]); err != nil {
				t.Errorf("respond: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		snap, err := c.Get(id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}

		veteran := answers[i%2] == "yes"
		if snap.Profile.IsVeteran == nil || *snap.Profile.IsVeteran != veteran {
			t.Fatalf("session %d: expected veteran=%t, got %+v", i, veteran, snap.Profile)
		}

		want := []string{"VETS"}
		if veteran {
			want = []string{"FOOD"}
		}
		if !reflect.DeepEqual(snap.Eliminated, want) {
			t.Fatalf("session %d: expected eliminated %v, got %v", i, want, snap.Eliminated)
		}
	}
}

func TestFinishFallbackPolicy(t *testing.T) {
	t.Parallel()

	catalogue := veterans(t)

	tests := []struct {
		name         string
		policy       FallbackPolicy
		shortlist    []string
		wantPrograms []string
		wantFallback bool
	}{
		{name: "ranked", policy: FallbackShortlist, shortlist: []string{"OTHER", "FOOD"}, wantPrograms: []string{"OTHER", "FOOD"}},
		{name: "shortlist fallback", policy: FallbackShortlist, shortlist: []string{"RETIRED", "GONE"}, wantPrograms: []string{"RETIRED", "GONE"}, wantFallback: true},
		{name: "no fallback", policy: FallbackNone, shortlist: []string{"RETIRED"}},
		{name: "empty shortlist", policy: FallbackShortlist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := NewDriver(catalogue, selection.New(catalogue, nil), ranking.New(catalogue, nil), ai.Collaborators{}, Options{Fallback: tt.policy}, nil)
			s := newSession(uuid.New(), time.Now())
			s.Shortlist = tt.shortlist

			d.Finish(s)

			if !s.Done {
				t.Fatalf("expected session to be done")
			}
			if !reflect.DeepEqual(append([]string{}, s.Recommended...), append([]string{}, tt.wantPrograms...)) {
				t.Fatalf("expected %v, got %v", tt.wantPrograms, s.Recommended)
			}
			if s.Fallback != tt.wantFallback {
				t.Fatalf("expected fallback=%t, got %t", tt.wantFallback, s.Fallback)
			}
		})
	}
}

func TestRecordWithoutPendingField(t *testing.T) {
	t.Parallel()

	catalogue := veterans(t)
	d := NewDriver(catalogue, selection.New(catalogue, nil), ranking.New(catalogue, nil), ai.Collaborators{}, Options{}, nil)
	s := newSession(uuid.New(), time.Now())

	if err := d.Record(context.Background(), s, "yes"); !errors.Is(err, ErrNoPendingField) {
		t.Fatalf("expected ErrNoPendingField, got %v", err)
	}
}
