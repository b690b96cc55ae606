package interview

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/filtering"
	"github.com/spigell/welfare-interviewer/internal/logger"
	"github.com/spigell/welfare-interviewer/internal/metrics"
	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

const (
	collaboratorPhraser           = "phraser"
	collaboratorInterpreter       = "interpreter"
	collaboratorShortlister       = "shortlister"
	collaboratorConversationalist = "conversationalist"
)

// Driver runs the structured questions of the ranking stage. Its methods
// expect the caller to hold the session lock.
type Driver struct {
	catalogue     *programs.Catalogue
	optimizer     *selection.Optimizer
	engine        *ranking.Engine
	collaborators ai.Collaborators
	opts          Options
	logger        *zap.Logger
}

func NewDriver(
	catalogue *programs.Catalogue,
	optimizer *selection.Optimizer,
	engine *ranking.Engine,
	collaborators ai.Collaborators,
	opts Options,
	logger *zap.Logger,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		catalogue:     catalogue,
		optimizer:     optimizer,
		engine:        engine,
		collaborators: collaborators,
		opts:          opts.withDefaults(),
		logger:        logger,
	}
}

// Begin moves the session into the ranking stage. Programs hidden by the
// exclude file are dropped from the shortlist; if nothing is left the whole
// visible catalogue is used instead.
func (d *Driver) Begin(ctx context.Context, s *Session, shortlist []string) {
	visible := d.visible(s, shortlist)
	if len(visible) == 0 {
		visible = d.visible(s, d.catalogue.Programs())
	}

	s.Shortlist = visible
	s.Stage = StageRanking
	metrics.StageTransitions.WithLabelValues(string(StageRanking)).Inc()

	for _, f := range s.Profile.KnownFields() {
		s.Asked.Add(programs.ColumnsOf(f)...)
	}

	d.eliminate(ctx, s)

	d.sessionLogger(s).Info("ranking stage started",
		zap.Int("shortlist_size", len(s.Shortlist)),
		zap.Int("known_fields", len(s.Profile.KnownFields())),
		zap.Int("eliminated_programs", len(s.Eliminated)),
	)
}

// Next picks the most informative field still open and phrases a question
// about it. It returns false when nothing is left worth asking.
func (d *Driver) Next(ctx context.Context, s *Session) (*Question, bool) {
	fields := d.optimizer.Select(s.Asked, s.Eliminated, 1)
	if len(fields) == 0 {
		return nil, false
	}
	field := fields[0]

	// One question covers every column of its attribute.
	s.Asked.Add(field)
	if attr, ok := programs.AttributeOf(field); ok {
		s.Asked.Add(programs.ColumnsOf(attr)...)
	}

	text, source := d.phrase(ctx, s, field)

	q := &Question{Field: field, Text: text, Source: source}
	s.Pending = q
	s.Questions++
	metrics.Questions.WithLabelValues(source).Inc()

	d.sessionLogger(s).Debug("asking structured question",
		zap.String("field", field),
		zap.String("source", source),
		zap.Int("question", s.Questions),
	)

	return q, true
}

// Record stores the answer to the pending structured question, updates the
// profile and eliminates programs the answers rule out.
func (d *Driver) Record(ctx context.Context, s *Session, answer string) error {
	if s.Pending == nil || s.Pending.Field == "" {
		return ErrNoPendingField
	}

	s.Exchanges = append(s.Exchanges, ai.Exchange{
		Field:    s.Pending.Field,
		Question: s.Pending.Text,
		Answer:   answer,
	})
	s.Pending = nil

	d.absorb(ctx, s, s.Exchanges)
	d.eliminate(ctx, s)

	return nil
}

// Finish ranks the shortlist against the profile and ends the session.
func (d *Driver) Finish(s *Session) {
	s.Done = true
	s.Pending = nil

	results := d.engine.Rank(&s.Profile, s.Shortlist)

	outcome := metrics.OutcomeRanked
	switch {
	case len(results) > 0:
		s.Results = results
		s.Recommended = ranking.IDs(results)
	case d.opts.Fallback == FallbackShortlist && len(s.Shortlist) > 0:
		outcome = metrics.OutcomeFallback
		s.Recommended = append([]string(nil), s.Shortlist...)
		s.Fallback = true
	default:
		outcome = metrics.OutcomeEmpty
	}
	metrics.Rankings.WithLabelValues(outcome).Inc()

	d.sessionLogger(s).Info("interview finished",
		zap.String("outcome", outcome),
		zap.Int("questions", s.Questions),
		zap.Strings("recommended", s.Recommended),
	)
}

func (d *Driver) phrase(ctx context.Context, s *Session, field string) (string, string) {
	var phraser ai.QuestionPhraser = s.pool
	source := metrics.SourcePool
	if d.collaborators.Phraser != nil {
		phraser, source = d.collaborators.Phraser, metrics.SourceAI
	}

	callCtx, cancel := d.callContext(ctx)
	defer cancel()

	text, err := phraser.PhraseQuestion(callCtx, field)
	if err != nil {
		d.failed(s, collaboratorPhraser, err)
		return ai.TemplateQuestion(field), metrics.SourceTemplate
	}
	return text, source
}

// absorb merges what the transcript reveals into the profile. Without an
// interpreter only the latest answer is read, and only when it is a plain
// value of the asked attribute.
func (d *Driver) absorb(ctx context.Context, s *Session, transcript ai.Transcript) {
	var update profile.Profile

	if d.collaborators.Interpreter != nil {
		callCtx, cancel := d.callContext(ctx)
		defer cancel()

		var err error
		update, err = d.collaborators.Interpreter.Interpret(callCtx, transcript)
		if err != nil {
			d.failed(s, collaboratorInterpreter, err)
			return
		}
	} else if len(transcript) > 0 {
		last := transcript[len(transcript)-1]
		attr, ok := programs.AttributeOf(last.Field)
		if !ok {
			return
		}
		if err := update.Set(attr, last.Answer); err != nil {
			d.sessionLogger(s).Debug("answer is not a plain value",
				zap.String("field", last.Field),
				zap.Error(err),
			)
			return
		}
	}

	changed := s.Profile.Merge(update)
	if len(changed) == 0 {
		return
	}

	names := make([]string, 0, len(changed))
	for _, f := range changed {
		s.Asked.Add(programs.ColumnsOf(f)...)
		names = append(names, f.String())
	}
	d.sessionLogger(s).Debug("profile updated", zap.Strings("fields", names))
}

// eliminate grows the eliminated set with programs outside the shortlist,
// hidden by the exclude file or ruled out by the profile.
func (d *Driver) eliminate(ctx context.Context, s *Session) {
	log := d.sessionLogger(s)

	pipeline := filtering.New([]filtering.Filter{
		filtering.NewShortlist(s.Shortlist, log),
		filtering.NewExcludeFile(d.opts.ExcludeFile, log),
		filtering.NewDisqualified(d.engine, &s.Profile, log),
	}, log)
	if d.opts.ExcludeFile == "" {
		pipeline.DisableByName("exclude_file", "no exclude file configured")
	}
	if len(s.Profile.KnownFields()) == 0 {
		pipeline.DisableByName("disqualified", "nothing known about the user yet")
	}
	log.Debug("elimination pipeline", zap.Any("filters", pipeline.Describe()))

	left, err := pipeline.RunFilters(ctx, filtering.NewPrograms(d.catalogue.Programs()))
	if err != nil {
		log.Warn("eliminating programs failed", zap.Error(err))
		return
	}

	keep := selection.NewSet(left.IDs()...)
	for _, id := range d.catalogue.Programs() {
		if !keep.Has(id) {
			s.Eliminated.Add(id)
		}
	}
}

func (d *Driver) visible(s *Session, ids []string) []string {
	out := append([]string(nil), ids...)
	if d.opts.ExcludeFile == "" {
		return out
	}

	excluded, err := programs.LoadExcluded(d.opts.ExcludeFile)
	if err != nil {
		d.sessionLogger(s).Warn("reading exclude file", zap.String("path", d.opts.ExcludeFile), zap.Error(err))
		return out
	}

	p := filtering.NewPrograms(out)
	p.Exclude(excluded.IDs())
	return p.IDs()
}

func (d *Driver) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.opts.Timeout)
}

func (d *Driver) failed(s *Session, collaborator string, err error) {
	metrics.CollaboratorFailures.WithLabelValues(collaborator).Inc()
	d.sessionLogger(s).Warn("collaborator failed, using default",
		zap.String("collaborator", collaborator),
		zap.Error(err),
	)
}

func (d *Driver) sessionLogger(s *Session) *zap.Logger {
	return logger.WithFields(d.logger, logger.SessionFields(s.ID.String(), string(s.Stage))...)
}
