package interview

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/metrics"
	"github.com/spigell/welfare-interviewer/internal/ranking"
)

// Reply is what the user sees after starting a session or answering.
type Reply struct {
	SessionID uuid.UUID        `json:"session_id"`
	Stage     Stage            `json:"stage"`
	Done      bool             `json:"done"`
	Question  *Question        `json:"question,omitempty"`
	Programs  []string         `json:"programs,omitempty"`
	Results   []ranking.Result `json:"results,omitempty"`
	Fallback  bool             `json:"fallback,omitempty"`
}

// Coordinator moves sessions through the shortlist and ranking stages.
// Concurrent sessions are independent; requests for one session are
// serialized by its lock.
type Coordinator struct {
	store  *Store
	driver *Driver
	logger *zap.Logger
	now    func() time.Time
}

func NewCoordinator(store *Store, driver *Driver, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		store:  store,
		driver: driver,
		logger: logger,
		now:    time.Now,
	}
}

// Start opens a session and asks its first open-ended question.
func (c *Coordinator) Start(ctx context.Context) Reply {
	s := c.store.Create()

	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.SessionsStarted.Inc()
	metrics.StageTransitions.WithLabelValues(string(StageShortlist)).Inc()
	c.driver.sessionLogger(s).Info("interview started")

	c.askOpen(ctx, s)
	s.touch(c.now())

	return replyOf(s)
}

// Respond records the user's answer to the pending question and returns the
// next question, or the recommendation once the interview is over.
func (c *Coordinator) Respond(ctx context.Context, id uuid.UUID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyAnswer
	}

	s, err := c.store.Get(id)
	if err != nil {
		return Reply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Done {
		return Reply{}, ErrSessionDone
	}
	s.touch(c.now())

	switch s.Stage {
	case StageShortlist:
		c.answerOpen(ctx, s, text)
	case StageRanking:
		if err := c.driver.Record(ctx, s, text); err != nil {
			return Reply{}, err
		}
		c.advance(ctx, s)
	}

	s.touch(c.now())
	return replyOf(s), nil
}

// Get returns a snapshot of the session.
func (c *Coordinator) Get(id uuid.UUID) (Snapshot, error) {
	s, err := c.store.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

func (c *Coordinator) Delete(id uuid.UUID) error {
	return c.store.Delete(id)
}

func (c *Coordinator) answerOpen(ctx context.Context, s *Session, text string) {
	question := ai.DefaultOpenQuestion
	if s.Pending != nil {
		question = s.Pending.Text
	}
	s.Open = append(s.Open, ai.Exchange{Question: question, Answer: text})
	s.Pending = nil

	// Without a conversational model there is nothing more to ask openly.
	if c.driver.collaborators.Conversationalist == nil || len(s.Open) > c.driver.opts.ShortlistThreshold {
		c.transition(ctx, s)
		return
	}

	c.askOpen(ctx, s)
}

func (c *Coordinator) askOpen(ctx context.Context, s *Session) {
	text, source := ai.DefaultOpenQuestion, metrics.SourceTemplate

	if conv := c.driver.collaborators.Conversationalist; conv != nil {
		callCtx, cancel := c.driver.callContext(ctx)
		q, err := conv.OpenQuestion(callCtx, s.Open)
		cancel()

		if err != nil {
			c.driver.failed(s, collaboratorConversationalist, err)
		} else {
			text, source = q, metrics.SourceOpen
		}
	}

	s.Pending = &Question{Text: text, Source: source}
	metrics.Questions.WithLabelValues(source).Inc()
}

func (c *Coordinator) transition(ctx context.Context, s *Session) {
	shortlist := c.shortlist(ctx, s)
	c.driver.absorb(ctx, s, s.Open)
	c.driver.Begin(ctx, s, shortlist)
	c.advance(ctx, s)
}

// shortlist resolves the model's candidates against the catalogue. Any
// failure, or a list naming no known program, yields the whole catalogue.
func (c *Coordinator) shortlist(ctx context.Context, s *Session) []string {
	catalogue := c.driver.catalogue
	log := c.driver.sessionLogger(s)

	shortlister := c.driver.collaborators.Shortlister
	if shortlister == nil {
		return catalogue.Programs()
	}

	callCtx, cancel := c.driver.callContext(ctx)
	defer cancel()

	names, err := shortlister.Shortlist(callCtx, s.Open, catalogue.All())
	if err != nil {
		c.driver.failed(s, collaboratorShortlister, err)
		return catalogue.Programs()
	}

	found, missing := catalogue.Lookup(names)
	if len(missing) > 0 {
		log.Debug("shortlist names unknown programs", zap.Strings("programs", missing))
	}
	if len(found) == 0 {
		log.Warn("shortlist matched no known program, using the whole catalogue",
			zap.Strings("names", names),
		)
		return catalogue.Programs()
	}

	return found
}

func (c *Coordinator) advance(ctx context.Context, s *Session) {
	if s.Questions >= c.driver.opts.QuestionBudget {
		c.driver.Finish(s)
		return
	}
	if _, ok := c.driver.Next(ctx, s); !ok {
		c.driver.Finish(s)
	}
}

func replyOf(s *Session) Reply {
	reply := Reply{
		SessionID: s.ID,
		Stage:     s.Stage,
		Done:      s.Done,
		Fallback:  s.Fallback,
	}
	if s.Pending != nil {
		q := *s.Pending
		reply.Question = &q
	}
	if s.Done {
		reply.Programs = append([]string(nil), s.Recommended...)
		reply.Results = append([]ranking.Result(nil), s.Results...)
	}
	return reply
}
