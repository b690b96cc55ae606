package interview

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/phrasing"
	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/ranking"
	"github.com/spigell/welfare-interviewer/internal/selection"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionDone     = errors.New("session is finished")
	ErrEmptyAnswer     = errors.New("answer must not be empty")
	ErrNoPendingField  = errors.New("no structured question is pending")
)

// Stage is the phase of an interview. A session moves from StageShortlist to
// StageRanking once and never back.
type Stage string

const (
	StageShortlist Stage = "shortlist"
	StageRanking   Stage = "ranking"
)

// Question is a question waiting for the user's answer. Field is empty for
// open-ended questions.
type Question struct {
	Field  string `json:"field,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Session is the state of one interview. All fields are guarded by mu; the
// coordinator holds the lock for the whole of a request.
type Session struct {
	mu sync.Mutex

	ID    uuid.UUID
	Stage Stage
	Done  bool

	// Open holds the free-text exchanges of the shortlist stage, Exchanges the
	// structured ones of the ranking stage.
	Open      ai.Transcript
	Exchanges ai.Transcript

	Profile    profile.Profile
	Asked      selection.Set
	Eliminated selection.Set
	Shortlist  []string

	Pending   *Question
	Questions int

	Results     []ranking.Result
	Recommended []string
	Fallback    bool

	CreatedAt time.Time
	UpdatedAt time.Time

	pool    *phrasing.PoolPhraser
	touched atomic.Int64
}

func newSession(id uuid.UUID, now time.Time) *Session {
	s := &Session{
		ID:         id,
		Stage:      StageShortlist,
		Asked:      selection.NewSet(),
		Eliminated: selection.NewSet(),
		CreatedAt:  now,
		UpdatedAt:  now,
		pool:       phrasing.NewPoolPhraser(seedOf(id)),
	}
	s.touched.Store(now.UnixNano())
	return s
}

// seedOf derives the paraphrase seed from the session id so a session always
// phrases its questions the same way.
func seedOf(id uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID          uuid.UUID        `json:"id"`
	Stage       Stage            `json:"stage"`
	Done        bool             `json:"done"`
	Open        ai.Transcript    `json:"open_transcript,omitempty"`
	Exchanges   ai.Transcript    `json:"exchanges,omitempty"`
	Profile     profile.Profile  `json:"profile"`
	Asked       []string         `json:"asked_fields"`
	Eliminated  []string         `json:"eliminated_programs"`
	Shortlist   []string         `json:"shortlist,omitempty"`
	Pending     *Question        `json:"pending,omitempty"`
	Questions   int              `json:"questions_asked"`
	Results     []ranking.Result `json:"results,omitempty"`
	Recommended []string         `json:"recommended,omitempty"`
	Fallback    bool             `json:"fallback,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Snapshot copies the session state under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		Stage:       s.Stage,
		Done:        s.Done,
		Open:        append(ai.Transcript(nil), s.Open...),
		Exchanges:   append(ai.Transcript(nil), s.Exchanges...),
		Profile:     s.Profile,
		Asked:       s.Asked.Sorted(),
		Eliminated:  s.Eliminated.Sorted(),
		Shortlist:   append([]string(nil), s.Shortlist...),
		Questions:   s.Questions,
		Results:     append([]ranking.Result(nil), s.Results...),
		Recommended: append([]string(nil), s.Recommended...),
		Fallback:    s.Fallback,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Pending != nil {
		pending := *s.Pending
		snap.Pending = &pending
	}
	return snap
}

// touch records activity. Callers hold mu; the atomic copy lets the store
// sweep without waiting for a request in flight.
func (s *Session) touch(now time.Time) {
	s.UpdatedAt = now
	s.touched.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.touched.Load())
}
