// Package phrasing turns profile attributes into user-facing questions without
// a language model.
package phrasing

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/spigell/welfare-interviewer/internal/ai"
	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

// ErrTopicUsed is returned when a topic was already asked about in the
// session.
var ErrTopicUsed = errors.New("topic already used")

// Pool returns a copy of the paraphrases for the attribute.
func Pool(f profile.Field) []string {
	return append([]string(nil), pools[f]...)
}

// Phrase picks a paraphrase for the attribute. The same seed always yields the
// same phrase.
func Phrase(f profile.Field, seed uint64) (string, bool) {
	pool := pools[f]
	if len(pool) == 0 {
		return "", false
	}

	r := rand.New(rand.NewPCG(seed, uint64(f)))
	return pool[r.IntN(len(pool))], true
}

// Topics is the set of attributes not yet asked about.
type Topics struct {
	remaining map[profile.Field]struct{}
}

// NewTopics returns a set holding every attribute that has a paraphrase pool.
func NewTopics() *Topics {
	t := &Topics{remaining: make(map[profile.Field]struct{}, len(pools))}
	for f := range pools {
		t.remaining[f] = struct{}{}
	}
	return t
}

func (t *Topics) Has(f profile.Field) bool {
	_, ok := t.remaining[f]
	return ok
}

// Take consumes the topic and reports whether it was still available.
func (t *Topics) Take(f profile.Field) bool {
	if !t.Has(f) {
		return false
	}
	delete(t.remaining, f)
	return true
}

// Remaining lists the unused topics in schema order.
func (t *Topics) Remaining() []profile.Field {
	out := make([]profile.Field, 0, len(t.remaining))
	for f := range t.remaining {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PoolPhraser phrases questions from the paraphrase pools. Each topic is
// phrased once per phraser, so one phraser serves one session.
type PoolPhraser struct {
	mu     sync.Mutex
	seed   uint64
	asked  uint64
	topics *Topics
}

var _ ai.QuestionPhraser = (*PoolPhraser)(nil)

func NewPoolPhraser(seed uint64) *PoolPhraser {
	return &PoolPhraser{seed: seed, topics: NewTopics()}
}

// PhraseQuestion phrases a question about a dataset column.
func (p *PoolPhraser) PhraseQuestion(_ context.Context, field string) (string, error) {
	attr, ok := programs.AttributeOf(field)
	if !ok {
		return "", fmt.Errorf("no paraphrases for %q: %w", field, ai.ErrNoAnswer)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.topics.Take(attr) {
		return "", fmt.Errorf("%s: %w", attr, ErrTopicUsed)
	}

	question, ok := Phrase(attr, p.seed+p.asked)
	if !ok {
		return "", fmt.Errorf("no paraphrases for %q: %w", field, ai.ErrNoAnswer)
	}
	p.asked++

	return question, nil
}
