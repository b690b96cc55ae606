package interview

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultShortlistThreshold = 6
	DefaultQuestionBudget     = 6
	DefaultTimeout            = 30 * time.Second
)

// FallbackPolicy decides what an interview recommends when ranking leaves no
// program with a positive score.
type FallbackPolicy string

const (
	// FallbackShortlist recommends the whole shortlist unranked.
	FallbackShortlist FallbackPolicy = "shortlist"
	// FallbackNone recommends nothing.
	FallbackNone FallbackPolicy = "none"
)

func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return FallbackShortlist, nil
	case FallbackShortlist, FallbackNone:
		return p, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q (want %q or %q)", s, FallbackShortlist, FallbackNone)
	}
}

// Options tune the interview flow.
type Options struct {
	// ShortlistThreshold is how many open answers are collected before the
	// shortlist is generated; generation happens after one more.
	ShortlistThreshold int
	// QuestionBudget caps the structured questions of the ranking stage.
	QuestionBudget int
	Fallback       FallbackPolicy
	// Timeout bounds every collaborator call.
	Timeout     time.Duration
	ExcludeFile string
}

func (o Options) withDefaults() Options {
	if o.ShortlistThreshold <= 0 {
		o.ShortlistThreshold = DefaultShortlistThreshold
	}
	if o.QuestionBudget <= 0 {
		o.QuestionBudget = DefaultQuestionBudget
	}
	if o.Fallback == "" {
		o.Fallback = FallbackShortlist
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}
