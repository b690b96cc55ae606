package filtering

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/profile"
)

// Disqualifier reports whether the profile rules a program out.
type Disqualifier interface {
	Disqualified(p *profile.Profile, program string) bool
}

type disqualifiedFilter struct {
	enabled bool
	reason  string
	rules   Disqualifier
	profile *profile.Profile
	logger  *zap.Logger
}

// NewDisqualified creates a filter that removes programs the profile answers
// already rule out.
func NewDisqualified(rules Disqualifier, p *profile.Profile, logger *zap.Logger) Filter {
	return &disqualifiedFilter{enabled: true, rules: rules, profile: p, logger: logger}
}

func (f *disqualifiedFilter) Name() string { return "disqualified" }

func (f *disqualifiedFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *disqualifiedFilter) IsEnabled() bool { return f.enabled }

func (f *disqualifiedFilter) Validate() error {
	if f.rules == nil {
		return errors.New("ranking rules are required")
	}
	return nil
}

func (f *disqualifiedFilter) Apply(_ context.Context, p *Programs) (*Programs, Step, error) {
	initial := p.Len()
	if f.profile == nil {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	removed := p.ExcludeFunc(func(id string) bool {
		return f.rules.Disqualified(f.profile, id)
	})

	if f.logger != nil && len(removed) > 0 {
		f.logger.Debug("excluding programs disqualified by answers",
			zap.Strings("excluded_programs", removed),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *disqualifiedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason}
}
