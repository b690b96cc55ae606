package filtering

import (
	"context"
	"strconv"

	"go.uber.org/zap"
)

type shortlistFilter struct {
	enabled   bool
	reason    string
	shortlist map[string]struct{}
	logger    *zap.Logger
}

// NewShortlist creates a filter that keeps only shortlisted programs. An empty
// shortlist disables the filter.
func NewShortlist(shortlist []string, logger *zap.Logger) Filter {
	set := make(map[string]struct{}, len(shortlist))
	for _, id := range shortlist {
		set[id] = struct{}{}
	}

	f := &shortlistFilter{enabled: true, shortlist: set, logger: logger}
	if len(set) == 0 {
		f.Disable("no shortlist")
	}
	return f
}

func (f *shortlistFilter) Name() string { return "shortlist" }

func (f *shortlistFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *shortlistFilter) IsEnabled() bool { return f.enabled }

func (f *shortlistFilter) Validate() error { return nil }

func (f *shortlistFilter) Apply(_ context.Context, p *Programs) (*Programs, Step, error) {
	initial := p.Len()
	removed := p.ExcludeFunc(func(id string) bool {
		_, ok := f.shortlist[id]
		return !ok
	})

	if f.logger != nil && len(removed) > 0 {
		f.logger.Debug("excluding programs outside the shortlist",
			zap.Strings("excluded_programs", removed),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *shortlistFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"size": strconv.Itoa(len(f.shortlist))},
	}
}
