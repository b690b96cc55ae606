package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/programs"
)

type excludeFileFilter struct {
	enabled bool
	reason  string
	path    string
	logger  *zap.Logger
}

// NewExcludeFile creates a filter that removes programs listed in the
// operator's exclude file. The file is re-read on every run so edits apply to
// running interviews.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	return &excludeFileFilter{enabled: true, path: strings.TrimSpace(path), logger: logger}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return f.enabled }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, p *Programs) (*Programs, Step, error) {
	initial := p.Len()
	if f.path == "" {
		return p, Step{Initial: initial, Dropped: 0, Left: p.Len()}, nil
	}

	excluded, err := programs.LoadExcluded(f.path)
	if err != nil {
		return p, Step{}, fmt.Errorf("getting excluded programs from file: %w", err)
	}

	removed := p.Exclude(excluded.IDs())
	if f.logger != nil && len(removed) > 0 {
		f.logger.Debug("excluding programs based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_programs", removed),
			zap.Int("programs_left", p.Len()),
		)
	}

	return p, Step{Initial: initial, Dropped: len(removed), Left: p.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.enabled, Reason: f.reason, Details: details}
}
