package ranking

import (
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

// Result is the score of one candidate program with the rules that produced it.
type Result struct {
	Program string       `json:"program"`
	Score   int          `json:"score"`
	Rules   []RuleResult `json:"rules,omitempty"`
}

// Engine scores a partially known profile against catalogue programs.
type Engine struct {
	catalogue *programs.Catalogue
	rules     []rule
	logger    *zap.Logger
}

func New(catalogue *programs.Catalogue, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{catalogue: catalogue, rules: rules, logger: logger}
}

// Rank scores every candidate and returns the programs with a positive score,
// best first. Ties keep the candidate order. Candidates missing from the
// catalogue are skipped and repeated candidates count once.
func (e *Engine) Rank(p *profile.Profile, candidates []string) []Result {
	if p == nil {
		p = &profile.Profile{}
	}

	results := make([]Result, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))

	for _, program := range candidates {
		if _, ok := seen[program]; ok {
			continue
		}
		seen[program] = struct{}{}

		criteria, ok := e.catalogue.Criteria(program)
		if !ok {
			e.logger.Debug("skipping unknown program", zap.String("program", program))
			continue
		}

		result := e.score(p, &criteria)
		result.Program = program

		if result.Score <= 0 {
			e.logger.Debug("dropping program with non-positive score",
				zap.String("program", program),
				zap.Int("score", result.Score),
			)
			continue
		}

		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Disqualified reports whether a hard rule fired for program. Unknown programs
// are not disqualified.
func (e *Engine) Disqualified(p *profile.Profile, program string) bool {
	if p == nil {
		return false
	}

	criteria, ok := e.catalogue.Criteria(program)
	if !ok {
		return false
	}

	for _, r := range e.score(p, &criteria).Rules {
		if r.Delta <= hardPenalty {
			return true
		}
	}
	return false
}

// IDs returns the program identifiers of results in order.
func IDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Program)
	}
	return ids
}

func (e *Engine) score(p *profile.Profile, c *programs.Criteria) Result {
	result := Result{Score: Baseline}
	for _, apply := range e.rules {
		if r, ok := apply(p, c); ok {
			result.Score += r.Delta
			result.Rules = append(result.Rules, r)
		}
	}
	return result
}
