package selection

import (
	"sort"

	"github.com/spigell/welfare-interviewer/internal/programs"
)

// distinctBonusFactor scales how much retained variety adds to a field score.
const distinctBonusFactor = 0.1

// Set is a string set used for the asked-fields and eliminated-programs
// blacklists.
type Set map[string]struct{}

// NewSet builds a set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s Set) Add(items ...string) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the items in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FieldScore explains how a field was scored.
type FieldScore struct {
	Field         string  `json:"field"`
	Groups        int     `json:"groups"`
	Largest       int     `json:"largest_group"`
	Distinct      int     `json:"distinct"`
	DistinctAll   int     `json:"distinct_all"`
	Normalized    float64 `json:"normalized"`
	DistinctBonus float64 `json:"distinct_bonus"`
	Raw           float64 `json:"raw"`
	Weight        float64 `json:"weight"`
	Weighted      float64 `json:"weighted"`
}

// Optimizer chooses the next most informative field to ask about. It only
// reads the catalogue and is safe for concurrent use.
type Optimizer struct {
	catalogue   *programs.Catalogue
	weights     Weights
	distinctAll map[string]int
}

// New precomputes the number of distinct non-null values of each field over
// the whole catalogue.
func New(catalogue *programs.Catalogue, weights Weights) *Optimizer {
	if weights == nil {
		weights = DefaultWeights()
	}

	distinctAll := make(map[string]int)
	for _, field := range catalogue.Fields() {
		column, _ := catalogue.Column(field)
		distinctAll[field] = countDistinct(column)
	}

	return &Optimizer{
		catalogue:   catalogue,
		weights:     weights,
		distinctAll: distinctAll,
	}
}

// Select returns up to topN field names ordered by weighted informativeness.
// Ties keep the dataset column order. An empty result means there is nothing
// left worth asking.
func (o *Optimizer) Select(asked, eliminated Set, topN int) []string {
	if topN <= 0 {
		return nil
	}

	scores := o.Scores(asked, eliminated)
	if len(scores) > topN {
		scores = scores[:topN]
	}

	out := make([]string, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.Field)
	}
	return out
}

// Scores returns the score breakdown of every remaining field, best first.
func (o *Optimizer) Scores(asked, eliminated Set) []FieldScore {
	var rows []string
	for _, program := range o.catalogue.Programs() {
		if !eliminated.Has(program) {
			rows = append(rows, program)
		}
	}

	var fields []string
	for _, field := range o.catalogue.Fields() {
		if !asked.Has(field) {
			fields = append(fields, field)
		}
	}

	if len(rows) == 0 || len(fields) == 0 {
		return nil
	}

	scores := make([]FieldScore, 0, len(fields))
	for _, field := range fields {
		values := make([]programs.Value, 0, len(rows))
		for _, program := range rows {
			v, _ := o.catalogue.Value(program, field)
			values = append(values, v)
		}
		scores = append(scores, o.score(field, values))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Weighted > scores[j].Weighted
	})

	return scores
}

func (o *Optimizer) score(field string, values []programs.Value) FieldScore {
	groups := make(map[programs.Value]int)
	for _, v := range values {
		groups[v]++
	}

	s := FieldScore{
		Field:       field,
		Groups:      len(groups),
		Distinct:    countDistinct(values),
		DistinctAll: o.distinctAll[field],
		Weight:      o.weights.Of(field),
	}

	for _, n := range groups {
		if n > s.Largest {
			s.Largest = n
		}
	}

	// A field every remaining program agrees on cannot discriminate.
	if s.Distinct <= 1 {
		return s
	}

	total := float64(len(values))
	s.Normalized = (total - float64(s.Largest)) / total
	s.DistinctBonus = float64(s.Distinct) / float64(s.DistinctAll)
	s.Raw = s.Normalized * (1 + distinctBonusFactor*s.DistinctBonus)
	s.Weighted = s.Raw * s.Weight

	return s
}

// countDistinct counts distinct non-null values.
func countDistinct(values []programs.Value) int {
	seen := make(map[programs.Value]struct{})
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
