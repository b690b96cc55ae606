package filtering

// Programs is the ordered list of programs still in play.
type Programs struct {
	items []string
}

func NewPrograms(ids []string) *Programs {
	return &Programs{items: append([]string(nil), ids...)}
}

func (p *Programs) Len() int { return len(p.items) }

// IDs returns a copy of the remaining identifiers.
func (p *Programs) IDs() []string {
	return append([]string(nil), p.items...)
}

// Exclude removes the given identifiers and returns the ones actually removed.
func (p *Programs) Exclude(ids []string) []string {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	return p.ExcludeFunc(func(id string) bool {
		_, ok := drop[id]
		return ok
	})
}

// ExcludeFunc removes every identifier for which fn returns true.
func (p *Programs) ExcludeFunc(fn func(id string) bool) []string {
	var removed []string
	kept := p.items[:0]
	for _, id := range p.items {
		if fn(id) {
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	p.items = kept
	return removed
}
