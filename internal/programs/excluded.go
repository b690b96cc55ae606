package programs

import (
	"encoding/json"
	"os"
	"time"
)

// ExcludedPrograms is the operator-maintained list of programs hidden from
// interviews.
type ExcludedPrograms struct {
	Items []*ExcludedProgram
}

type ExcludedProgram struct {
	ID         string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// NewExcluded builds entries for ids stamped with the current time.
func NewExcluded(reason string, ids ...string) *ExcludedPrograms {
	excluded := &ExcludedPrograms{}
	for _, id := range ids {
		excluded.Items = append(excluded.Items, &ExcludedProgram{
			ID:         id,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads the exclude file. A missing or empty file yields an empty
// list.
func LoadExcluded(path string) (*ExcludedPrograms, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedPrograms{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPrograms{}, nil
	}

	var excluded ExcludedPrograms
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedPrograms) Append(s *ExcludedPrograms) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedPrograms) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, p := range e.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

func (e *ExcludedPrograms) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
