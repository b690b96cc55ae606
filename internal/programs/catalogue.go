package programs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Criteria is the eligibility record of one program. Nil means the dataset
// does not state the criterion.
type Criteria struct {
	MinAge                      *int  `json:"min_age,omitempty"`
	MaxAge                      *int  `json:"max_age,omitempty"`
	CitizensOnly                *bool `json:"is_only_for_citizens_and_lawful_residents,omitempty"`
	PermanentAddressRequired    *bool `json:"needs_permanent_address,omitempty"`
	HouseholdSizeConsidered     *bool `json:"household_size_considered,omitempty"`
	MaxMonthlyIncome            *int  `json:"max_monthly_income,omitempty"`
	EmploymentRequired          *bool `json:"employment_required,omitempty"`
	DisabilityConsidered        *bool `json:"disability_status_considered,omitempty"`
	VeteranRequired             *bool `json:"is_veteran,omitempty"`
	CriminalRecordDisqualifying *bool `json:"criminal_record_disqualifying,omitempty"`
	ForChildren                 *bool `json:"is_for_children,omitempty"`
	ForRefugees                 *bool `json:"is_for_refugees,omitempty"`
}

// Program is a catalogue entry as exposed to callers.
type Program struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Criteria    Criteria `json:"criteria"`
}

// Catalogue is the read-only eligibility dataset. It is built once by Load or
// New and never mutated afterwards, so it can be shared between sessions.
type Catalogue struct {
	fields       []string
	fieldIndex   map[string]int
	programs     []string
	programIndex map[string]int
	normalized   map[string]int
	descriptions []string
	cells        [][]Value
	criteria     []Criteria
}

// Row is one program used to build a catalogue in memory.
type Row struct {
	Program     string
	Description string
	Values      map[string]Value
}

// Load reads a CSV dataset from path.
func Load(path string) (*Catalogue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	catalogue, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", path, err)
	}

	return catalogue, nil
}

// Parse reads a CSV dataset. The first record is the header.
func Parse(r io.Reader) (*Catalogue, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	names := make([]string, len(header))
	programCol, descriptionCol := -1, -1
	var fields []string
	seen := make(map[string]bool)
	for i, h := range header {
		name := canonicalName(h)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		names[i] = name

		switch name {
		case ColumnProgram:
			programCol = i
		case ColumnDescription:
			descriptionCol = i
		default:
			fields = append(fields, name)
		}
	}

	if programCol == -1 {
		return nil, fmt.Errorf("missing %q column", ColumnProgram)
	}
	for _, c := range criteriaColumns {
		if !seen[c.name] {
			return nil, fmt.Errorf("missing %q column", c.name)
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := Row{Values: make(map[string]Value, len(fields))}
		for i, raw := range record {
			switch i {
			case programCol:
				row.Program = strings.TrimSpace(raw)
				continue
			case descriptionCol:
				row.Description = strings.TrimSpace(raw)
				continue
			}

			v, err := parseCell(names[i], raw)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, names[i], err)
			}
			row.Values[names[i]] = v
		}

		rows = append(rows, row)
	}

	return New(fields, rows)
}

func parseCell(name, raw string) (Value, error) {
	c, ok := lookupColumn(name)
	if !ok {
		return parseAny(raw)
	}
	if c.kind == KindInt {
		return parseInt(raw)
	}
	return parseBool(raw)
}

// New builds a catalogue from rows. fields fixes the column order; values
// missing from a row are stored as explicit nulls.
func New(fields []string, rows []Row) (*Catalogue, error) {
	c := &Catalogue{
		fields:       append([]string(nil), fields...),
		fieldIndex:   make(map[string]int, len(fields)),
		programIndex: make(map[string]int, len(rows)),
		normalized:   make(map[string]int, len(rows)),
	}

	for i, f := range c.fields {
		if _, ok := c.fieldIndex[f]; ok {
			return nil, fmt.Errorf("duplicate field %q", f)
		}
		c.fieldIndex[f] = i
	}

	for _, row := range rows {
		id := strings.TrimSpace(row.Program)
		if id == "" {
			return nil, fmt.Errorf("program #%d has an empty identifier", len(c.programs)+1)
		}
		if _, ok := c.programIndex[id]; ok {
			return nil, fmt.Errorf("duplicate program %q", id)
		}

		cells := make([]Value, len(c.fields))
		for name, v := range row.Values {
			idx, ok := c.fieldIndex[name]
			if !ok {
				return nil, fmt.Errorf("program %q: unknown field %q", id, name)
			}
			cells[idx] = v
		}

		idx := len(c.programs)
		c.programIndex[id] = idx
		if _, ok := c.normalized[normalize(id)]; !ok {
			c.normalized[normalize(id)] = idx
		}
		c.programs = append(c.programs, id)
		c.descriptions = append(c.descriptions, row.Description)
		c.cells = append(c.cells, cells)
		c.criteria = append(c.criteria, c.buildCriteria(cells))
	}

	return c, nil
}

func (c *Catalogue) buildCriteria(cells []Value) Criteria {
	get := func(name string) Value {
		if idx, ok := c.fieldIndex[name]; ok {
			return cells[idx]
		}
		return Null
	}

	return Criteria{
		MinAge:                      get(ColumnMinAge).IntPtr(),
		MaxAge:                      get(ColumnMaxAge).IntPtr(),
		CitizensOnly:                get(ColumnCitizensOnly).BoolPtr(),
		PermanentAddressRequired:    get(ColumnPermanentAddress).BoolPtr(),
		HouseholdSizeConsidered:     get(ColumnHouseholdSize).BoolPtr(),
		MaxMonthlyIncome:            get(ColumnMaxMonthlyIncome).IntPtr(),
		EmploymentRequired:          get(ColumnEmploymentRequired).BoolPtr(),
		DisabilityConsidered:        get(ColumnDisabilityConsidered).BoolPtr(),
		VeteranRequired:             get(ColumnVeteran).BoolPtr(),
		CriminalRecordDisqualifying: get(ColumnCriminalDisqualifying).BoolPtr(),
		ForChildren:                 get(ColumnForChildren).BoolPtr(),
		ForRefugees:                 get(ColumnForRefugees).BoolPtr(),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Len returns the number of programs.
func (c *Catalogue) Len() int {
	return len(c.programs)
}

// Programs returns program identifiers in dataset order.
func (c *Catalogue) Programs() []string {
	return append([]string(nil), c.programs...)
}

// Fields returns the field names in column order.
func (c *Catalogue) Fields() []string {
	return append([]string(nil), c.fields...)
}

// Has reports whether the program exists.
func (c *Catalogue) Has(program string) bool {
	_, ok := c.programIndex[program]
	return ok
}

// Value returns the cell for program and field.
func (c *Catalogue) Value(program, field string) (Value, bool) {
	row, ok := c.programIndex[program]
	if !ok {
		return Null, false
	}
	col, ok := c.fieldIndex[field]
	if !ok {
		return Null, false
	}
	return c.cells[row][col], true
}

// Criteria returns the eligibility record of program.
func (c *Catalogue) Criteria(program string) (Criteria, bool) {
	row, ok := c.programIndex[program]
	if !ok {
		return Criteria{}, false
	}
	return c.criteria[row], true
}

// Description returns the free-text description of program, if any.
func (c *Catalogue) Description(program string) string {
	row, ok := c.programIndex[program]
	if !ok {
		return ""
	}
	return c.descriptions[row]
}

// Program returns the full catalogue entry.
func (c *Catalogue) Program(id string) (Program, bool) {
	row, ok := c.programIndex[id]
	if !ok {
		return Program{}, false
	}
	return Program{ID: id, Description: c.descriptions[row], Criteria: c.criteria[row]}, true
}

// All returns every catalogue entry in dataset order.
func (c *Catalogue) All() []Program {
	out := make([]Program, 0, len(c.programs))
	for i, id := range c.programs {
		out = append(out, Program{ID: id, Description: c.descriptions[i], Criteria: c.criteria[i]})
	}
	return out
}

// Lookup resolves names to catalogue identifiers, ignoring case and
// surrounding whitespace. Order is preserved and repeated names collapse to
// their first occurrence. Names that match nothing are returned as missing.
func (c *Catalogue) Lookup(names []string) (found []string, missing []string) {
	seen := make(map[int]bool, len(names))
	for _, name := range names {
		idx, ok := c.programIndex[strings.TrimSpace(name)]
		if !ok {
			idx, ok = c.normalized[normalize(name)]
		}
		if !ok {
			if strings.TrimSpace(name) != "" {
				missing = append(missing, name)
			}
			continue
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		found = append(found, c.programs[idx])
	}
	return found, missing
}

// Column returns the values of field for every program, in dataset order.
func (c *Catalogue) Column(field string) ([]Value, bool) {
	col, ok := c.fieldIndex[field]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(c.cells))
	for i, row := range c.cells {
		out[i] = row[col]
	}
	return out, true
}
