package profile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field identifies one attribute of the user profile.
type Field int

const (
	FieldAge Field = iota
	FieldCitizenship
	FieldPermanentAddress
	FieldLivesWithOthers
	FieldMonthlyIncome
	FieldEmployed
	FieldDisabled
	FieldVeteran
	FieldCriminalRecord
	FieldHasChildren
	FieldRefugee

	fieldCount
)

// Kind is the value type carried by a profile field.
type Kind int

const (
	KindBool Kind = iota
	KindInt
)

var fieldNames = [fieldCount]string{
	FieldAge:              "age",
	FieldCitizenship:      "citizen_or_lawful_resident",
	FieldPermanentAddress: "has_permanent_address",
	FieldLivesWithOthers:  "lives_with_people",
	FieldMonthlyIncome:    "monthly_income",
	FieldEmployed:         "employed",
	FieldDisabled:         "disabled",
	FieldVeteran:          "is_veteran",
	FieldCriminalRecord:   "has_criminal_record",
	FieldHasChildren:      "has_children",
	FieldRefugee:          "is_refugee",
}

var fieldDescriptions = [fieldCount]string{
	FieldAge:              "age in years",
	FieldCitizenship:      "whether the person is a U.S. citizen or lawful permanent resident",
	FieldPermanentAddress: "whether the person has a permanent place to live",
	FieldLivesWithOthers:  "whether the person lives with other people",
	FieldMonthlyIncome:    "household monthly income in dollars",
	FieldEmployed:         "whether the person currently has paid work",
	FieldDisabled:         "whether the person has a disability",
	FieldVeteran:          "whether the person served in the U.S. military",
	FieldCriminalRecord:   "whether the person has a criminal record",
	FieldHasChildren:      "whether the person has children in their care",
	FieldRefugee:          "whether the person has refugee status",
}

// Fields returns every profile field in schema order.
func Fields() []Field {
	fields := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// Description is a plain-language explanation of the field.
func (f Field) Description() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldDescriptions[f]
}

// Kind reports whether the field holds a number or a yes/no answer.
func (f Field) Kind() Kind {
	switch f {
	case FieldAge, FieldMonthlyIncome:
		return KindInt
	default:
		return KindBool
	}
}

// ParseField resolves a wire name such as "monthly_income".
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f := Field(0); f < fieldCount; f++ {
		if fieldNames[f] == name {
			return f, true
		}
	}
	return 0, false
}

// Profile is what is known about the user. A nil pointer means the answer is
// unknown; it is never treated as false or zero.
type Profile struct {
	Age                     *int  `json:"age,omitempty"`
	CitizenOrLawfulResident *bool `json:"citizen_or_lawful_resident,omitempty"`
	HasPermanentAddress     *bool `json:"has_permanent_address,omitempty"`
	LivesWithPeople         *bool `json:"lives_with_people,omitempty"`
	MonthlyIncome           *int  `json:"monthly_income,omitempty"`
	Employed                *bool `json:"employed,omitempty"`
	Disabled                *bool `json:"disabled,omitempty"`
	IsVeteran               *bool `json:"is_veteran,omitempty"`
	HasCriminalRecord       *bool `json:"has_criminal_record,omitempty"`
	HasChildren             *bool `json:"has_children,omitempty"`
	IsRefugee               *bool `json:"is_refugee,omitempty"`
}

func (p *Profile) boolRef(f Field) **bool {
	switch f {
	case FieldCitizenship:
		return &p.CitizenOrLawfulResident
	case FieldPermanentAddress:
		return &p.HasPermanentAddress
	case FieldLivesWithOthers:
		return &p.LivesWithPeople
	case FieldEmployed:
		return &p.Employed
	case FieldDisabled:
		return &p.Disabled
	case FieldVeteran:
		return &p.IsVeteran
	case FieldCriminalRecord:
		return &p.HasCriminalRecord
	case FieldHasChildren:
		return &p.HasChildren
	case FieldRefugee:
		return &p.IsRefugee
	}
	return nil
}

func (p *Profile) intRef(f Field) **int {
	switch f {
	case FieldAge:
		return &p.Age
	case FieldMonthlyIncome:
		return &p.MonthlyIncome
	}
	return nil
}

// Known reports whether the field has an answer.
func (p *Profile) Known(f Field) bool {
	if ref := p.intRef(f); ref != nil {
		return *ref != nil
	}
	if ref := p.boolRef(f); ref != nil {
		return *ref != nil
	}
	return false
}

// KnownFields lists the answered fields in schema order.
func (p *Profile) KnownFields() []Field {
	var known []Field
	for _, f := range Fields() {
		if p.Known(f) {
			known = append(known, f)
		}
	}
	return known
}

// Bool returns the value of a yes/no field.
func (p *Profile) Bool(f Field) (bool, bool) {
	ref := p.boolRef(f)
	if ref == nil || *ref == nil {
		return false, false
	}
	return **ref, true
}

// Int returns the value of a numeric field.
func (p *Profile) Int(f Field) (int, bool) {
	ref := p.intRef(f)
	if ref == nil || *ref == nil {
		return 0, false
	}
	return **ref, true
}

// Merge copies every known value of update into p and returns the fields whose
// value changed.
func (p *Profile) Merge(update Profile) []Field {
	var changed []Field
	for _, f := range Fields() {
		if v, ok := update.Int(f); ok {
			ref := p.intRef(f)
			if *ref == nil || **ref != v {
				*ref = &v
				changed = append(changed, f)
			}
			continue
		}
		if v, ok := update.Bool(f); ok {
			ref := p.boolRef(f)
			if *ref == nil || **ref != v {
				*ref = &v
				changed = append(changed, f)
			}
		}
	}
	return changed
}

// Set assigns a loosely typed value, as produced by a JSON decoder or a
// free-form answer, to the field.
func (p *Profile) Set(f Field, value any) error {
	switch f.Kind() {
	case KindInt:
		v, err := coerceInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		*p.intRef(f) = &v
	default:
		v, err := coerceBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		*p.boolRef(f) = &v
	}
	return nil
}

// FromMap builds a profile from attribute names to loosely typed values. Nil
// values stay unknown. Unlike model output, unknown names are an error here.
func FromMap(values map[string]any) (Profile, error) {
	var p Profile
	for name, value := range values {
		f, ok := ParseField(name)
		if !ok {
			return Profile{}, fmt.Errorf("unknown profile field %q", name)
		}
		if value == nil {
			continue
		}
		if err := p.Set(f, value); err != nil {
			return Profile{}, err
		}
	}
	return p, nil
}

// Clear forgets the answer for the field.
func (p *Profile) Clear(f Field) {
	if ref := p.intRef(f); ref != nil {
		*ref = nil
	}
	if ref := p.boolRef(f); ref != nil {
		*ref = nil
	}
}

func coerceBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "t", "1":
			return true, nil
		case "false", "no", "n", "f", "0":
			return false, nil
		}
	case float64:
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	case int:
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	}
	return false, fmt.Errorf("cannot interpret %v as yes/no", v)
}

// coerceInt accepts whole or fractional non-negative numbers that fit in an
// int. Ages and incomes are never negative.
func coerceInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return nonNegative(v, val)
	case int64:
		if val > math.MaxInt {
			return 0, fmt.Errorf("%v is out of range", v)
		}
		return nonNegative(v, int(val))
	case float64:
		return fromFloat(v, val)
	case string:
		trimmed := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		trimmed = strings.TrimPrefix(trimmed, "$")
		if i, err := strconv.Atoi(trimmed); err == nil {
			return nonNegative(v, i)
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return fromFloat(v, f)
		}
	}
	return 0, fmt.Errorf("cannot interpret %v as a number", v)
}

func fromFloat(v any, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot interpret %v as a number", v)
	}
	f = math.Round(f)
	// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
	if f < 0 || f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("%v is out of range", v)
	}
	return int(f), nil
}

func nonNegative(v any, i int) (int, error) {
	if i < 0 {
		return 0, fmt.Errorf("%v is out of range", v)
	}
	return i, nil
}
