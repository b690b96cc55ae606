package programs

import (
	"strings"

	"github.com/spigell/welfare-interviewer/internal/profile"
)

// Canonical dataset columns.
const (
	ColumnProgram               = "program"
	ColumnDescription           = "description"
	ColumnMinAge                = "min_age"
	ColumnMaxAge                = "max_age"
	ColumnCitizensOnly          = "is_only_for_citizens_and_lawful_residents"
	ColumnPermanentAddress      = "needs_permanent_address"
	ColumnHouseholdSize         = "household_size_considered"
	ColumnMaxMonthlyIncome      = "max_monthly_income"
	ColumnEmploymentRequired    = "employment_required"
	ColumnDisabilityConsidered  = "disability_status_considered"
	ColumnVeteran               = "is_veteran"
	ColumnCriminalDisqualifying = "criminal_record_disqualifying"
	ColumnForChildren           = "is_for_children"
	ColumnForRefugees           = "is_for_refugees"
)

type column struct {
	name      string
	kind      Kind
	attribute profile.Field
	aliases   []string
}

// criteriaColumns is the fixed eligibility schema in dataset order.
var criteriaColumns = []column{
	{ColumnMinAge, KindInt, profile.FieldAge, []string{"minimum_age"}},
	{ColumnMaxAge, KindInt, profile.FieldAge, []string{"maximum_age"}},
	{ColumnCitizensOnly, KindBool, profile.FieldCitizenship, []string{"citizenship", "is_citizen", "citizen"}},
	{ColumnPermanentAddress, KindBool, profile.FieldPermanentAddress, []string{"address", "has_address", "stable_address"}},
	{ColumnHouseholdSize, KindBool, profile.FieldLivesWithOthers, []string{"household_size", "household"}},
	{ColumnMaxMonthlyIncome, KindInt, profile.FieldMonthlyIncome, []string{"income_limit", "monthly_income_limit"}},
	{ColumnEmploymentRequired, KindBool, profile.FieldEmployed, []string{"requires_employment", "employment"}},
	{ColumnDisabilityConsidered, KindBool, profile.FieldDisabled, []string{"disability_status", "disabled"}},
	{ColumnVeteran, KindBool, profile.FieldVeteran, []string{"veteran"}},
	{ColumnCriminalDisqualifying, KindBool, profile.FieldCriminalRecord, []string{"criminal_record", "has_criminal_record"}},
	{ColumnForChildren, KindBool, profile.FieldHasChildren, []string{"child", "has_child", "children"}},
	{ColumnForRefugees, KindBool, profile.FieldRefugee, []string{"refugee", "for_refugees"}},
}

var (
	programAliases     = []string{ColumnProgram, "name", "program_name", "title"}
	descriptionAliases = []string{ColumnDescription, "desc", "summary"}
)

// canonicalName maps a CSV header to its canonical column name. Unknown
// headers are returned normalized.
func canonicalName(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, a := range programAliases {
		if h == a {
			return ColumnProgram
		}
	}
	for _, a := range descriptionAliases {
		if h == a {
			return ColumnDescription
		}
	}
	for _, c := range criteriaColumns {
		if h == c.name {
			return c.name
		}
		for _, a := range c.aliases {
			if h == a {
				return c.name
			}
		}
	}
	return h
}

func lookupColumn(name string) (column, bool) {
	for _, c := range criteriaColumns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

// AttributeOf returns the profile attribute a question about the dataset
// column collects.
func AttributeOf(col string) (profile.Field, bool) {
	c, ok := lookupColumn(col)
	if !ok {
		return 0, false
	}
	return c.attribute, true
}

// ColumnsOf lists the dataset columns answered by the profile attribute.
func ColumnsOf(f profile.Field) []string {
	var cols []string
	for _, c := range criteriaColumns {
		if c.attribute == f {
			cols = append(cols, c.name)
		}
	}
	return cols
}
