package ranking

import (
	"fmt"

	"github.com/spigell/welfare-interviewer/internal/profile"
	"github.com/spigell/welfare-interviewer/internal/programs"
)

// Baseline is the score every program starts from, so that unknown answers
// alone never push a program to the exclusion threshold.
const Baseline = 5000

// hardPenalty is the delta at or below which a fired rule disqualifies.
const hardPenalty = -100

// RuleResult records one rule that fired for a program.
type RuleResult struct {
	Name   string `json:"name"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type rule func(p *profile.Profile, c *programs.Criteria) (RuleResult, bool)

// rules is evaluated in order. A rule fires only when both the user's answer
// and the program's criterion are known.
var rules = []rule{
	ageRule,
	citizenshipRule,
	addressRule,
	householdRule,
	incomeRule,
	employmentRule,
	disabilityRule,
	veteranRule,
	criminalRecordRule,
	childrenRule,
	refugeeRule,
}

func fired(name string, delta int, format string, args ...any) (RuleResult, bool) {
	return RuleResult{Name: name, Delta: delta, Reason: fmt.Sprintf(format, args...)}, true
}

func ageRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.Age == nil || c.MinAge == nil || c.MaxAge == nil {
		return RuleResult{}, false
	}
	if *c.MinAge <= *p.Age && *p.Age <= *c.MaxAge {
		return fired("age", 2, "age %d within %d-%d", *p.Age, *c.MinAge, *c.MaxAge)
	}
	return RuleResult{}, false
}

func citizenshipRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.CitizenOrLawfulResident == nil || c.CitizensOnly == nil {
		return RuleResult{}, false
	}
	if *p.CitizenOrLawfulResident != *c.CitizensOnly {
		return fired("citizenship", -100, "citizenship status %t, program requires %t", *p.CitizenOrLawfulResident, *c.CitizensOnly)
	}
	return RuleResult{}, false
}

func addressRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.HasPermanentAddress == nil || c.PermanentAddressRequired == nil {
		return RuleResult{}, false
	}
	if *c.PermanentAddressRequired && !*p.HasPermanentAddress {
		return fired("permanent_address", -50, "program requires a permanent address")
	}
	return RuleResult{}, false
}

func householdRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.LivesWithPeople == nil || c.HouseholdSizeConsidered == nil {
		return RuleResult{}, false
	}
	if *p.LivesWithPeople == *c.HouseholdSizeConsidered {
		return fired("household", 1, "household situation matches")
	}
	return RuleResult{}, false
}

func incomeRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.MonthlyIncome == nil || c.MaxMonthlyIncome == nil {
		return RuleResult{}, false
	}
	if *p.MonthlyIncome <= *c.MaxMonthlyIncome {
		return fired("income", 3, "income %d within ceiling %d", *p.MonthlyIncome, *c.MaxMonthlyIncome)
	}
	return fired("income", -9, "income %d above ceiling %d", *p.MonthlyIncome, *c.MaxMonthlyIncome)
}

func employmentRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.Employed == nil || c.EmploymentRequired == nil {
		return RuleResult{}, false
	}
	if *p.Employed == *c.EmploymentRequired {
		return fired("employment", 1, "employment status matches")
	}
	return fired("employment", -3, "employment status %t, program expects %t", *p.Employed, *c.EmploymentRequired)
}

func disabilityRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.Disabled == nil || c.DisabilityConsidered == nil {
		return RuleResult{}, false
	}
	if *p.Disabled == *c.DisabilityConsidered {
		return fired("disability", 4, "disability status matches")
	}
	return RuleResult{}, false
}

func veteranRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.IsVeteran == nil || c.VeteranRequired == nil {
		return RuleResult{}, false
	}
	if *p.IsVeteran != *c.VeteranRequired {
		return fired("veteran", -100, "veteran status %t, program requires %t", *p.IsVeteran, *c.VeteranRequired)
	}
	return RuleResult{}, false
}

func criminalRecordRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.HasCriminalRecord == nil || c.CriminalRecordDisqualifying == nil {
		return RuleResult{}, false
	}
	if *p.HasCriminalRecord == *c.CriminalRecordDisqualifying {
		return fired("criminal_record", -100, "criminal record flag equals disqualifying flag")
	}
	return RuleResult{}, false
}

func childrenRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.HasChildren == nil || c.ForChildren == nil {
		return RuleResult{}, false
	}
	if *p.HasChildren == *c.ForChildren {
		return fired("children", 3, "children situation matches")
	}
	return RuleResult{}, false
}

// refugeeRule rewards a mismatch, unlike every other rule.
func refugeeRule(p *profile.Profile, c *programs.Criteria) (RuleResult, bool) {
	if p.IsRefugee == nil || c.ForRefugees == nil {
		return RuleResult{}, false
	}
	if *p.IsRefugee != *c.ForRefugees {
		return fired("refugee", 100, "refugee status %t, program focus %t", *p.IsRefugee, *c.ForRefugees)
	}
	return RuleResult{}, false
}
