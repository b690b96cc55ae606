package phrasing

import "github.com/spigell/welfare-interviewer/internal/profile"

var pools = map[profile.Field][]string{
	profile.FieldAge: {
		"How old are you?",
		"Can you tell me your age?",
		"What's your current age?",
		"How many years old are you?",
		"Please share your age.",
		"Could you tell me your age in years?",
		"What age are you right now?",
		"May I ask your age?",
		"What is your age today?",
		"About how old are you?",
	},
	profile.FieldCitizenship: {
		"Do you have legal status to live in the United States?",
		"Are you a citizen or lawful resident of the U.S.?",
		"Do you hold a U.S. passport or a green card?",
		"Do you have permission to live in the U.S. permanently?",
		"Do you currently have U.S. citizenship or permanent residency?",
		"Are you recognized as a U.S. citizen or a green card holder?",
	},
	profile.FieldPermanentAddress: {
		"Do you have a permanent place to live?",
		"Do you have a place you stay most of the time?",
		"Do you have a home you can list as your address?",
		"Do you currently live at a fixed address?",
		"Is there a main address where you live?",
		"Do you have housing you consider permanent?",
		"Do you have a usual place of residence?",
	},
	profile.FieldLivesWithOthers: {
		"Do you live by yourself or with other people?",
		"Are there other people living with you?",
		"Do you share your home with family, friends, or others?",
		"Is your household just you, or are there others?",
		"Do you currently live with anyone else?",
		"Do you have family members or roommates living with you?",
	},
	profile.FieldMonthlyIncome: {
		"What's your monthly income?",
		"About how much money do you bring in each month?",
		"What is your household's total income per month?",
		"How much do you earn in a typical month?",
		"Roughly what is your monthly income before taxes?",
	},
	profile.FieldEmployed: {
		"Are you currently working a job?",
		"Do you have a job right now?",
		"Are you employed at the moment?",
		"Do you have paid work right now?",
		"Are you employed either part-time or full-time?",
	},
	profile.FieldDisabled: {
		"Do you have a disability?",
		"Do you have a condition that counts as a disability?",
		"Do you have health issues that limit daily activities?",
		"Are you living with a disabling condition?",
		"Do you deal with a long-term disability?",
	},
	profile.FieldVeteran: {
		"Have you ever served in the U.S. military?",
		"Are you a military veteran?",
		"Did you serve in the U.S. military in the past?",
		"Have you been in the Army, Navy, Air Force, Marines, or Coast Guard?",
		"Are you a former service member?",
	},
	profile.FieldCriminalRecord: {
		"Have you ever been convicted of a crime?",
		"Do you have a criminal record?",
		"Have you ever been found guilty of a crime?",
		"Do you have any past criminal history?",
	},
	profile.FieldHasChildren: {
		"Do you have children?",
		"Are you a parent?",
		"Do you have kids you care for?",
		"Are you responsible for raising children?",
		"Do you have children in your household?",
		"Do you have children depending on you?",
	},
	profile.FieldRefugee: {
		"Have you been granted refugee status in the U.S.?",
		"Did you come to the U.S. as a refugee?",
		"Do you have refugee status?",
		"Were you admitted to the U.S. as a refugee?",
	},
}
