package rules

import (
	"net/mail"
	"strings"
	"time"

	"github.com/ashita-ai/shinrai/internal/model"
)

// usStateCodes is the set of valid two-letter US state and territory codes.
var usStateCodes = map[string]bool{}

func init() {
	for _, c := range []string{
		"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
		"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
		"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
		"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
		"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
		"DC", "PR", "VI", "GU", "AS", "MP",
	} {
		usStateCodes[c] = true
	}
}

// present passes when the field exists and is non-empty.
func present(p Payload, field string) bool {
	return p.Has(field)
}

// validEmail passes when the field parses as an RFC 5322 address.
// Absence fails: the rule requires the field.
func validEmail(p Payload, field string) bool {
	addr := p.String(field)
	if addr == "" {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

// validUSState passes when the field is a known two-letter state code.
func validUSState(p Payload, field string) bool {
	return usStateCodes[strings.ToUpper(p.String(field))]
}

// nonNegativeNumber passes when the field parses as a number >= 0.
func nonNegativeNumber(p Payload, field string) bool {
	f, ok := p.Float(field)
	return ok && f >= 0
}

// pastDate passes when the field parses as a date that is not in the future.
func pastDate(p Payload, field string) bool {
	s := p.String(field)
	if s == "" {
		return false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return !t.After(time.Now())
		}
	}
	return false
}

// nonEmptySubmission passes when the payload has at least one field.
// FieldPath is unused; the rule inspects the whole submission.
func nonEmptySubmission(p Payload, _ string) bool {
	return p.Len() > 0
}

// DefaultRegistry returns the built-in rule packs. Pack order is display
// order: critical identity rules first, then contact and profile rules.
func DefaultRegistry() *Registry {
	return NewRegistry(
		RulePack{
			DecisionType: "csf_practitioner",
			Rules: []Rule{
				{
					ID: "practitioner_name_present", Title: "Practitioner name provided",
					Severity: model.RuleSeverityCritical, Weight: 1.0, FieldPath: "name",
					Check: present, FailureMessage: "practitioner name is missing",
					Expected: "non-empty name",
				},
				{
					ID: "license_number_present", Title: "License number provided",
					Severity: model.RuleSeverityCritical, Weight: 1.0, FieldPath: "license_number",
					Check: present, FailureMessage: "license number is missing",
					Expected: "non-empty license number",
				},
				{
					ID: "license_state_valid", Title: "License state is a valid code",
					Severity: model.RuleSeverityCritical, Weight: 1.0, FieldPath: "license_state",
					Check: validUSState, FailureMessage: "license state is missing or not a valid state code",
					Expected: "two-letter US state code",
				},
				{
					ID: "contact_email_valid", Title: "Contact email is valid",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "email",
					Check: validEmail, FailureMessage: "contact email is missing or malformed",
					Expected: "RFC 5322 email address",
				},
				{
					ID: "specialty_present", Title: "Specialty declared",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "specialty",
					Check: present, FailureMessage: "specialty is missing",
					Expected: "non-empty specialty",
				},
				{
					ID: "experience_years_valid", Title: "Years of experience provided",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "years_experience",
					Check: nonNegativeNumber, FailureMessage: "years of experience is missing or negative",
					Expected: "number >= 0",
				},
				{
					ID: "practice_address_present", Title: "Practice address provided",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "address",
					Check: present, FailureMessage: "practice address is missing",
					Expected: "non-empty address",
				},
				{
					ID: "contact_phone_present", Title: "Contact phone provided",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "phone",
					Check: present, FailureMessage: "contact phone is missing",
					Expected: "non-empty phone",
				},
				{
					ID: "education_present", Title: "Education history provided",
					Severity: model.RuleSeverityLow, Weight: 1.0, FieldPath: "education",
					Check: present, FailureMessage: "education history is missing",
					Expected: "non-empty education history",
				},
				{
					ID: "certification_date_plausible", Title: "Certification date is plausible",
					Severity: model.RuleSeverityLow, Weight: 1.0, FieldPath: "certified_at",
					Check: pastDate, FailureMessage: "certification date is missing, unparseable, or in the future",
					Expected: "past date (RFC 3339 or YYYY-MM-DD)",
				},
			},
		},
		RulePack{
			DecisionType: GenericPackType,
			Rules: []Rule{
				{
					ID: "submission_not_empty", Title: "Submission contains data",
					Severity: model.RuleSeverityCritical, Weight: 1.0, FieldPath: "",
					Check: nonEmptySubmission, FailureMessage: "submission payload is empty",
					Expected: "at least one submitted field",
				},
				{
					ID: "applicant_name_present", Title: "Applicant name provided",
					Severity: model.RuleSeverityMedium, Weight: 1.0, FieldPath: "name",
					Check: present, FailureMessage: "applicant name is missing",
					Expected: "non-empty name",
				},
				{
					ID: "contact_email_valid", Title: "Contact email is valid",
					Severity: model.RuleSeverityLow, Weight: 1.0, FieldPath: "email",
					Check: validEmail, FailureMessage: "contact email is missing or malformed",
					Expected: "RFC 5322 email address",
				},
			},
		},
	)
}
