package enums

import "fmt"

// Outcome maps to the outcome_enum enum in Postgres.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

var validOutcomes = []Outcome{
	OutcomeYes,
	OutcomeNo,
}

// IsValid reports whether the value matches the canonical outcome enum.
func (o Outcome) IsValid() bool {
	for _, candidate := range validOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// Opposite returns the other side of a binary outcome.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// Bool converts the outcome into the wire representation used by clients.
func (o Outcome) Bool() bool {
	return o == OutcomeYes
}

// OutcomeFromBool converts the wire prediction flag into an Outcome.
func OutcomeFromBool(prediction bool) Outcome {
	if prediction {
		return OutcomeYes
	}
	return OutcomeNo
}

// ParseOutcome converts raw input into Outcome.
func ParseOutcome(value string) (Outcome, error) {
	for _, candidate := range validOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outcome %q", value)
}
