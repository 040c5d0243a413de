package enums

import "fmt"

// ChallengeStatus maps to the challenge_status_enum enum in Postgres.
type ChallengeStatus string

const (
	ChallengeStatusOpen      ChallengeStatus = "open"
	ChallengeStatusAccepted  ChallengeStatus = "accepted"
	ChallengeStatusDeclined  ChallengeStatus = "declined"
	ChallengeStatusCancelled ChallengeStatus = "cancelled"
	ChallengeStatusSettled   ChallengeStatus = "settled"
)

var validChallengeStatuses = []ChallengeStatus{
	ChallengeStatusOpen,
	ChallengeStatusAccepted,
	ChallengeStatusDeclined,
	ChallengeStatusCancelled,
	ChallengeStatusSettled,
}

// IsValid reports whether the value matches the canonical challenge status enum.
func (s ChallengeStatus) IsValid() bool {
	for _, candidate := range validChallengeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the challenge can no longer change state.
func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeStatusDeclined || s == ChallengeStatusCancelled || s == ChallengeStatusSettled
}

// ParseChallengeStatus converts raw input into ChallengeStatus.
func ParseChallengeStatus(value string) (ChallengeStatus, error) {
	for _, candidate := range validChallengeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid challenge status %q", value)
}
