package enums

import "fmt"

// PayoutStatus maps to the payout_status_enum enum in Postgres.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusPaid,
}

// IsValid reports whether the value matches the canonical payout status enum.
func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// PayoutType maps to the payout_type_enum enum in Postgres.
type PayoutType string

const (
	PayoutTypeWinnings PayoutType = "winnings"
	PayoutTypeRefund   PayoutType = "refund"
)

var validPayoutTypes = []PayoutType{
	PayoutTypeWinnings,
	PayoutTypeRefund,
}

// IsValid reports whether the value matches the canonical payout type enum.
func (t PayoutType) IsValid() bool {
	for _, candidate := range validPayoutTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePayoutType converts raw input into PayoutType.
func ParsePayoutType(value string) (PayoutType, error) {
	for _, candidate := range validPayoutTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout type %q", value)
}
