package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type_enum enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeStake         LedgerEntryType = "stake"
	LedgerEntryTypePayout        LedgerEntryType = "payout"
	LedgerEntryTypeRefund        LedgerEntryType = "refund"
	LedgerEntryTypeEscrowHold    LedgerEntryType = "escrow_hold"
	LedgerEntryTypeEscrowRelease LedgerEntryType = "escrow_release"
	LedgerEntryTypeChallengeWin  LedgerEntryType = "challenge_win"
	LedgerEntryTypeAdjustment    LedgerEntryType = "adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeStake,
	LedgerEntryTypePayout,
	LedgerEntryTypeRefund,
	LedgerEntryTypeEscrowHold,
	LedgerEntryTypeEscrowRelease,
	LedgerEntryTypeChallengeWin,
	LedgerEntryTypeAdjustment,
}

// IsValid reports whether the value matches the canonical ledger entry enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Debit reports whether entries of this type reduce the wallet balance.
func (t LedgerEntryType) Debit() bool {
	return t == LedgerEntryTypeStake || t == LedgerEntryTypeEscrowHold
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
