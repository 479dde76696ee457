package enums

import "fmt"

// PaidStatus tracks payment confirmation independently of fulfillment.
type PaidStatus string

const (
	PaidStatusUnpaid    PaidStatus = "unpaid"
	PaidStatusProcessed PaidStatus = "processed"
	PaidStatusPaid      PaidStatus = "paid"
)

var validPaidStatuses = []PaidStatus{
	PaidStatusUnpaid,
	PaidStatusProcessed,
	PaidStatusPaid,
}

// String implements fmt.Stringer.
func (p PaidStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaidStatus.
func (p PaidStatus) IsValid() bool {
	for _, candidate := range validPaidStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaidStatus converts raw input into a PaidStatus.
func ParsePaidStatus(value string) (PaidStatus, error) {
	for _, candidate := range validPaidStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid paid status %q", value)
}
