package enums

import "fmt"

// DeliveryStatus tracks warehouse and courier progress for an order.
type DeliveryStatus string

const (
	DeliveryStatusUnpacked   DeliveryStatus = "unpacked"
	DeliveryStatusPacked     DeliveryStatus = "packed"
	DeliveryStatusInProgress DeliveryStatus = "in progress"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusUnpacked,
	DeliveryStatusPacked,
	DeliveryStatusInProgress,
	DeliveryStatusDelivered,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
