package types

// SubscriptionStatus is the closed set of billing states tracked locally.
// Upstream statuses we do not recognize collapse to inactive rather than
// being stored verbatim.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusInactive          SubscriptionStatus = "inactive"
)

var subscriptionStatuses = map[string]SubscriptionStatus{
	string(SubscriptionStatusActive):            SubscriptionStatusActive,
	string(SubscriptionStatusTrialing):          SubscriptionStatusTrialing,
	string(SubscriptionStatusPastDue):           SubscriptionStatusPastDue,
	string(SubscriptionStatusCanceled):          SubscriptionStatusCanceled,
	string(SubscriptionStatusUnpaid):            SubscriptionStatusUnpaid,
	string(SubscriptionStatusIncomplete):        SubscriptionStatusIncomplete,
	string(SubscriptionStatusIncompleteExpired): SubscriptionStatusIncompleteExpired,
}

// ParseSubscriptionStatus maps an upstream status string to the local enum.
func ParseSubscriptionStatus(raw string) SubscriptionStatus {
	if status, ok := subscriptionStatuses[raw]; ok {
		return status
	}
	return SubscriptionStatusInactive
}

// IsUsable reports whether the status grants access to paid features.
func (s SubscriptionStatus) IsUsable() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}
