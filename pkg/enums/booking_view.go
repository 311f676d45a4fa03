package enums

import "strings"

// BookingViewFilter selects which slice of a user's bookings a listing returns.
type BookingViewFilter string

const (
	BookingViewAll      BookingViewFilter = "ALL"
	BookingViewCurrent  BookingViewFilter = "CURRENT"
	BookingViewPast     BookingViewFilter = "PAST"
	BookingViewFuture   BookingViewFilter = "FUTURE"
	BookingViewWaiting  BookingViewFilter = "WAITING"
	BookingViewRejected BookingViewFilter = "REJECTED"
)

var validBookingViewFilters = []BookingViewFilter{
	BookingViewAll,
	BookingViewCurrent,
	BookingViewPast,
	BookingViewFuture,
	BookingViewWaiting,
	BookingViewRejected,
}

// String implements fmt.Stringer.
func (v BookingViewFilter) String() string {
	return string(v)
}

// IsValid reports whether the value is a selectable view filter.
func (v BookingViewFilter) IsValid() bool {
	for _, candidate := range validBookingViewFilters {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseBookingViewFilter converts raw input into a view filter. Matching is
// case-insensitive; empty or unknown input resolves to BookingViewAll.
func ParseBookingViewFilter(value string) BookingViewFilter {
	normalized := BookingViewFilter(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized
	}
	return BookingViewAll
}
