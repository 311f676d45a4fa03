package bookings

import (
	"context"
	"time"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	"github.com/google/uuid"
)

type viewMatcher struct {
	supports func(filter enums.BookingViewFilter) bool
	query    func(now time.Time) Query
}

// Dispatcher resolves a view filter to the query backing it. The matcher list is
// fixed at construction and scanned in order; the first supporting matcher wins.
type Dispatcher struct {
	matchers []viewMatcher
}

// NewDispatcher builds the dispatcher with ALL as the trailing catch-all.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{matchers: []viewMatcher{
		{
			supports: exactly(enums.BookingViewCurrent),
			query: func(now time.Time) Query {
				return Query{StartAtOrBefore: timePtr(now), EndAfter: timePtr(now)}
			},
		},
		{
			supports: exactly(enums.BookingViewPast),
			query: func(now time.Time) Query {
				return Query{EndAtOrBefore: timePtr(now)}
			},
		},
		{
			supports: exactly(enums.BookingViewFuture),
			query: func(now time.Time) Query {
				return Query{StartAfter: timePtr(now)}
			},
		},
		{
			supports: exactly(enums.BookingViewWaiting),
			query: func(time.Time) Query {
				return Query{Status: statusPtr(enums.BookingStatusWaiting)}
			},
		},
		{
			supports: exactly(enums.BookingViewRejected),
			query: func(time.Time) Query {
				return Query{Status: statusPtr(enums.BookingStatusRejected)}
			},
		},
		{
			supports: func(enums.BookingViewFilter) bool { return true },
			query:    func(time.Time) Query { return Query{} },
		},
	}}
}

// Resolve returns the query for filter evaluated at now.
func (d *Dispatcher) Resolve(filter enums.BookingViewFilter, now time.Time) Query {
	for _, m := range d.matchers {
		if m.supports(filter) {
			return m.query(now)
		}
	}
	return Query{}
}

// List runs the query for filter against repo from the given perspective.
func (d *Dispatcher) List(ctx context.Context, repo Repository, perspective Perspective, userID uuid.UUID, filter enums.BookingViewFilter, now time.Time) ([]models.Booking, error) {
	return repo.List(ctx, perspective, userID, d.Resolve(filter, now))
}

func exactly(want enums.BookingViewFilter) func(enums.BookingViewFilter) bool {
	return func(filter enums.BookingViewFilter) bool { return filter == want }
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func statusPtr(s enums.BookingStatus) *enums.BookingStatus {
	return &s
}
