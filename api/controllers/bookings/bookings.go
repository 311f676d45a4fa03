package bookings

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shareit-backend/api/middleware"
	"github.com/angelmondragon/shareit-backend/api/responses"
	"github.com/angelmondragon/shareit-backend/api/validators"
	internalbookings "github.com/angelmondragon/shareit-backend/internal/bookings"
	"github.com/angelmondragon/shareit-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
)

const (
	bookingIDParam = "bookingId"
	stateQuery     = "state"
	approvedQuery  = "approved"
)

// Create files a WAITING booking for the caller.
func Create(svc internalbookings.Service, presenter *internalbookings.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		callerID, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload internalbookings.CreateBookingRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), callerID, payload.ItemID, *payload.Start, *payload.End)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, presenter.One(r.Context(), booking))
	}
}

// Decide approves or rejects a WAITING booking on behalf of the item owner.
func Decide(svc internalbookings.Service, presenter *internalbookings.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		callerID, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, bookingIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		approved, err := validators.ParseQueryBool(r, approvedQuery)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Approve(r.Context(), callerID, bookingID, approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.One(r.Context(), booking))
	}
}

// Cancel withdraws a WAITING booking on behalf of its requester.
func Cancel(svc internalbookings.Service, presenter *internalbookings.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		callerID, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, bookingIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Cancel(r.Context(), callerID, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.One(r.Context(), booking))
	}
}

// Get returns a booking visible to the caller as requester or item owner.
func Get(svc internalbookings.Service, presenter *internalbookings.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		callerID, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParseUUIDParam(r, bookingIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.GetByID(r.Context(), callerID, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.One(r.Context(), booking))
	}
}

// List returns the caller's bookings from the given perspective, filtered by ?state=.
func List(svc internalbookings.Service, presenter *internalbookings.Presenter, perspective internalbookings.Perspective, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}
		callerID, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := enums.ParseBookingViewFilter(r.URL.Query().Get(stateQuery))
		rows, err := svc.List(r.Context(), callerID, filter, perspective)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.Many(r.Context(), rows))
	}
}

func callerFrom(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}
