package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shareit-backend/api/controllers"
	bookingcontrollers "github.com/angelmondragon/shareit-backend/api/controllers/bookings"
	"github.com/angelmondragon/shareit-backend/api/middleware"
	"github.com/angelmondragon/shareit-backend/internal/bookings"
	"github.com/angelmondragon/shareit-backend/pkg/config"
	"github.com/angelmondragon/shareit-backend/pkg/db"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
	"github.com/angelmondragon/shareit-backend/pkg/redis"
)

// Params carries the dependencies mounted by NewRouter. Redis, Idempotency and
// Presenter may be nil.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       redis.Pinger
	Idempotency redis.IdempotencyStore
	Bookings    bookings.Service
	Presenter   *bookings.Presenter
	Gatherer    prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	logg := p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, logg, p.DB, p.Redis))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/bookings", func(r chi.Router) {
		r.Use(middleware.SharerUser(logg))

		r.With(middleware.Idempotency(p.Idempotency, logg)).Post("/", bookingcontrollers.Create(p.Bookings, p.Presenter, logg))
		r.Get("/", bookingcontrollers.List(p.Bookings, p.Presenter, bookings.PerspectiveRequester, logg))
		r.Get("/owner", bookingcontrollers.List(p.Bookings, p.Presenter, bookings.PerspectiveOwner, logg))
		r.Get("/{bookingId}", bookingcontrollers.Get(p.Bookings, p.Presenter, logg))
		r.Patch("/{bookingId}", bookingcontrollers.Decide(p.Bookings, p.Presenter, logg))
		r.Patch("/{bookingId}/cancel", bookingcontrollers.Cancel(p.Bookings, p.Presenter, logg))
	})

	return r
}
