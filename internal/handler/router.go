package handler

import (
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the use cases the HTTP API exposes.
type Services struct {
	Events   *service.EventService
	Bookings *service.BookingService
	CheckIns *service.CheckInService
}

// NewRouter builds the chi router with every API route. paymentSecret keys
// the signature the payment gateway puts on its events.
func NewRouter(svc Services, paymentSecret []byte, log *slog.Logger) http.Handler {
	events := NewEventHandler(svc.Events, log)
	bookings := NewBookingHandler(svc.Bookings, log)
	checkIns := NewCheckInHandler(svc.CheckIns, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(Principal)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/events", func(r chi.Router) {
		r.Post("/", events.CreateEvent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", events.GetEvent)
			r.Patch("/status", events.UpdateStatus)
			r.Put("/published", events.SetPublished)
			r.Post("/ticket-types", events.AddTicketType)
			r.Get("/ticket-types", events.ListTicketTypes)
			r.Post("/form-fields", events.AddFormField)
			r.Get("/form-fields", events.ListFormFields)
			r.Post("/team", events.AddTeamMember)
			r.Post("/bookings", bookings.CreateBooking)
			r.Get("/bookings", events.ListBookings)
		})
	})

	r.Delete("/ticket-types/{id}", events.DeleteTicketType)
	r.Get("/ticket-types/{id}/remaining", bookings.Remaining)
	r.Get("/bookings/{id}", bookings.GetBooking)
	r.With(SignedPayload(paymentSecret)).Post("/payments/events", bookings.PaymentEvent)
	r.Post("/checkins", checkIns.CheckIn)
	r.Get("/checkins/{hash}", checkIns.Lookup)

	return r
}
