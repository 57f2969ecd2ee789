package dashboard

import (
	"log/slog"
	"net/http"

	"reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/lib/errors"
	"reverse_market/internal/models/user"

	"github.com/go-chi/render"
)

type StatsReader interface {
	ReadCustomerStats(customerId string) (total, active, offersReceived int, err error)
	ReadSellerStats(sellerId string) (total, accepted, pending int, err error)
}

type CustomerStats struct {
	TotalRequests       int `json:"total_requests"`
	ActiveRequests      int `json:"active_requests"`
	TotalOffersReceived int `json:"total_offers_received"`
}

type SellerStats struct {
	TotalOffers    int `json:"total_offers"`
	AcceptedOffers int `json:"accepted_offers"`
	PendingOffers  int `json:"pending_offers"`
}

// NewGetStats recomputes the role-shaped counters on every call; nothing
// is cached.
func NewGetStats(log *slog.Logger, statsReader StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.dashboard.NewGetStats"

		id, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Unauthenticated"))
			return
		}

		switch id.User.UserType {
		case user.TypeCustomer:
			total, active, received, err := statsReader.ReadCustomerStats(id.User.Id)
			if err != nil {
				log.Error("Failed to read customer stats", slog.String("op", op), slog.String("error", err.Error()))
				render.Status(r, 500)
				render.JSON(w, r, errors.NewHttpError(err.Error()))
				return
			}
			render.JSON(w, r, CustomerStats{
				TotalRequests:       total,
				ActiveRequests:      active,
				TotalOffersReceived: received,
			})
		case user.TypeSeller:
			total, accepted, pending, err := statsReader.ReadSellerStats(id.User.Id)
			if err != nil {
				log.Error("Failed to read seller stats", slog.String("op", op), slog.String("error", err.Error()))
				render.Status(r, 500)
				render.JSON(w, r, errors.NewHttpError(err.Error()))
				return
			}
			render.JSON(w, r, SellerStats{
				TotalOffers:    total,
				AcceptedOffers: accepted,
				PendingOffers:  pending,
			})
		default:
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Unknown user type"))
		}
	}
}
