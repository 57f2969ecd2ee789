package offer

import (
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"reverse_market/internal/http-server/middleware/auth"
	kafkax "reverse_market/internal/kafka"
	"reverse_market/internal/lib/errors"
	"reverse_market/internal/market"
	"reverse_market/internal/models/offer"
	"reverse_market/internal/models/user"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type OfferSaver interface {
	SaveOffer(sellerId string, req offer.CreateRequest) (offer.Offer, error)
}

type MyOffersReader interface {
	ReadMyOffers(sellerId string, limit, offset int) ([]offer.Offer, error)
}

type RequestOffersReader interface {
	ReadRequestOffers(requestId, callerId, callerType string) ([]offer.Offer, error)
}

type OfferAccepter interface {
	AcceptOffer(offerId, callerId string) (offer.AcceptResult, error)
}

type EventPublisher interface {
	Publish(key, value []byte)
}

func NewPostOffer(log *slog.Logger, offerSaver OfferSaver, events EventPublisher, producer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.User.UserType != user.TypeSeller {
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Only sellers can create offers"))
			return
		}

		var req offer.CreateRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err := decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body")
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		err = validate.Struct(req)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("One of the required fields is empty or invalid"))
			return
		}

		resp, err := offerSaver.SaveOffer(id.User.Id, req)
		if err != nil {
			switch {
			case serrors.Is(err, postgres.ErrBadRequest):
				render.Status(r, 400)
			case serrors.Is(err, postgres.ErrNotFound):
				render.Status(r, 404)
			case serrors.Is(err, postgres.ErrInvalidState):
				render.Status(r, 409)
			default:
				render.Status(r, 400)
			}
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		ev := market.Envelope{
			EventID:       uuid.NewString(),
			EventType:     market.EventOfferCreated,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: resp.RequestId,
		}
		ev.Payload = kafkax.MustMarshal(market.OfferCreatedPayload{
			OfferID:   resp.Id,
			RequestID: resp.RequestId,
			SellerID:  resp.SellerId,
			Price:     resp.Price,
		})
		events.Publish(market.PartitionKey(resp.RequestId), kafkax.MustMarshal(ev))

		render.Status(r, 201)
		render.JSON(w, r, resp)
	}
}

func NewGetMyOffers(log *slog.Logger, myOffersReader MyOffersReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.User.UserType != user.TypeSeller {
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Only sellers can view their offers"))
			return
		}

		limit, offset := 20, 0
		var err error
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit <= 0 {
				render.Status(r, 400)
				render.JSON(w, r, errors.NewHttpError("Incorrect limit value"))
				return
			}
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			offset, err = strconv.Atoi(v)
			if err != nil || offset < 0 {
				render.Status(r, 400)
				render.JSON(w, r, errors.NewHttpError("Incorrect offset value"))
				return
			}
		}

		resp, err := myOffersReader.ReadMyOffers(id.User.Id, limit, offset)
		if err != nil {
			log.Error("Failed to read own offers", slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetRequestOffers(log *slog.Logger, requestOffersReader RequestOffersReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Unauthenticated"))
			return
		}

		requestId := chi.URLParam(r, "requestId")
		if requestId == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The request id is invalid"))
			return
		}

		resp, err := requestOffersReader.ReadRequestOffers(requestId, id.User.Id, id.User.UserType)
		if err != nil {
			switch {
			case serrors.Is(err, postgres.ErrForbidden):
				render.Status(r, 403)
			case serrors.Is(err, postgres.ErrNotFound):
				render.Status(r, 404)
			default:
				render.Status(r, 500)
			}
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewAcceptOffer(log *slog.Logger, offerAccepter OfferAccepter, events EventPublisher, producer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.User.UserType != user.TypeCustomer {
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Only request owner can accept offers"))
			return
		}

		offerId := chi.URLParam(r, "offerId")
		if offerId == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The offer id is invalid"))
			return
		}

		resp, err := offerAccepter.AcceptOffer(offerId, id.User.Id)
		if err != nil {
			switch {
			case serrors.Is(err, postgres.ErrForbidden):
				render.Status(r, 403)
			case serrors.Is(err, postgres.ErrNotFound):
				render.Status(r, 404)
			case serrors.Is(err, postgres.ErrInvalidState):
				render.Status(r, 409)
			default:
				render.Status(r, 500)
			}
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		log.Info("offer accepted",
			slog.String("offer_id", resp.Offer.Id),
			slog.String("request_id", resp.RequestId),
			slog.Int("rejected", resp.RejectedCount),
		)

		ev := market.Envelope{
			EventID:       uuid.NewString(),
			EventType:     market.EventOfferAccepted,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: resp.RequestId,
		}
		ev.Payload = kafkax.MustMarshal(market.OfferAcceptedPayload{
			OfferID:       resp.Offer.Id,
			RequestID:     resp.RequestId,
			SellerID:      resp.Offer.SellerId,
			CustomerID:    id.User.Id,
			Price:         resp.Offer.Price,
			RejectedCount: resp.RejectedCount,
		})
		events.Publish(market.PartitionKey(resp.RequestId), kafkax.MustMarshal(ev))

		render.JSON(w, r, resp)
	}
}
