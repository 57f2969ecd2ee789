package request

import (
	"encoding/json"
	serrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"reverse_market/internal/http-server/middleware/auth"
	kafkax "reverse_market/internal/kafka"
	"reverse_market/internal/lib/errors"
	"reverse_market/internal/market"
	"reverse_market/internal/models/request"
	"reverse_market/internal/models/user"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type RequestSaver interface {
	SaveRequest(customerId string, req request.CreateRequest) (request.Request, error)
}

type OpenRequestsReader interface {
	ReadOpenRequests(f request.BrowseFilter, limit, offset int) ([]request.Request, error)
}

type MyRequestsReader interface {
	ReadMyRequests(customerId string, limit, offset int) ([]request.Request, error)
}

type RequestReader interface {
	ReadRequest(id string) (request.Request, error)
}

type RequestCloser interface {
	CloseRequest(requestId, customerId string) (request.Request, int, error)
}

type EventPublisher interface {
	Publish(key, value []byte)
}

func NewPostRequest(log *slog.Logger, requestSaver RequestSaver, events EventPublisher, producer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.User.UserType != user.TypeCustomer {
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Only customers can create requests"))
			return
		}

		var req request.CreateRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err := decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body")
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		if req.Quantity == 0 {
			req.Quantity = 1
		}

		err = validate.Struct(req)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("One of the required fields is empty or invalid"))
			return
		}

		err = validateCreateRequest(req)
		if err != nil {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		resp, err := requestSaver.SaveRequest(id.User.Id, req)
		if err != nil {
			switch {
			case serrors.Is(err, postgres.ErrBadRequest):
				render.Status(r, 400)
			case serrors.Is(err, postgres.ErrForbidden):
				render.Status(r, 403)
			default:
				render.Status(r, 400)
			}
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		publishRequestCreated(events, producer, resp)

		render.Status(r, 201)
		render.JSON(w, r, resp)
	}
}

func NewGetRequests(log *slog.Logger, openRequestsReader OpenRequestsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := readLimitOffset(r)
		if err != nil {
			log.Error(err.Error())
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		filter := request.BrowseFilter{
			Category: r.URL.Query().Get("category"),
			Location: r.URL.Query().Get("location"),
		}
		if filter.Category != "" && !request.KnownCategory(filter.Category) {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("Unknown category"))
			return
		}
		if v := r.URL.Query().Get("min_budget"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				render.Status(r, 400)
				render.JSON(w, r, errors.NewHttpError("Incorrect min_budget value"))
				return
			}
			filter.MinBudget = &f
		}
		if v := r.URL.Query().Get("max_budget"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				render.Status(r, 400)
				render.JSON(w, r, errors.NewHttpError("Incorrect max_budget value"))
				return
			}
			filter.MaxBudget = &f
		}

		resp, err := openRequestsReader.ReadOpenRequests(filter, limit, offset)
		if err != nil {
			log.Error("Failed to read requests", slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetMyRequests(log *slog.Logger, myRequestsReader MyRequestsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok || id.User.UserType != user.TypeCustomer {
			render.Status(r, 403)
			render.JSON(w, r, errors.NewHttpError("Only customers can view their requests"))
			return
		}

		limit, offset, err := readLimitOffset(r)
		if err != nil {
			log.Error(err.Error())
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		resp, err := myRequestsReader.ReadMyRequests(id.User.Id, limit, offset)
		if err != nil {
			log.Error("Failed to read own requests", slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewGetRequest(log *slog.Logger, requestReader RequestReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestId := chi.URLParam(r, "requestId")
		if requestId == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The request id is invalid"))
			return
		}

		resp, err := requestReader.ReadRequest(requestId)
		if err != nil {
			switch {
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

func NewCloseRequest(log *slog.Logger, requestCloser RequestCloser, events EventPublisher, producer string) http.HandlerFunc {
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

		resp, rejected, err := requestCloser.CloseRequest(requestId, id.User.Id)
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

		ev := market.Envelope{
			EventID:       uuid.NewString(),
			EventType:     market.EventRequestClosed,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      producer,
			CorrelationID: resp.Id,
		}
		ev.Payload = kafkax.MustMarshal(market.RequestClosedPayload{
			RequestID:     resp.Id,
			CustomerID:    resp.CustomerId,
			RejectedCount: rejected,
		})
		events.Publish(market.PartitionKey(resp.Id), kafkax.MustMarshal(ev))

		render.JSON(w, r, resp)
	}
}

func publishRequestCreated(events EventPublisher, producer string, req request.Request) {
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventRequestCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: req.Id,
	}
	ev.Payload = kafkax.MustMarshal(market.RequestCreatedPayload{
		RequestID:  req.Id,
		CustomerID: req.CustomerId,
		Title:      req.Title,
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
		Categories: req.Categories,
	})
	events.Publish(market.PartitionKey(req.Id), kafkax.MustMarshal(ev))
}

func validateCreateRequest(req request.CreateRequest) error {
	if req.BudgetMin > req.BudgetMax {
		return fmt.Errorf("budget_min must not exceed budget_max")
	}
	for _, c := range req.Categories {
		if !request.KnownCategory(c) {
			return fmt.Errorf("unknown category: %s", c)
		}
	}
	return nil
}

func readLimitOffset(r *http.Request) (int, int, error) {
	limit, offset := 20, 0
	var err error
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("Incorrect limit value")
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("Incorrect offset value")
		}
	}
	return limit, offset, nil
}
