package message

import (
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"

	"reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/lib/errors"
	"reverse_market/internal/models/message"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type MessageSaver interface {
	SaveMessage(senderId string, req message.CreateRequest) (message.Message, error)
}

type ConversationReader interface {
	ReadConversation(requestId, userId, otherUserId string, limit int) ([]message.Message, error)
}

func NewPostMessage(log *slog.Logger, messageSaver MessageSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Unauthenticated"))
			return
		}

		var req message.CreateRequest

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

		resp, err := messageSaver.SaveMessage(id.User.Id, req)
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

		render.Status(r, 201)
		render.JSON(w, r, resp)
	}
}

func NewGetConversation(log *slog.Logger, conversationReader ConversationReader) http.HandlerFunc {
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

		otherUserId := r.URL.Query().Get("other_user_id")
		if otherUserId == "" {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("The other_user_id parameter is required"))
			return
		}

		resp, err := conversationReader.ReadConversation(requestId, id.User.Id, otherUserId, 100)
		if err != nil {
			log.Error("Failed to read conversation", slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		render.JSON(w, r, resp)
	}
}
