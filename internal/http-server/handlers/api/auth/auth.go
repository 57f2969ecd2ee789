package auth

import (
	"context"
	"encoding/json"
	serrors "errors"
	"log/slog"
	"net/http"
	"time"

	mwauth "reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/lib/errors"
	"reverse_market/internal/lib/token"
	"reverse_market/internal/models/user"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type UserSaver interface {
	SaveUser(req user.RegisterRequest, passwordHash string) (user.User, error)
}

type UserReader interface {
	FetchUserByEmail(email string) (user.User, string, error)
}

type SessionStore interface {
	Put(ctx context.Context, jti, userId string, ttl time.Duration) error
	Delete(ctx context.Context, jti string) error
}

func NewRegister(log *slog.Logger, userSaver UserSaver, tokens *token.Manager, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.auth.NewRegister"

		var req user.RegisterRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err := decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body", slog.String("op", op))
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

		if !user.ValidType(req.UserType) {
			render.Status(r, 400)
			render.JSON(w, r, errors.NewHttpError("user_type must be customer or seller"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Error("Failed to hash password", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError("Internal error"))
			return
		}

		usr, err := userSaver.SaveUser(req, string(hash))
		if err != nil {
			switch {
			case serrors.Is(err, postgres.ErrUserExists):
				render.Status(r, 400)
			default:
				render.Status(r, 500)
			}
			render.JSON(w, r, errors.NewHttpError(err.Error()))
			return
		}

		resp, err := openSession(r.Context(), tokens, sessions, usr)
		if err != nil {
			log.Error("Failed to open session", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError("Internal error"))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewLogin(log *slog.Logger, userReader UserReader, tokens *token.Manager, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.auth.NewLogin"

		var req user.LoginRequest

		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()

		err := decoder.Decode(&req)
		if err != nil {
			log.Error("Error decoding request body", slog.String("op", op))
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

		usr, passwordHash, err := userReader.FetchUserByEmail(req.Email)
		if err != nil {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Invalid email or password"))
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Invalid email or password"))
			return
		}

		resp, err := openSession(r.Context(), tokens, sessions, usr)
		if err != nil {
			log.Error("Failed to open session", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError("Internal error"))
			return
		}

		render.JSON(w, r, resp)
	}
}

func NewLogout(log *slog.Logger, sessions SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.api.auth.NewLogout"

		id, ok := mwauth.FromContext(r.Context())
		if !ok {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Unauthenticated"))
			return
		}

		if err := sessions.Delete(r.Context(), id.Jti); err != nil {
			log.Error("Failed to tear down session", slog.String("op", op), slog.String("error", err.Error()))
			render.Status(r, 500)
			render.JSON(w, r, errors.NewHttpError("Internal error"))
			return
		}

		render.JSON(w, r, map[string]string{"message": "logged out"})
	}
}

func NewProfile(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := mwauth.FromContext(r.Context())
		if !ok {
			render.Status(r, 401)
			render.JSON(w, r, errors.NewHttpError("Unauthenticated"))
			return
		}

		render.JSON(w, r, id.User)
	}
}

func openSession(ctx context.Context, tokens *token.Manager, sessions SessionStore, usr user.User) (user.AuthResponse, error) {
	signed, jti, err := tokens.Mint(usr.Id, usr.UserType)
	if err != nil {
		return user.AuthResponse{}, err
	}
	if err := sessions.Put(ctx, jti, usr.Id, tokens.TTL()); err != nil {
		return user.AuthResponse{}, err
	}
	return user.AuthResponse{AccessToken: signed, TokenType: "bearer", User: usr}, nil
}
