package category

import (
	"log/slog"
	"net/http"

	"reverse_market/internal/models/request"

	"github.com/go-chi/render"
)

func NewGetCategories(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, request.Categories)
	}
}
