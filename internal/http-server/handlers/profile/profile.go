package profile

import (
	"context"
	"log/slog"
	"net/http"

	"eventreg/entity"
	"eventreg/lib/api/cont"
	"eventreg/lib/api/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type Core interface {
	Profile(ctx context.Context, user *entity.User, submitterID string) (*entity.Profile, error)
}

func Get(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		profile, err := handler.Profile(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(profile))
	}
}
