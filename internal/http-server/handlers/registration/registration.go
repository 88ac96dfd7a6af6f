package registration

import (
	"context"
	"log/slog"
	"net/http"

	"eventreg/entity"
	"eventreg/impl/query"
	"eventreg/lib/api/cont"
	"eventreg/lib/api/response"
	"eventreg/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	DecideRegistration(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.Registration, error)
	CancelRegistration(ctx context.Context, user *entity.User, id string) (*entity.Registration, error)
	GetRegistration(ctx context.Context, user *entity.User, id string) (*entity.Registration, error)
	ListRegistrations(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.Registration, error)
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")
		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		user := cont.GetUser(r.Context())

		filter, err := query.FilterFromValues(r.URL.Query())
		if err != nil {
			log.Debug("invalid filter", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		items, err := handler.ListRegistrations(r.Context(), user, filter)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(items))
	}
}

func Get(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		reg, err := handler.GetRegistration(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(reg))
	}
}

func Decide(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.registration")
		id := chi.URLParam(r, "id")
		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("registration_id", id),
		)
		user := cont.GetUser(r.Context())

		var req entity.DecisionRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("bind decision", sl.Err(err))
			response.RenderError(w, r, response.BindError(err))
			return
		}
		reg, err := handler.DecideRegistration(r.Context(), user, id, &req)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(reg))
	}
}

func Cancel(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		reg, err := handler.CancelRegistration(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(reg))
	}
}
