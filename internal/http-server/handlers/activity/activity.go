package activity

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
	SubmitActivity(ctx context.Context, user *entity.User, req *entity.ActivityRequest) (*entity.Activity, error)
	DecideActivity(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.Activity, error)
	DeleteActivity(ctx context.Context, user *entity.User, id string) (*entity.Activity, error)
	GetActivity(ctx context.Context, user *entity.User, id string) (*entity.Activity, error)
	ListActivities(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.Activity, error)
	Enroll(ctx context.Context, user *entity.User, activityID, submitterID string) (*entity.Registration, error)
}

func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With(
		sl.Module("http.handlers.activity"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func Submit(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		user := cont.GetUser(r.Context())

		var req entity.ActivityRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("bind activity", sl.Err(err))
			response.RenderError(w, r, response.BindError(err))
			return
		}

		activity, err := handler.SubmitActivity(r.Context(), user, &req)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(activity))
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(logger, r)
		user := cont.GetUser(r.Context())

		filter, err := query.FilterFromValues(r.URL.Query())
		if err != nil {
			log.Debug("invalid filter", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}

		items, err := handler.ListActivities(r.Context(), user, filter)
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
		activity, err := handler.GetActivity(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(activity))
	}
}

func Decide(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(sl.Activity(id))
		user := cont.GetUser(r.Context())

		var req entity.DecisionRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("bind decision", sl.Err(err))
			response.RenderError(w, r, response.BindError(err))
			return
		}

		activity, err := handler.DecideActivity(r.Context(), user, id, &req)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(activity))
	}
}

func Delete(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		activity, err := handler.DeleteActivity(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(activity))
	}
}

// Enroll accepts an empty body; submitter_id defaults to the caller.
func Enroll(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log := requestLogger(logger, r).With(sl.Activity(id))
		user := cont.GetUser(r.Context())

		var req entity.EnrollRequest
		if r.ContentLength != 0 {
			if err := render.Bind(r, &req); err != nil {
				log.Debug("bind enroll", sl.Err(err))
				response.RenderError(w, r, response.BindError(err))
				return
			}
		}

		registration, err := handler.Enroll(r.Context(), user, id, req.SubmitterID)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(registration))
	}
}
