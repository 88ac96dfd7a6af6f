package record

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventreg/entity"
	"eventreg/impl/query"
	"eventreg/lib/api/cont"
	"eventreg/lib/api/response"
	"eventreg/lib/apperr"
	"eventreg/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

const maxMemory = 8 << 20

type Core interface {
	SubmitRecord(ctx context.Context, user *entity.User, req *entity.RecordRequest, file io.Reader, att *entity.Attachment) (*entity.AchievementRecord, error)
	DecideRecord(ctx context.Context, user *entity.User, id string, req *entity.DecisionRequest) (*entity.AchievementRecord, error)
	GetRecord(ctx context.Context, user *entity.User, id string) (*entity.AchievementRecord, error)
	RecordAttachment(ctx context.Context, user *entity.User, id string) (io.ReadCloser, *entity.FileMeta, error)
	ListRecords(ctx context.Context, user *entity.User, f entity.Filter) ([]entity.AchievementRecord, error)
}

// Submit takes a multipart form with the record fields and an "attachment" file part.
func Submit(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.record")
		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		user := cont.GetUser(r.Context())

		if err := r.ParseMultipartForm(maxMemory); err != nil {
			log.Debug("parse form", sl.Err(err))
			response.RenderError(w, r, apperr.Wrap(apperr.CodeValidation, "multipart form expected", err))
			return
		}
		req, err := formRequest(r)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}

		var (
			file io.Reader
			att  *entity.Attachment
		)
		part, header, err := r.FormFile("attachment")
		if err == nil {
			defer func(f multipart.File) {
				_ = f.Close()
			}(part)
			file = part
			att = &entity.Attachment{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
			}
		}

		rec, err := handler.SubmitRecord(r.Context(), user, req, file, att)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(rec))
	}
}

func formRequest(r *http.Request) (*entity.RecordRequest, error) {
	req := &entity.RecordRequest{
		SubmitterID:  strings.TrimSpace(r.FormValue("submitter_id")),
		DisplayName:  strings.TrimSpace(r.FormValue("display_name")),
		ActivityID:   strings.TrimSpace(r.FormValue("activity_id")),
		Category:     strings.TrimSpace(r.FormValue("category")),
		ActivityName: strings.TrimSpace(r.FormValue("activity_name")),
		Organizer:    strings.TrimSpace(r.FormValue("organizer")),
		Description:  strings.TrimSpace(r.FormValue("description")),
	}
	var err error
	if v := r.FormValue("cohort_end_year"); v != "" {
		if req.CohortEndYear, err = strconv.Atoi(v); err != nil {
			return nil, apperr.New(apperr.CodeValidation, "cohort_end_year must be a year").WithMeta("fields", "cohort_end_year")
		}
	}
	if req.StartAt, err = parseDate(r.FormValue("start_date")); err != nil {
		return nil, apperr.New(apperr.CodeValidation, "start_date is not a date").WithMeta("fields", "start_date")
	}
	if req.EndAt, err = parseDate(r.FormValue("end_date")); err != nil {
		return nil, apperr.New(apperr.CodeValidation, "end_date is not a date").WithMeta("fields", "end_date")
	}
	return req, nil
}

// parseDate accepts RFC 3339 or a plain calendar date; empty input yields the zero time.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.record")
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
		items, err := handler.ListRecords(r.Context(), user, filter)
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
		rec, err := handler.GetRecord(r.Context(), user, chi.URLParam(r, "id"))
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(rec))
	}
}

func Decide(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.record")
		id := chi.URLParam(r, "id")
		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("record_id", id),
		)
		user := cont.GetUser(r.Context())

		var req entity.DecisionRequest
		if err := render.Bind(r, &req); err != nil {
			log.Debug("bind decision", sl.Err(err))
			response.RenderError(w, r, response.BindError(err))
			return
		}
		rec, err := handler.DecideRecord(r.Context(), user, id, &req)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, response.Ok(rec))
	}
}

func Attachment(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.record")
		id := chi.URLParam(r, "id")
		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("record_id", id),
		)
		user := cont.GetUser(r.Context())

		fileStream, meta, err := handler.RecordAttachment(r.Context(), user, id)
		if err != nil {
			response.RenderError(w, r, err)
			return
		}
		defer fileStream.Close()

		w.Header().Set("Content-Type", meta.ContentType)
		if meta.ContentLength >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(meta.ContentLength, 10))
		}
		w.Header().Set("Content-Disposition", "inline; filename=\""+meta.Name+"\"")

		if _, err = io.Copy(w, fileStream); err != nil {
			log.Error("failed to copy file", sl.Err(err))
		}
	}
}
