package errors

import (
	"log/slog"
	"net/http"

	"eventreg/lib/api/response"
	"eventreg/lib/apperr"

	"github.com/go-chi/render"
)

func NotFound(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Fail(apperr.New(apperr.CodeNotFound, "Requested resource not found")))
	}
}
