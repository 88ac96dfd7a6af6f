package response

import (
	"errors"
	"net/http"

	"eventreg/lib/apperr"

	"github.com/go-chi/render"
)

// RenderError writes a coded error with its mapped status.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, apperr.CodeOf(err).HTTPStatus())
	render.JSON(w, r, Fail(err))
}

// BindError normalizes a render.Bind failure into a validation error.
func BindError(err error) error {
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return err
	}
	return apperr.Wrap(apperr.CodeValidation, "malformed request body", err)
}
