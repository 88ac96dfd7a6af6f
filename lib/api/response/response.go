package response

import (
	"eventreg/lib/apperr"
	"eventreg/lib/clock"
)

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Code          string      `json:"code,omitempty"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Fail builds an error response from a coded error.
func Fail(err error) Response {
	return Response{
		Success:       false,
		StatusMessage: apperr.MessageOf(err),
		Code:          string(apperr.CodeOf(err)),
		Timestamp:     clock.Now(),
	}
}
