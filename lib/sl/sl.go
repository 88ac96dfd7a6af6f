// Package sl holds the slog attributes shared across the service.
package sl

import (
	"log/slog"
)

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Secret keeps the first 5 characters of a credential for log correlation
func Secret(key, value string) slog.Attr {
	switch {
	case value == "":
		return slog.String(key, "?")
	case len(value) > 5:
		return slog.String(key, value[:5]+"***")
	default:
		return slog.String(key, "***")
	}
}

func Module(mod string) slog.Attr {
	return slog.String("mod", mod)
}

func Activity(id string) slog.Attr {
	return slog.String("activity_id", id)
}

func Submitter(id string) slog.Attr {
	return slog.String("submitter_id", id)
}

func User(name string) slog.Attr {
	return slog.String("user", name)
}
