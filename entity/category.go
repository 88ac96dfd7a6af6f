package entity

import (
	"eventreg/lib/validate"

	"github.com/go-playground/validator/v10"
)

var categories = []string{
	"Hackathon",
	"Health",
	"Business",
	"Environment",
	"Quiz",
	"Tech",
	"Education",
	"Science",
	"Info",
	"Internship",
	"Patent filing",
	"Paper presentation",
	"Workshop",
	"Pitch desk",
}

func init() {
	validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return IsValidCategory(fl.Field().String())
	})
}

func Categories() []string {
	result := make([]string, len(categories))
	copy(result, categories)
	return result
}

func IsValidCategory(category string) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
