package query

import (
	"net/url"
	"strconv"
	"strings"

	"eventreg/entity"
	"eventreg/lib/apperr"
)

// FilterFromValues reads list filters from query parameters. Set-valued
// parameters may repeat or carry comma-separated values.
func FilterFromValues(v url.Values) (entity.Filter, error) {
	f := entity.Filter{
		SubmitterID:   strings.TrimSpace(v.Get("submitter_id")),
		SubmitterLike: strings.TrimSpace(v.Get("q")),
		Categories:    values(v, "category"),
		ActivityIDs:   values(v, "activity_id"),
	}
	f.ActivityIDs = append(f.ActivityIDs, values(v, "id")...)

	for _, s := range values(v, "status") {
		status := entity.Status(strings.ToLower(s))
		if !status.Valid() {
			return f, apperr.Newf(apperr.CodeValidation, "unknown status %q", s).WithMeta("fields", "status")
		}
		f.Statuses = append(f.Statuses, status)
	}
	for _, y := range values(v, "cohort_year") {
		year, err := strconv.Atoi(y)
		if err != nil {
			return f, apperr.Newf(apperr.CodeValidation, "invalid cohort year %q", y).WithMeta("fields", "cohort_year")
		}
		f.CohortYears = append(f.CohortYears, year)
	}
	return f, nil
}

func values(v url.Values, key string) []string {
	var result []string
	for _, raw := range v[key] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				result = append(result, part)
			}
		}
	}
	return result
}
