package entity

import "strings"

// Filter is a conjunction of optional predicates; zero value matches everything.
type Filter struct {
	SubmitterID   string   `json:"submitter_id,omitempty"`
	SubmitterLike string   `json:"q,omitempty"`
	Categories    []string `json:"category,omitempty"`
	ActivityIDs   []string `json:"activity_id,omitempty"`
	CohortYears   []int    `json:"cohort_year,omitempty"`
	Statuses      []Status `json:"status,omitempty"`
	// IncludeDeleted lifts the default exclusion of deleted activities.
	IncludeDeleted bool `json:"-"`
}

func (f Filter) MatchSubmitter(submitterID string) bool {
	if f.SubmitterID != "" && f.SubmitterID != submitterID {
		return false
	}
	if f.SubmitterLike != "" && !strings.Contains(strings.ToLower(submitterID), strings.ToLower(f.SubmitterLike)) {
		return false
	}
	return true
}

func (f Filter) MatchCategory(category string) bool {
	return len(f.Categories) == 0 || contains(f.Categories, category)
}

func (f Filter) MatchActivity(activityID string) bool {
	return len(f.ActivityIDs) == 0 || contains(f.ActivityIDs, activityID)
}

func (f Filter) MatchCohort(year int) bool {
	if len(f.CohortYears) == 0 {
		return true
	}
	for _, y := range f.CohortYears {
		if y == year {
			return true
		}
	}
	return false
}

func (f Filter) MatchStatus(status Status) bool {
	if len(f.Statuses) == 0 {
		return f.IncludeDeleted || status != StatusDeleted
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
