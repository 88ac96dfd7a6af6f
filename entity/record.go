package entity

import (
	"time"

	"eventreg/lib/validate"
)

// AchievementRecord is a retrospective participation report. ActivityID is informational.
type AchievementRecord struct {
	ID            string    `json:"id"`
	SubmitterID   string    `json:"submitter_id"`
	DisplayName   string    `json:"display_name"`
	CohortEndYear int       `json:"cohort_end_year"`
	ActivityID    string    `json:"activity_id"`
	ActivityName  string    `json:"activity_name"`
	Category      string    `json:"category"`
	Organizer     string    `json:"organizer"`
	StartAt       time.Time `json:"start_date"`
	EndAt         time.Time `json:"end_date"`
	Description   string    `json:"description"`
	Attachment    string    `json:"attachment"`
	CreatedAt     time.Time `json:"created_at"`
	Review
}

func (r *AchievementRecord) ReviewKind() Kind {
	return KindRecord
}

func (r *AchievementRecord) ReviewID() string {
	return r.ID
}

// RecordRequest carries the ten mandatory fields of a submission; the attachment
// travels separately.
type RecordRequest struct {
	SubmitterID   string    `json:"submitter_id" validate:"required"`
	DisplayName   string    `json:"display_name" validate:"required"`
	CohortEndYear int       `json:"cohort_end_year" validate:"required,min=1900,max=3000"`
	ActivityID    string    `json:"activity_id" validate:"required"`
	Category      string    `json:"category" validate:"required,category"`
	ActivityName  string    `json:"activity_name" validate:"required"`
	Organizer     string    `json:"organizer" validate:"required"`
	StartAt       time.Time `json:"start_date" validate:"required"`
	EndAt         time.Time `json:"end_date" validate:"required,gtefield=StartAt"`
	Description   string    `json:"description" validate:"required"`
}

func (r *RecordRequest) Validate() error {
	return validate.Struct(r)
}

// Attachment is an uploaded file stored by the attachment store.
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
}

type FileMeta struct {
	ContentType   string
	ContentLength int64
	Name          string
}
