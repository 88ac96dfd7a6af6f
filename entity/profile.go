package entity

// Profile is the directory view of a submitter.
type Profile struct {
	SubmitterID     string `json:"submitter_id" bson:"reg_no"`
	DisplayName     string `json:"display_name" bson:"user_name"`
	Department      string `json:"department" bson:"department"`
	CohortStartYear int    `json:"cohort_start_year" bson:"start_year"`
	CohortEndYear   int    `json:"cohort_end_year" bson:"end_year"`
}
