package model

import "time"

type ImportJob struct {
	ImportID string `json:"import_id"`
	S3Path   string `json:"s3_path"`
}

type SubmitResponse struct {
	Message   string `json:"message"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type LoginRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type AuthTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type ImportAcceptedResponse struct {
	ImportID string       `json:"import_id"`
	Status   ImportStatus `json:"status"`
}

type ImportStatusResponse struct {
	ImportID     string       `json:"import_id"`
	Status       ImportStatus `json:"status"`
	Imported     int          `json:"imported"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// FeedbackRow is one parsed line of an import spreadsheet.
type FeedbackRow struct {
	Line        int
	SubmittedAt *time.Time
	Food        int
	Stay        int
	Conference  int
	Campus      int
	Activities  int
	Comments    string
}

func (r FeedbackRow) Submission() Submission {
	return Submission{
		Food:       r.Food,
		Stay:       r.Stay,
		Conference: r.Conference,
		Campus:     r.Campus,
		Activities: r.Activities,
		Comments:   r.Comments,
	}
}
