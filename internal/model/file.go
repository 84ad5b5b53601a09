package model

import "time"

type ImportStatus string

const (
	ImportStatusUploaded   ImportStatus = "UPLOADED"
	ImportStatusParsedOK   ImportStatus = "PARSED_OK"
	ImportStatusParsedFail ImportStatus = "PARSED_FAIL"
)

// ImportFile tracks one uploaded spreadsheet of paper feedback forms.
type ImportFile struct {
	ID           string       `json:"id" db:"id" bson:"_id"`
	S3Path       string       `json:"s3_path" db:"s3_path" bson:"s3_path"`
	Status       ImportStatus `json:"status" db:"status" bson:"status"`
	Imported     int          `json:"imported" db:"imported" bson:"imported"`
	ErrorMessage *string      `json:"error_message,omitempty" db:"error_message" bson:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at" bson:"updated_at"`
}
