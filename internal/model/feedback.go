package model

import (
	"time"
	"unicode/utf8"

	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const (
	MinRating         = 1
	MaxRating         = 5
	MaxCommentsLength = 1000
)

type Source string

const (
	SourceKiosk  Source = "kiosk"
	SourceWeb    Source = "web"
	SourceImport Source = "import"
)

// Submission is one delegate's ratings as sent by a client and kept in the
// kiosk's pending queue. ID is assigned at creation time and never changes.
type Submission struct {
	ID         int64  `json:"id"`
	Food       int    `json:"food"`
	Stay       int    `json:"stay"`
	Conference int    `json:"conference"`
	Campus     int    `json:"campus"`
	Activities int    `json:"activities"`
	Comments   string `json:"comments"`
}

func NewSubmission(food, stay, conference, campus, activities int, comments string) Submission {
	return Submission{
		ID:         time.Now().UnixNano(),
		Food:       food,
		Stay:       stay,
		Conference: conference,
		Campus:     campus,
		Activities: activities,
		Comments:   comments,
	}
}

// Validate checks the mandatory ratings, the optional activities rating
// (0 means not rated) and the comment length.
func (s Submission) Validate() error {
	mandatory := []struct {
		field string
		value int
	}{
		{"food", s.Food},
		{"stay", s.Stay},
		{"conference", s.Conference},
		{"campus", s.Campus},
	}
	for _, m := range mandatory {
		if m.value < MinRating || m.value > MaxRating {
			return apperrors.ValidationError{Field: m.field, Value: m.value, Message: "rating must be between 1 and 5"}
		}
	}

	if s.Activities < 0 || s.Activities > MaxRating {
		return apperrors.ValidationError{Field: "activities", Value: s.Activities, Message: "rating must be between 0 and 5"}
	}

	if n := utf8.RuneCountInString(s.Comments); n > MaxCommentsLength {
		return apperrors.ValidationError{Field: "comments", Value: n, Message: "comments must be at most 1000 characters"}
	}

	return nil
}

// Feedback is a stored submission.
type Feedback struct {
	ID          string    `json:"_id" db:"id" bson:"_id,omitempty"`
	ClientID    int64     `json:"client_id,omitempty" db:"client_id" bson:"client_id,omitempty"`
	Source      Source    `json:"source" db:"source" bson:"source"`
	Food        int       `json:"food" db:"food" bson:"food"`
	Stay        int       `json:"stay" db:"stay" bson:"stay"`
	Conference  int       `json:"conference" db:"conference" bson:"conference"`
	Campus      int       `json:"campus" db:"campus" bson:"campus"`
	Activities  int       `json:"activities" db:"activities" bson:"activities"`
	Comments    string    `json:"comments" db:"comments" bson:"comments"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at" bson:"submittedAt"`
}

func FeedbackFromSubmission(s Submission, source Source, now time.Time) *Feedback {
	return &Feedback{
		ClientID:    s.ID,
		Source:      source,
		Food:        s.Food,
		Stay:        s.Stay,
		Conference:  s.Conference,
		Campus:      s.Campus,
		Activities:  s.Activities,
		Comments:    s.Comments,
		SubmittedAt: now,
	}
}

func (f *Feedback) Submission() Submission {
	return Submission{
		ID:         f.ClientID,
		Food:       f.Food,
		Stay:       f.Stay,
		Conference: f.Conference,
		Campus:     f.Campus,
		Activities: f.Activities,
		Comments:   f.Comments,
	}
}
