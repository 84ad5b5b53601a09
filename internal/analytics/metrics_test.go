package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

func fb(food, stay, conference, campus, activities int, comments string, at time.Time) model.Feedback {
	return model.Feedback{
		Food: food, Stay: stay, Conference: conference, Campus: campus,
		Activities: activities, Comments: comments, SubmittedAt: at,
	}
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil)

	if m.TotalResponses != 0 {
		t.Errorf("expected 0 responses, got %d", m.TotalResponses)
	}
	if len(m.Averages) != 5 {
		t.Fatalf("expected 5 categories, got %d", len(m.Averages))
	}
	for _, a := range m.Averages {
		if a.Score != 0 || a.Answers != 0 {
			t.Errorf("expected zero average for %s, got %+v", a.Name, a)
		}
	}
	if m.Sentiment == nil || len(m.Sentiment) != 0 {
		t.Errorf("expected empty sentiment, got %v", m.Sentiment)
	}
}

func TestCompute_AveragesRoundedAndSkipUnrated(t *testing.T) {
	base := time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)
	data := []model.Feedback{
		fb(5, 4, 5, 3, 0, "", base),
		fb(4, 4, 4, 3, 2, "", base.Add(time.Minute)),
		fb(4, 5, 5, 3, 0, "", base.Add(2*time.Minute)),
	}

	m := Compute(data)

	want := map[string]struct {
		score   float64
		answers int
	}{
		"Food":       {4.3, 3},
		"Stay":       {4.3, 3},
		"Conference": {4.7, 3},
		"Campus":     {3.0, 3},
		"Activities": {2.0, 1},
	}
	for _, a := range m.Averages {
		w, ok := want[a.Name]
		if !ok {
			t.Errorf("unexpected category %s", a.Name)
			continue
		}
		if a.Score != w.score || a.Answers != w.answers {
			t.Errorf("%s: got %+v, want score %.1f answers %d", a.Name, a, w.score, w.answers)
		}
	}
}

func TestCompute_SentimentOrderAndEmptySlices(t *testing.T) {
	now := time.Now()
	m := Compute([]model.Feedback{
		fb(5, 5, 4, 4, 0, "", now),
		fb(5, 1, 4, 5, 0, "", now),
	})

	want := []SentimentSlice{
		{Name: "Exceptional (5★)", Stars: 5, Value: 4},
		{Name: "Excellent (4★)", Stars: 4, Value: 3},
		{Name: "Poor (1★)", Stars: 1, Value: 1},
	}
	if len(m.Sentiment) != len(want) {
		t.Fatalf("expected %d slices, got %v", len(want), m.Sentiment)
	}
	for i := range want {
		if m.Sentiment[i] != want[i] {
			t.Errorf("slice %d: got %+v, want %+v", i, m.Sentiment[i], want[i])
		}
	}
}

func TestCompute_RecentComments(t *testing.T) {
	base := time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)
	var data []model.Feedback
	for i := 0; i < 8; i++ {
		comment := fmt.Sprintf("comment %d", i)
		if i == 6 {
			comment = "   "
		}
		data = append(data, fb(5, 5, 5, 5, 0, comment, base.Add(time.Duration(i)*time.Hour)))
	}

	m := Compute(data)

	if len(m.RecentComments) != RecentCommentLimit {
		t.Fatalf("expected %d comments, got %d", RecentCommentLimit, len(m.RecentComments))
	}
	wantOrder := []string{"comment 7", "comment 5", "comment 4", "comment 3", "comment 2"}
	for i, w := range wantOrder {
		if m.RecentComments[i].Comments != w {
			t.Errorf("position %d: got %q, want %q", i, m.RecentComments[i].Comments, w)
		}
	}
}
