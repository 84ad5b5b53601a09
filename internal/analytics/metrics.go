package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

const RecentCommentLimit = 5

type CategoryAverage struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Answers int     `json:"answers"`
}

type SentimentSlice struct {
	Name  string `json:"name"`
	Stars int    `json:"stars"`
	Value int    `json:"value"`
}

type RecentComment struct {
	SubmittedAt time.Time `json:"submittedAt"`
	Comments    string    `json:"comments"`
	Source      string    `json:"source"`
}

type Metrics struct {
	TotalResponses int               `json:"total_responses"`
	Averages       []CategoryAverage `json:"averages"`
	Sentiment      []SentimentSlice  `json:"sentiment"`
	RecentComments []RecentComment   `json:"recent_comments"`
}

var sentimentLabels = []struct {
	stars int
	name  string
}{
	{5, "Exceptional (5★)"},
	{4, "Excellent (4★)"},
	{3, "Good (3★)"},
	{2, "Fair (2★)"},
	{1, "Poor (1★)"},
}

type category struct {
	name  string
	value func(f model.Feedback) int
}

var categories = []category{
	{"Food", func(f model.Feedback) int { return f.Food }},
	{"Stay", func(f model.Feedback) int { return f.Stay }},
	{"Conference", func(f model.Feedback) int { return f.Conference }},
	{"Campus", func(f model.Feedback) int { return f.Campus }},
	{"Activities", func(f model.Feedback) int { return f.Activities }},
}

// Compute builds dashboard metrics. A zero rating means "not rated" and is
// left out of both the averages and the star distribution.
func Compute(feedback []model.Feedback) Metrics {
	metrics := Metrics{
		TotalResponses: len(feedback),
		Averages:       make([]CategoryAverage, 0, len(categories)),
		Sentiment:      []SentimentSlice{},
		RecentComments: []RecentComment{},
	}

	starCounts := make(map[int]int, len(sentimentLabels))
	for _, c := range categories {
		sum, n := 0, 0
		for _, f := range feedback {
			v := c.value(f)
			if v < model.MinRating || v > model.MaxRating {
				continue
			}
			sum += v
			n++
			starCounts[v]++
		}

		avg := CategoryAverage{Name: c.name, Answers: n}
		if n > 0 {
			avg.Score = roundTenth(float64(sum) / float64(n))
		}
		metrics.Averages = append(metrics.Averages, avg)
	}

	for _, l := range sentimentLabels {
		if starCounts[l.stars] == 0 {
			continue
		}
		metrics.Sentiment = append(metrics.Sentiment, SentimentSlice{Name: l.name, Stars: l.stars, Value: starCounts[l.stars]})
	}

	metrics.RecentComments = recentComments(feedback, RecentCommentLimit)
	return metrics
}

func recentComments(feedback []model.Feedback, limit int) []RecentComment {
	withComments := make([]model.Feedback, 0, len(feedback))
	for _, f := range feedback {
		if strings.TrimSpace(f.Comments) != "" {
			withComments = append(withComments, f)
		}
	}

	sort.SliceStable(withComments, func(i, j int) bool {
		return withComments[i].SubmittedAt.After(withComments[j].SubmittedAt)
	})
	if len(withComments) > limit {
		withComments = withComments[:limit]
	}

	out := make([]RecentComment, 0, len(withComments))
	for _, f := range withComments {
		out = append(out, RecentComment{SubmittedAt: f.SubmittedAt, Comments: f.Comments, Source: string(f.Source)})
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
