package kiosk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

var ratingLabels = map[int]string{
	1: "Needs Improvement",
	2: "Fair",
	3: "Good",
	4: "Excellent",
	5: "Exceptional",
}

type question struct {
	title string
	set   func(s *model.Submission, v int)
}

var questions = []question{
	{"BIPARD Conference", func(s *model.Submission, v int) { s.Conference = v }},
	{"Accommodation", func(s *model.Submission, v int) { s.Stay = v }},
	{"Dining & Refreshments", func(s *model.Submission, v int) { s.Food = v }},
	{"Campus Environment", func(s *model.Submission, v int) { s.Campus = v }},
	{"Activities", func(s *model.Submission, v int) { s.Activities = v }},
}

// Prompter renders the delegate form on a line-oriented terminal.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Collect asks every question once. A blank answer leaves the rating at 0.
// It returns io.EOF when the input is exhausted.
func (p *Prompter) Collect() (model.Submission, error) {
	fmt.Fprintln(p.out, "Conference Feedback - Manthan 2025")
	fmt.Fprintln(p.out, "Rate each section from 1 to 5:", ratingLegend())

	var s model.Submission
	for _, q := range questions {
		v, err := p.askRating(q.title)
		if err != nil {
			return model.Submission{}, err
		}
		q.set(&s, v)
	}

	fmt.Fprint(p.out, "Additional Remarks (Any suggestions...): ")
	line, err := p.readLine()
	if err != nil {
		return model.Submission{}, err
	}
	s.Comments = line

	return model.NewSubmission(s.Food, s.Stay, s.Conference, s.Campus, s.Activities, s.Comments), nil
}

func (p *Prompter) Show(o Outcome) {
	switch {
	case o.Notice != "":
		fmt.Fprintln(p.out, o.Notice)
	case o.State == StateSuccess:
		fmt.Fprintln(p.out, "Thank You")
		fmt.Fprintln(p.out, "Your feedback is invaluable. We hope you had a memorable stay.")
	case o.State == StateError:
		fmt.Fprintln(p.out, "Something went wrong. Please try again.")
	}
}

func (p *Prompter) askRating(title string) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s [1-5]: ", title)
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return 0, nil
		}

		v, err := strconv.Atoi(line)
		if err == nil && v >= model.MinRating && v <= model.MaxRating {
			fmt.Fprintln(p.out, "  ", ratingLabels[v])
			return v, nil
		}
		fmt.Fprintln(p.out, "Please enter a number from 1 to 5, or leave blank.")
	}
}

func (p *Prompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func ratingLegend() string {
	parts := make([]string, 0, len(ratingLabels))
	for i := model.MinRating; i <= model.MaxRating; i++ {
		parts = append(parts, fmt.Sprintf("%d=%s", i, ratingLabels[i]))
	}
	return strings.Join(parts, ", ")
}
