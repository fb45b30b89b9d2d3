// Package quiz grades multiple-choice submissions against a caller-supplied answer key.
package quiz

import (
	"fmt"
)

// PassThreshold is the minimum percentage required to pass
const PassThreshold = 70.0

// Submission is a graded quiz request
type Submission struct {
	UserID         string   `json:"userId"`
	Answers        []string `json:"answers"`
	CorrectAnswers []string `json:"correctAnswers"`
	RoleID         string   `json:"roleId"`
}

// Result is the outcome of grading a submission
type Result struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"-"`
}

// Validate checks that all fields of the submission are present.
// Answer arrays are checked by Grade.
func (s *Submission) Validate() error {
	if s.UserID == "" || s.RoleID == "" || s.Answers == nil || s.CorrectAnswers == nil {
		return &ValidationError{Reason: "Missing required fields"}
	}
	return nil
}

// Grade counts the positional matches between answers and correct.
func Grade(answers, correct []string) (Result, error) {
	if answers == nil || correct == nil {
		return Result{}, &ValidationError{Reason: "Answers must be provided as arrays"}
	}
	if len(answers) != len(correct) {
		return Result{}, &ValidationError{Reason: "Answer arrays must have the same length"}
	}
	if len(answers) == 0 {
		return Result{}, &ValidationError{Reason: "Answer arrays must not be empty"}
	}

	res := Result{Total: len(answers)}
	for i := range answers {
		if answers[i] == correct[i] {
			res.Correct++
		}
	}
	res.Percentage = float64(res.Correct) / float64(res.Total) * 100
	res.Passed = res.Percentage >= PassThreshold
	return res, nil
}

// Grade validates and grades the submission
func (s *Submission) Grade() (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	return Grade(s.Answers, s.CorrectAnswers)
}

// RoundedPercentage returns the percentage rounded half away from zero
func (r Result) RoundedPercentage() int {
	return int(r.Percentage + 0.5)
}

// String formats the result the way it is shown to members
func (r Result) String() string {
	return fmt.Sprintf("%d/%d (%d%%)", r.Correct, r.Total, r.RoundedPercentage())
}
