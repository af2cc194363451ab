package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Expected int    `json:"expected,omitempty"`
	Actual   int    `json:"actual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
}

// Err summarizes the errors, nil when the result is valid
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

func (r *ValidationResult) finish() *ValidationResult {
	r.Valid = len(r.Errors) == 0
	r.NeedsReview = len(r.Warnings) > 0
	return r
}

// VariantValidator checks generated problems and classifications
type VariantValidator struct {
	choiceCount int
}

// NewVariantValidator creates a validator for five-choice problems
func NewVariantValidator() *VariantValidator {
	return &VariantValidator{choiceCount: models.ChoiceCount}
}

// ValidateBatch checks a whole generation result, including its size
func (v *VariantValidator) ValidateBatch(variants []models.ProblemVariant, expected int) *ValidationResult {
	result := newResult()

	if len(variants) != expected {
		result.Errors = append(result.Errors, ValidationError{
			Field:    "problems",
			Code:     "count_mismatch",
			Expected: expected,
			Actual:   len(variants),
			Message:  fmt.Sprintf("expected %d problems, got %d", expected, len(variants)),
		})
	}

	for i := range variants {
		v.validateVariant(&variants[i], fmt.Sprintf("problems[%d].", i), result)
	}

	return result.finish()
}

// ValidateVariant checks one generated problem
func (v *VariantValidator) ValidateVariant(variant *models.ProblemVariant) *ValidationResult {
	result := newResult()
	v.validateVariant(variant, "", result)
	return result.finish()
}

func (v *VariantValidator) validateVariant(variant *models.ProblemVariant, prefix string, result *ValidationResult) {
	if strings.TrimSpace(variant.Question) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + "question",
			Code:    "question_missing",
			Message: "question is empty",
		})
	}

	v.validateChoices(variant, prefix, result)

	if variant.Answer < 1 || variant.Answer > v.choiceCount {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + "answer",
			Code:    "answer_out_of_range",
			Actual:  variant.Answer,
			Message: fmt.Sprintf("answer must be between 1 and %d", v.choiceCount),
		})
	}

	if strings.TrimSpace(variant.Explanation) == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   prefix + "explanation",
			Code:    "explanation_missing",
			Message: "problem has no explanation",
		})
	}
}

// validateChoices requires exactly choiceCount non-blank options
func (v *VariantValidator) validateChoices(variant *models.ProblemVariant, prefix string, result *ValidationResult) {
	if len(variant.Choices) != v.choiceCount {
		result.Errors = append(result.Errors, ValidationError{
			Field:    prefix + "choices",
			Code:     "choices_count",
			Expected: v.choiceCount,
			Actual:   len(variant.Choices),
			Message:  fmt.Sprintf("expected %d choices, got %d", v.choiceCount, len(variant.Choices)),
		})
		return
	}

	seen := make(map[string]bool, len(variant.Choices))
	for i, c := range variant.Choices {
		c = strings.TrimSpace(c)
		if c == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("%schoices[%d]", prefix, i),
				Code:    "choice_empty",
				Message: "choice is empty",
			})
			continue
		}
		if seen[c] {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   fmt.Sprintf("%schoices[%d]", prefix, i),
				Code:    "choice_duplicate",
				Message: fmt.Sprintf("choice %q appears more than once", c),
			})
		}
		seen[c] = true
	}
}

// ValidateClassification only warns: all fields are free-form text
func (v *VariantValidator) ValidateClassification(c *models.Classification) *ValidationResult {
	result := newResult()

	fields := []struct {
		name  string
		value string
	}{
		{"subject", c.Subject},
		{"grade", c.Grade},
		{"topic", c.Topic},
		{"subTopic", c.SubTopic},
		{"type", c.Type},
		{"difficulty", c.Difficulty},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   f.name,
				Code:    "field_empty",
				Message: f.name + " is empty",
			})
		}
	}

	switch c.Difficulty {
	case models.DifficultyLow, models.DifficultyMedium, models.DifficultyHigh, "":
	default:
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "difficulty",
			Code:    "difficulty_unknown",
			Message: fmt.Sprintf("difficulty %q is not one of 하/중/상", c.Difficulty),
		})
	}

	return result.finish()
}
