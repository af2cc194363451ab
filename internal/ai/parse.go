package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// StripCodeFences removes a markdown code block around a model reply
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	rest = strings.TrimPrefix(rest, "json")
	rest = strings.TrimPrefix(rest, "JSON")
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

var classificationKeys = []string{"subject", "grade", "topic", "subTopic", "type", "difficulty"}

// parseClassification requires one JSON object carrying all six keys
func parseClassification(response string) (*models.Classification, error) {
	cleaned := StripCodeFences(response)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: classification is not a JSON object: %v", ErrMalformedResponse, err)
	}

	values := make(map[string]string, len(classificationKeys))
	for _, key := range classificationKeys {
		raw, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("%w: classification missing %q", ErrMalformedResponse, key)
		}
		s, err := stringValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: classification %q: %v", ErrMalformedResponse, key, err)
		}
		values[key] = s
	}

	return &models.Classification{
		Subject:    values["subject"],
		Grade:      values["grade"],
		Topic:      values["topic"],
		SubTopic:   values["subTopic"],
		Type:       values["type"],
		Difficulty: values["difficulty"],
	}, nil
}

// stringValue accepts JSON strings and numbers
func stringValue(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected text, got %s", string(raw))
	}
}

type rawVariant struct {
	Question    string        `json:"question"`
	Choices     []interface{} `json:"choices"`
	Answer      interface{}   `json:"answer"`
	Explanation string        `json:"explanation"`
}

// parseVariants accepts a bare array or {"problems": [...]}
func parseVariants(response string) ([]models.ProblemVariant, error) {
	cleaned := StripCodeFences(response)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var raws []rawVariant
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &raws); err != nil {
			return nil, fmt.Errorf("%w: problems are not a JSON array: %v", ErrMalformedResponse, err)
		}
	} else {
		var envelope struct {
			Problems json.RawMessage `json:"problems"`
		}
		if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(bytes.TrimSpace(envelope.Problems)) == 0 {
			return nil, fmt.Errorf("%w: response has no problems", ErrMalformedResponse)
		}
		if err := json.Unmarshal(envelope.Problems, &raws); err != nil {
			return nil, fmt.Errorf("%w: problems are not a JSON array: %v", ErrMalformedResponse, err)
		}
	}

	variants := make([]models.ProblemVariant, 0, len(raws))
	for i, r := range raws {
		choices, err := parseChoices(r.Choices)
		if err != nil {
			return nil, fmt.Errorf("%w: problems[%d]: %v", ErrMalformedResponse, i, err)
		}
		variants = append(variants, models.ProblemVariant{
			Question:    strings.TrimSpace(r.Question),
			Choices:     choices,
			Answer:      parseAnswer(r.Answer),
			Explanation: strings.TrimSpace(r.Explanation),
		})
	}
	return variants, nil
}

func parseChoices(raw []interface{}) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	choices := make([]string, 0, len(raw))
	for i, c := range raw {
		switch val := c.(type) {
		case string:
			choices = append(choices, strings.TrimSpace(val))
		case float64:
			choices = append(choices, strconv.FormatFloat(val, 'f', -1, 64))
		default:
			return nil, fmt.Errorf("choice %d is not text", i+1)
		}
	}
	return choices, nil
}

var circledDigits = []string{"①", "②", "③", "④", "⑤"}

// parseAnswer handles flexible answer formats: 3, "3", "3번", "③", "정답: 3".
// Unrecognized values return 0, which validation rejects.
func parseAnswer(v interface{}) int {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0
		}
		return int(val)
	case string:
		s := strings.TrimSpace(val)
		for i, digit := range circledDigits {
			if strings.Contains(s, digit) {
				return i + 1
			}
		}
		s = strings.TrimPrefix(s, "정답")
		s = strings.TrimLeft(s, ": ")
		s = strings.TrimSuffix(s, "번")
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
