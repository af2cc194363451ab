package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

var (
	ErrInvalidAPIKey     = errors.New("API 키가 유효하지 않습니다")
	ErrQuotaExceeded     = errors.New("API 사용량 한도를 초과했습니다")
	ErrRateLimited       = errors.New("요청이 너무 많습니다")
	ErrPermissionDenied  = errors.New("API 접근 권한이 없습니다")
	ErrMissingAPIKey     = errors.New("API 키가 설정되지 않았습니다")
	ErrEmptyResponse     = errors.New("empty model response")
	ErrMalformedResponse = errors.New("malformed model response")
)

// mapProviderError tags a backend failure with one of the sentinels above when it
// can be recognized. The original error stays in the chain.
func mapProviderError(err error) error {
	if err == nil {
		return nil
	}
	if sentinel := classifyProviderError(err); sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := fmt.Sprint(apiErr.Code)
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || code == "invalid_api_key":
			return ErrInvalidAPIKey
		case code == "insufficient_quota" || apiErr.Type == "insufficient_quota":
			return ErrQuotaExceeded
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return ErrRateLimited
		case apiErr.HTTPStatusCode == http.StatusForbidden:
			return ErrPermissionDenied
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if sentinel := fromStatus(reqErr.HTTPStatusCode); sentinel != nil {
			return sentinel
		}
	}

	msg := err.Error()

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		msg = gErr.Message + " " + msg
		if strings.Contains(msg, "API_KEY_INVALID") {
			return ErrInvalidAPIKey
		}
		if strings.Contains(msg, "QUOTA_EXCEEDED") {
			return ErrQuotaExceeded
		}
		if sentinel := fromStatus(gErr.Code); sentinel != nil {
			return sentinel
		}
	}

	// Gemini reports most failures as text only
	switch {
	case strings.Contains(msg, "API_KEY_INVALID"), strings.Contains(msg, "API key not valid"):
		return ErrInvalidAPIKey
	case strings.Contains(msg, "QUOTA_EXCEEDED"), strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return ErrQuotaExceeded
	case strings.Contains(msg, "Error 429"):
		return ErrRateLimited
	case strings.Contains(msg, "PERMISSION_DENIED"), strings.Contains(msg, "Error 403"):
		return ErrPermissionDenied
	}
	return nil
}

func fromStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrInvalidAPIKey
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusForbidden:
		return ErrPermissionDenied
	}
	return nil
}
