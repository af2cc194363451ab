package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/services"
)

// Analyzer classifies problem text and generates variants through a Provider
type Analyzer struct {
	provider  Provider
	validator *services.VariantValidator
	logger    zerolog.Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(provider Provider, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider:  provider,
		validator: services.NewVariantValidator(),
		logger:    logger,
	}
}

// Classify returns subject, grade, topic, subTopic, type and difficulty of the problem
func (a *Analyzer) Classify(ctx context.Context, text string) (*models.Classification, error) {
	startTime := time.Now()

	response, err := a.provider.ExtractData(ctx, buildClassifyPrompt(text), "")
	if err != nil {
		return nil, fmt.Errorf("문제 분석 중 오류가 발생했습니다: %w", err)
	}

	a.logger.Debug().
		Str("provider", a.provider.Name()).
		Dur("duration", time.Since(startTime)).
		Int("response_len", len(response)).
		Msg("classification response")

	c, err := parseClassification(response)
	if err != nil {
		a.logger.Warn().Str("raw", response).Msg("unparseable classification")
		return nil, err
	}

	if result := a.validator.ValidateClassification(c); result.NeedsReview {
		for _, w := range result.Warnings {
			a.logger.Warn().Str("field", w.Field).Str("code", w.Code).Msg(w.Message)
		}
	}
	return c, nil
}

// Generate returns exactly req.Count variants or fails the whole call
func (a *Analyzer) Generate(ctx context.Context, req models.GenerateRequest) ([]models.ProblemVariant, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("unknown generation mode: %q", req.Mode)
	}
	if req.Count < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", req.Count)
	}

	startTime := time.Now()

	prompt, err := buildGeneratePrompt(req)
	if err != nil {
		return nil, err
	}

	response, err := a.provider.ExtractData(ctx, prompt, "")
	if err != nil {
		return nil, fmt.Errorf("유사 문제 생성 중 오류가 발생했습니다: %w", err)
	}

	a.logger.Debug().
		Str("provider", a.provider.Name()).
		Str("mode", string(req.Mode)).
		Int("count", req.Count).
		Dur("duration", time.Since(startTime)).
		Msg("generation response")

	variants, err := parseVariants(response)
	if err != nil {
		a.logger.Warn().Str("raw", response).Msg("unparseable generation")
		return nil, err
	}

	result := a.validator.ValidateBatch(variants, req.Count)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, result.Err())
	}
	return variants, nil
}

func buildClassifyPrompt(text string) string {
	return fmt.Sprintf(`다음 시험 문제 텍스트를 분석하여 과목, 학년, 대주제, 소주제, 문제 유형, 난이도를 JSON 형식으로 추출해줘.
여섯 개의 키를 모두 포함한 JSON 객체 하나만 출력하고, 다른 설명은 쓰지 마.

[문제 텍스트]
%s

[출력 형식]
{
  "subject": "과목 (예: 수학)",
  "grade": "학년 (예: 중2, 고1)",
  "topic": "대주제 (예: 방정식)",
  "subTopic": "소주제 (예: 일차방정식의 활용)",
  "type": "문제 유형 설명",
  "difficulty": "난이도 (하/중/상 중 하나)"
}`, strings.TrimSpace(text))
}

func modeDescription(mode models.Mode) string {
	if mode == models.ModeTwin {
		return "쌍둥이 문제: 원본 문제와 논리 구조, 풀이 방식이 완전히 동일하고 숫자나 변수만 바뀐 문제"
	}
	return "유사 문제: 원본 문제와 같은 유형이고 같은 개념을 묻지만, 문제 상황이나 표현이 조금 더 변형된 문제"
}

func buildGeneratePrompt(req models.GenerateRequest) (string, error) {
	analysis, err := json.Marshal(req.Classification)
	if err != nil {
		return "", fmt.Errorf("failed to encode classification: %w", err)
	}

	return fmt.Sprintf(`다음 원본 문제와 분석 정보를 바탕으로 %s를 정확히 %d개 생성해줘.
각 문제는 5지선다형이며, 반드시 아래 JSON 형식으로만 출력해야 해.

[원본 문제]
%s

[분석 정보]
%s

[출력 형식]
{
  "problems": [
    {
      "question": "문제 지문 (수식은 LaTeX 형식이 아닌 일반 텍스트나 읽기 쉬운 형태로)",
      "choices": ["선택지1", "선택지2", "선택지3", "선택지4", "선택지5"],
      "answer": 1,
      "explanation": "상세한 해설"
    }
  ]
}

"answer"는 정답 선택지의 번호(1-5)야.`, modeDescription(req.Mode), req.Count, strings.TrimSpace(req.OriginalText), analysis), nil
}
