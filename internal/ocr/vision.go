package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/ai"
	"github.com/twinsgen/twin-problem-service/internal/models"
)

const transcribePrompt = `이 이미지는 시험 문제입니다. 이미지에 있는 문제 텍스트를 빠짐없이 그대로 옮겨 적어 주세요.
수식은 텍스트로 표현하고, 보기 번호(①~⑤)도 그대로 유지하세요.
설명이나 풀이 없이 다음 JSON 형식으로만 응답하세요:
{"text": "문제 텍스트"}`

// VisionOCR transcribes problem images with a multimodal model
type VisionOCR struct {
	provider ai.Provider
}

// NewVisionOCR creates a vision-model engine
func NewVisionOCR(provider ai.Provider) *VisionOCR {
	return &VisionOCR{provider: provider}
}

// Name returns the engine name
func (v *VisionOCR) Name() string {
	return "vision:" + v.provider.Name()
}

// ExtractText sends the image to the provider. Progress is 0 then 100.
func (v *VisionOCR) ExtractText(ctx context.Context, in models.ImageInput, progress ProgressFunc) (string, error) {
	report(progress, 0)

	response, err := v.provider.ExtractData(ctx, transcribePrompt, ai.ImageDataURL(in.MediaType, in.Data))
	if err != nil {
		return "", fmt.Errorf("vision transcription failed: %w", err)
	}

	text := parseTranscription(response)
	if text == "" {
		return "", ErrEmptyText
	}

	report(progress, 100)
	return text, nil
}

// parseTranscription reads {"text": ...}; plain text replies are used as-is
func parseTranscription(response string) string {
	cleaned := ai.StripCodeFences(response)

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return strings.TrimSpace(payload.Text)
	}
	return strings.TrimSpace(cleaned)
}
