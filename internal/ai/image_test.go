package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestParseImage(t *testing.T) {
	heic := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'}

	tests := []struct {
		name  string
		image string
		want  string
	}{
		{"plain png", ImageDataURL("", pngBytes), "image/png"},
		{"declared heic", ImageDataURL("image/heic", heic), "image/heic"},
		{"sniffed type wins", ImageDataURL("image/jpeg", pngBytes), "image/png"},
		{"unknown bytes", ImageDataURL("", heic), "image/jpeg"},
		{"non-image declaration", ImageDataURL("application/octet-stream", heic), "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := parseImage(tt.image)
			require.NoError(t, err)
			assert.Equal(t, tt.want, img.mediaType)
			assert.NotEmpty(t, img.data)
		})
	}
}

func TestParseImageRejectsGarbage(t *testing.T) {
	_, err := parseImage("data:image/png;base64")
	assert.Error(t, err)

	_, err = parseImage("not base64!")
	assert.Error(t, err)
}

func TestImageDataURL(t *testing.T) {
	assert.Equal(t, "AQID", ImageDataURL("", []byte{1, 2, 3}))
	assert.Equal(t, "data:image/heic;base64,AQID", ImageDataURL("image/heic", []byte{1, 2, 3}))
}

func TestOpenAIProviderSendsDeclaredMediaType(t *testing.T) {
	var req map[string]interface{}
	srv := chatServer(t, http.StatusOK, completionBody, &req)

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	_, err := p.ExtractData(context.Background(), "transcribe", ImageDataURL("image/heic", []byte{1, 2, 3}))
	require.NoError(t, err)

	messages := req["messages"].([]interface{})
	parts := messages[len(messages)-1].(map[string]interface{})["content"].([]interface{})
	var url string
	for _, part := range parts {
		p := part.(map[string]interface{})
		if p["type"] == "image_url" {
			url = p["image_url"].(map[string]interface{})["url"].(string)
		}
	}
	assert.Equal(t, "data:image/heic;base64,AQID", url)
}
