package ai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// imagePayload is the image argument of ExtractData: plain base64, or a data URL
// carrying the media type declared by the uploader.
type imagePayload struct {
	mediaType string
	base64    string
	data      []byte
}

func parseImage(image string) (imagePayload, error) {
	declared := ""
	b64 := image
	if rest, ok := strings.CutPrefix(image, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found {
			return imagePayload{}, fmt.Errorf("malformed image data URL")
		}
		declared = strings.ToLower(strings.TrimSuffix(meta, ";base64"))
		b64 = payload
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return imagePayload{}, fmt.Errorf("bad base64 image: %w", err)
	}
	return imagePayload{mediaType: imageMediaType(data, declared), base64: b64, data: data}, nil
}

// imageMediaType prefers the sniffed type, then the declared one (the sniffer
// does not know heic or avif), then image/jpeg
func imageMediaType(data []byte, declared string) string {
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return "image/jpeg"
}

func (p imagePayload) dataURL() string {
	return "data:" + p.mediaType + ";base64," + p.base64
}

// ImageDataURL encodes image bytes with their declared media type for ExtractData
func ImageDataURL(mediaType string, data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	if mediaType == "" {
		return encoded
	}
	return "data:" + mediaType + ";base64," + encoded
}
