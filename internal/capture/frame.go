package capture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const maxFrameBytes = 8 << 20

var (
	ErrEmptyImage      = errors.New("empty image payload")
	ErrInvalidEncoding = errors.New("image payload is not valid base64")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrFrameTooLarge   = fmt.Errorf("image exceeds %d bytes", maxFrameBytes)
)

// Frame is a single decoded still image captured from the camera.
type Frame struct {
	Data        []byte
	ContentType string
	CapturedAt  time.Time
}

// ParseDataURL decodes a browser-produced data URL ("data:image/jpeg;base64,...")
// into a Frame. A bare base64 string without the data: prefix is also accepted,
// since some callers strip it before upload.
func ParseDataURL(payload string) (*Frame, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyImage
	}

	encoded := payload
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, ErrInvalidEncoding
		}
		meta := payload[len("data:"):idx]
		if !strings.Contains(meta, "base64") {
			return nil, ErrInvalidEncoding
		}
		encoded = payload[idx+1:]
	}

	if encoded == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Browsers occasionally emit URL-safe alphabets.
		data, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
	}

	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > maxFrameBytes {
		return nil, ErrFrameTooLarge
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return &Frame{
		Data:        data,
		ContentType: contentType,
		CapturedAt:  time.Now(),
	}, nil
}

// Base64 returns the frame payload re-encoded as standard base64, the form
// most vision providers accept.
func (f *Frame) Base64() string {
	return base64.StdEncoding.EncodeToString(f.Data)
}
