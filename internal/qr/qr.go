// Package qr turns validated payloads into scannable QR-code images.
// Generation is pure: identical payload and parameters always produce
// identical bytes, and nothing is written outside the returned Artifact.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// MaxPayloadBytes is the byte-mode capacity of a version-40 QR code at
// medium error correction. Larger payloads are rejected before encoding so a
// corrupt image can never be produced.
const MaxPayloadBytes = 2331

const contentTypePNG = "image/png"

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 512

// Artifact is a generated image owned transiently by the delivery layer.
type Artifact struct {
	Bytes       []byte
	ContentType string
	SessionID   int64
}

// PayloadTooLargeError reports a payload exceeding the encoding capacity.
type PayloadTooLargeError struct {
	Size  int
	Limit int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("qr: payload of %d bytes exceeds capacity of %d", e.Size, e.Limit)
}

// Code identifies the error class for handler summary logs.
func (e *PayloadTooLargeError) Code() string { return "PAYLOAD_TOO_LARGE" }

// Generate encodes payload into a PNG QR code for the given session.
func Generate(payload string, sessionID int64) (*Artifact, error) {
	return GenerateSize(payload, sessionID, DefaultSize)
}

// GenerateSize encodes payload into a PNG QR code with an explicit edge size.
func GenerateSize(payload string, sessionID int64, size int) (*Artifact, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr: empty payload")
	}
	if len(payload) > MaxPayloadBytes {
		return nil, &PayloadTooLargeError{Size: len(payload), Limit: MaxPayloadBytes}
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return &Artifact{
		Bytes:       png,
		ContentType: contentTypePNG,
		SessionID:   sessionID,
	}, nil
}
