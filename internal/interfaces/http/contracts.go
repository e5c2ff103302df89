package http

import (
	"time"

	"github.com/Sirimanoj/finguru/internal/application"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckInResponse is the result of a daily check-in. Applied is false
// when the user already checked in today.
type CheckInResponse struct {
	Applied bool                         `json:"applied"`
	State   application.GamificationView `json:"state"`
}

// ChatRequest is one mentor message.
type ChatRequest struct {
	AvatarID string `json:"avatar_id"`
	Message  string `json:"message"`
}

// ChatResponse carries the mentor's reply and the stored message ID.
type ChatResponse struct {
	ID        string    `json:"id"`
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}

// AvatarUploadRequest carries a base64-encoded profile image.
type AvatarUploadRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

// VoiceRequest carries base64-encoded audio for transcription.
type VoiceRequest struct {
	Audio    string `json:"audio"`
	MimeType string `json:"mime_type"`
}

// VoiceResponse is the transcribed text.
type VoiceResponse struct {
	Text string `json:"text"`
}
