package monitoring

import (
	"DrowsyGuard/pkg/ear"
	"time"
)

const (
	AlertMessage = "Alert! Drowsiness detected."

	StatusMonitoring = "Monitoring"
	StatusNoFace     = "No face detected"
	StatusDrowsy     = "Drowsiness detected!"
)

type StartSessionRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=20"`
	Source      string `json:"source" validate:"omitempty,oneof=webcam upload"`
}

type SessionResponse struct {
	ID              string     `json:"id"`
	PhoneNumber     string     `json:"phone_number"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	VideoURL        string     `json:"video_url,omitempty"`
	FramesProcessed int64      `json:"frames_processed"`
	Classifier      ear.Config `json:"classifier"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

type FaceLandmarks struct {
	Shape []ear.Point `json:"shape" validate:"required,min=1"`
}

// LandmarksRequest carries landmarks computed client side. An empty Faces
// list is a frame without a detected face.
type LandmarksRequest struct {
	Faces []FaceLandmarks `json:"faces" validate:"dive"`
}

type AlertResponse struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	PhoneNumber   string    `json:"phone_number"`
	Message       string    `json:"message"`
	Ratio         float64   `json:"ratio"`
	Delivered     bool      `json:"delivered"`
	DeliveryError string    `json:"delivery_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type VideoSummary struct {
	SessionID       string         `json:"session_id"`
	FramesProcessed int            `json:"frames_processed"`
	FramesWithFace  int            `json:"frames_with_face"`
	Alerted         bool           `json:"alerted"`
	Alert           *AlertResponse `json:"alert,omitempty"`
	Status          string         `json:"status"`
}

type StreamError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
