package monitoring

import (
	"DrowsyGuard/pkg/response"
	"net/http"
)

var (
	ErrInternalServerError   = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest            = response.NewError(http.StatusBadRequest, "bad request")
	ErrSessionNotFound       = response.NewError(http.StatusNotFound, "session not found")
	ErrSessionEnded          = response.NewError(http.StatusConflict, "session already ended")
	ErrInvalidPhoneNumber    = response.NewError(http.StatusBadRequest, "invalid phone number")
	ErrInvalidSource         = response.NewError(http.StatusBadRequest, "invalid video source")
	ErrInvalidShape          = response.NewError(http.StatusBadRequest, "invalid landmark shape")
	ErrInvalidFrame          = response.NewError(http.StatusBadRequest, "frame is not a JPEG image")
	ErrInvalidVideoFile      = response.NewError(http.StatusBadRequest, "invalid video file")
	ErrVideoTooLarge         = response.NewError(http.StatusRequestEntityTooLarge, "video file too large")
	ErrVideoDecodeFailed     = response.NewError(http.StatusUnprocessableEntity, "failed to decode video")
	ErrLandmarkUnavailable   = response.NewError(http.StatusServiceUnavailable, "landmark service unavailable")
	ErrStateStoreFailure     = response.NewError(http.StatusServiceUnavailable, "classifier state store unavailable")
	ErrSessionSourceMismatch = response.NewError(http.StatusConflict, "operation does not match session source")
)
