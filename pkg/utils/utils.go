package utils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile             = errors.New("no file uploaded")
	ErrFileTooLarge       = errors.New("file size exceeds limit")
	ErrUnsupportedFormat  = errors.New("unsupported video format")
	ErrUnsupportedPicture = errors.New("frame is not a JPEG image")
)

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".avi": {},
	".mov": {},
}

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateVideoFile(file *multipart.FileHeader) error
	SaveTempFile(file *multipart.FileHeader) (string, func(), error)
	ValidateFrame(frame []byte) error
}

type utils struct {
	maxVideoSize int64
}

func New() IUtils {
	return &utils{
		maxVideoSize: 200 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateVideoFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxVideoSize {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := videoExtensions[ext]; !ok {
		return ErrUnsupportedFormat
	}

	return nil
}

// SaveTempFile copies an upload to a temporary file that keeps the upload's
// extension, since the decoder sniffs containers by name. The returned func
// removes the file.
func (u *utils) SaveTempFile(file *multipart.FileHeader) (string, func(), error) {
	src, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.CreateTemp("", "drowsyguard-*"+ext)
	if err != nil {
		return "", nil, err
	}

	cleanup := func() {
		_ = os.Remove(dst.Name())
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		cleanup()
		return "", nil, err
	}

	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}

	return dst.Name(), cleanup, nil
}

func (u *utils) ValidateFrame(frame []byte) error {
	if len(frame) < 4 || !bytes.HasPrefix(frame, []byte{0xFF, 0xD8}) {
		return ErrUnsupportedPicture
	}
	return nil
}
