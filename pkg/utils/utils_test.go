package utils

import (
	"mime/multipart"
	"os"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	id, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestValidateVideoFile(t *testing.T) {
	u := New()

	tests := []struct {
		name string
		file *multipart.FileHeader
		want error
	}{
		{name: "nil", file: nil, want: ErrNoFile},
		{name: "mp4", file: &multipart.FileHeader{Filename: "drive.mp4", Size: 1024}},
		{name: "upper case mov", file: &multipart.FileHeader{Filename: "DRIVE.MOV", Size: 1024}},
		{name: "avi", file: &multipart.FileHeader{Filename: "drive.avi", Size: 1024}},
		{name: "mkv", file: &multipart.FileHeader{Filename: "drive.mkv", Size: 1024}, want: ErrUnsupportedFormat},
		{name: "too large", file: &multipart.FileHeader{Filename: "drive.mp4", Size: 201 * 1024 * 1024}, want: ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := u.ValidateVideoFile(tt.file)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateFrame(t *testing.T) {
	u := New()

	assert.NoError(t, u.ValidateFrame([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}))
	assert.ErrorIs(t, u.ValidateFrame([]byte("PNG?")), ErrUnsupportedPicture)
	assert.ErrorIs(t, u.ValidateFrame(nil), ErrUnsupportedPicture)
}

func TestSaveTempFile(t *testing.T) {
	header := multipartHeader(t, "clip.mp4", []byte("not really a video"))

	path, cleanup, err := New().SaveTempFile(header)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not really a video", string(data))
	assert.Contains(t, path, ".mp4")

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
