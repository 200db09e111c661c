package s3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	now := time.Unix(0, 1700000000000000000)

	assert.Equal(t, "videos/01J/1700000000000000000-my_drive.mp4", objectKey("videos/01J", "my drive.mp4", now))
	assert.Equal(t, "videos/1700000000000000000-clip.mov", objectKey("videos", "../../clip.mov", now))
}

func TestExtractKeyFromS3Url(t *testing.T) {
	assert.Equal(t, "videos/a%20b.mp4", extractKeyFromS3Url("https://bucket.s3.amazonaws.com/videos/a%20b.mp4"))
	assert.Equal(t, "alarm.wav", extractKeyFromS3Url("alarm.wav"))
}
