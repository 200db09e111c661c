// Package video turns a video file into a sequence of JPEG frames by running
// ffmpeg as a subprocess and splitting its MJPEG output.
package video

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const maxFrameSize = 16 * 1024 * 1024

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// FrameFunc receives each decoded frame in order. Returning false stops the
// decoder early without error.
type FrameFunc func(frame []byte) (bool, error)

type IDecoder interface {
	Decode(ctx context.Context, path string, fn FrameFunc) error
}

type Config struct {
	Binary string
	// FPS resamples the stream when > 0; zero keeps the native rate.
	FPS     int
	Quality int
}

func ConfigFromEnv() Config {
	binary := os.Getenv("FFMPEG_BIN")
	if binary == "" {
		binary = "ffmpeg"
	}
	fps, _ := strconv.Atoi(os.Getenv("VIDEO_SAMPLE_FPS"))

	return Config{
		Binary:  binary,
		FPS:     fps,
		Quality: 5,
	}
}

type ffmpegDecoder struct {
	cfg Config
	log *logrus.Logger
}

func NewDecoder(cfg Config, log *logrus.Logger) IDecoder {
	return &ffmpegDecoder{cfg: cfg, log: log}
}

func (d *ffmpegDecoder) args(path string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-i", path}
	if d.cfg.FPS > 0 {
		args = append(args, "-vf", fmt.Sprintf("fps=%d", d.cfg.FPS))
	}
	return append(args, "-f", "image2pipe", "-c:v", "mjpeg", "-q:v", strconv.Itoa(d.cfg.Quality), "pipe:1")
}

func (d *ffmpegDecoder) Decode(ctx context.Context, path string, fn FrameFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.cfg.Binary, d.args(path)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	frames, readErr := ReadFrames(stdout, fn)
	if readErr != nil {
		cancel()
	}
	// Drain so ffmpeg is not blocked on a full pipe while we wait for it.
	_, _ = io.Copy(io.Discard, stdout)

	waitErr := cmd.Wait()

	d.log.WithFields(logrus.Fields{
		"path":   path,
		"frames": frames,
	}).Debug("Video decoding finished")

	switch {
	case errors.Is(readErr, errStopped):
		return nil
	case readErr != nil:
		return readErr
	case ctx.Err() != nil:
		return ctx.Err()
	case waitErr != nil:
		return fmt.Errorf("ffmpeg: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}

	return nil
}

var errStopped = errors.New("video: stopped by caller")

// ReadFrames splits a concatenated JPEG stream and hands each frame to fn.
// It returns the number of frames delivered.
func ReadFrames(r io.Reader, fn FrameFunc) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256*1024), maxFrameSize)
	scanner.Split(splitJPEG)

	frames := 0
	for scanner.Scan() {
		frame := append([]byte(nil), scanner.Bytes()...)
		frames++

		more, err := fn(frame)
		if err != nil {
			return frames, err
		}
		if !more {
			return frames, errStopped
		}
	}

	if err := scanner.Err(); err != nil {
		return frames, fmt.Errorf("read frames: %w", err)
	}

	return frames, nil
}

// splitJPEG is a bufio.SplitFunc yielding one SOI..EOI image per token.
// Bytes before the first SOI marker are skipped.
func splitJPEG(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.Index(data, jpegStart)
	if start < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		// Keep a trailing 0xFF in case it begins the next marker.
		if n := len(data); n > 0 && data[n-1] == 0xFF {
			return n - 1, nil, nil
		}
		return len(data), nil, nil
	}

	end := bytes.Index(data[start+len(jpegStart):], jpegEnd)
	if end < 0 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	stop := start + len(jpegStart) + end + len(jpegEnd)
	return stop, data[start:stop], nil
}
