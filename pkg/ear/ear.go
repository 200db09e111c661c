// Package ear implements the eye-aspect-ratio drowsiness classifier.
//
// A frame is reduced to one number, the average aspect ratio of both eyes,
// and a consecutive-frame counter debounces that number into a single alert.
// Everything here is pure: callers own the State and pass it back in on the
// next frame, so any number of streams can be classified side by side.
package ear

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultThreshold  = 0.25
	DefaultFrameLimit = 20

	// EyePoints is the number of landmarks that describe one eye.
	EyePoints = 6
)

var (
	ErrInvalidThreshold  = errors.New("ear: threshold must be a positive finite number")
	ErrInvalidFrameLimit = errors.New("ear: frame limit must be at least 1")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EyeShape holds the landmarks of one eye ordered p1..p6: outer corner, two
// upper lid points, inner corner, two lower lid points.
type EyeShape []Point

type Config struct {
	Threshold  float64 `json:"threshold"`
	FrameLimit int     `json:"frame_limit"`
}

func DefaultConfig() Config {
	return Config{
		Threshold:  DefaultThreshold,
		FrameLimit: DefaultFrameLimit,
	}
}

func (c Config) Validate() error {
	if !(c.Threshold > 0 && c.Threshold < 1) {
		return ErrInvalidThreshold
	}
	if c.FrameLimit < 1 {
		return ErrInvalidFrameLimit
	}
	return nil
}

// State is the per-stream classifier state. The zero value is the initial state.
type State struct {
	Counter int `json:"counter"`
}

type Result struct {
	Alert bool    `json:"alert"`
	Ratio float64 `json:"ratio"`
	State State   `json:"state"`
}

// AspectRatio returns (|p2-p6| + |p3-p5|) / (2 |p1-p4|).
// Malformed input and zero eye width yield 0, which reads as a closed eye.
func AspectRatio(eye EyeShape) float64 {
	if len(eye) != EyePoints {
		return 0
	}
	for _, p := range eye {
		if !finite(p.X) || !finite(p.Y) {
			return 0
		}
	}

	a := distance(eye[1], eye[5])
	b := distance(eye[2], eye[4])
	c := distance(eye[0], eye[3])
	if c == 0 {
		return 0
	}

	// Huge finite coordinates can still overflow the distances.
	ratio := (a + b) / (2.0 * c)
	if !finite(ratio) {
		return 0
	}

	return ratio
}

// ProcessFrame advances state by one observed frame. When the counter reaches
// cfg.FrameLimit the result carries Alert and the returned state is reset.
func ProcessFrame(left, right EyeShape, state State, cfg Config) Result {
	ratio := AspectRatio(left)/2.0 + AspectRatio(right)/2.0

	next := state
	if next.Counter < 0 {
		next.Counter = 0
	}

	if ratio < cfg.Threshold {
		next.Counter++
	} else {
		next.Counter = 0
	}

	if next.Counter >= cfg.FrameLimit {
		return Result{Alert: true, Ratio: ratio, State: State{}}
	}

	return Result{Ratio: ratio, State: next}
}

// Classifier keeps the state of a single stream. It is not safe for
// concurrent use.
type Classifier struct {
	cfg   Config
	state State
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

func (c *Classifier) Observe(left, right EyeShape) Result {
	res := ProcessFrame(left, right, c.state, c.cfg)
	c.state = res.State
	return res
}

func (c *Classifier) State() State {
	return c.state
}

func (c *Classifier) Config() Config {
	return c.cfg
}

func (c *Classifier) Reset() {
	c.state = State{}
}

func distance(p, q Point) float64 {
	return floats.Distance([]float64{p.X, p.Y}, []float64{q.X, q.Y}, 2)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
