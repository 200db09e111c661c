package ear

import (
	"errors"
	"fmt"
)

// Index ranges of the iBUG 68-point annotation used by dlib's
// shape_predictor_68_face_landmarks. Ranges are half-open.
const (
	IBUG68Points = 68

	IBUG68RightEyeStart = 36
	IBUG68RightEyeEnd   = 42
	IBUG68LeftEyeStart  = 42
	IBUG68LeftEyeEnd    = 48
)

var ErrShapeSize = errors.New("ear: landmark shape has unexpected point count")

// Convention ties eye index ranges to a landmark model version.
type Convention struct {
	Name     string
	Points   int
	LeftEye  [2]int
	RightEye [2]int
}

var IBUG68 = Convention{
	Name:     "ibug-68",
	Points:   IBUG68Points,
	LeftEye:  [2]int{IBUG68LeftEyeStart, IBUG68LeftEyeEnd},
	RightEye: [2]int{IBUG68RightEyeStart, IBUG68RightEyeEnd},
}

// Eyes slices both eyes out of a full face shape. The returned shapes are
// copies and do not alias shape.
func (c Convention) Eyes(shape []Point) (left, right EyeShape, err error) {
	if len(shape) != c.Points {
		return nil, nil, fmt.Errorf("%w: got %d, want %d (%s)", ErrShapeSize, len(shape), c.Points, c.Name)
	}

	left = append(EyeShape(nil), shape[c.LeftEye[0]:c.LeftEye[1]]...)
	right = append(EyeShape(nil), shape[c.RightEye[0]:c.RightEye[1]]...)

	return left, right, nil
}
