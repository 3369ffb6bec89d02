package camera

import (
	"fmt"
	"math"
	"strconv"

	"github.com/df07/go-global-illumination/pkg/core"
)

// Tokens yields whitespace-separated scene file tokens
type Tokens interface {
	Next() (string, bool)
}

// Parse reads a camera block following a PerspectiveCamera or
// OrthographicCamera token:
//
//	PerspectiveCamera {
//	    camera_position 0 0 5
//	    point_of_interest 0 0 0
//	    up 0 1 0
//	    angle 30
//	}
//
// angle is in degrees; OrthographicCamera takes size instead.
func Parse(kind string, tokens Tokens) (Camera, error) {
	if kind != "PerspectiveCamera" && kind != "OrthographicCamera" {
		return nil, fmt.Errorf("unknown camera type %q", kind)
	}
	if tok, ok := tokens.Next(); !ok || tok != "{" {
		return nil, fmt.Errorf("%s: expected '{', got %q", kind, tok)
	}

	frame := Frame{
		Position: core.NewVec3(0, 0, 1),
		Up:       core.NewVec3(0, 1, 0),
	}
	angle := 45.0
	size := 100.0

	for {
		key, ok := tokens.Next()
		if !ok {
			return nil, fmt.Errorf("%s: unterminated block", kind)
		}
		var err error
		switch key {
		case "}":
			if kind == "PerspectiveCamera" {
				return NewPerspective(frame.Position, frame.PointOfInterest, frame.Up, angle*math.Pi/180), nil
			}
			return NewOrthographic(frame.Position, frame.PointOfInterest, frame.Up, size), nil
		case "camera_position":
			frame.Position, err = readVec3(tokens)
		case "point_of_interest":
			frame.PointOfInterest, err = readVec3(tokens)
		case "up":
			frame.Up, err = readVec3(tokens)
		case "angle":
			angle, err = readFloat(tokens)
		case "size":
			size, err = readFloat(tokens)
		default:
			err = fmt.Errorf("unknown key %q", key)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
}

func readFloat(tokens Tokens) (float64, error) {
	tok, ok := tokens.Next()
	if !ok {
		return 0, fmt.Errorf("unexpected end of input")
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", tok, err)
	}
	return v, nil
}

func readVec3(tokens Tokens) (core.Vec3, error) {
	var v [3]float64
	for i := range v {
		f, err := readFloat(tokens)
		if err != nil {
			return core.Vec3{}, err
		}
		v[i] = f
	}
	return core.NewVec3(v[0], v[1], v[2]), nil
}
