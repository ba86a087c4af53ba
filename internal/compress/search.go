// Package compress finds an encoder quality that lands an image inside a
// byte-size window.
//
// Functions:
//   - Search: binary search over the quality parameter of an Encoder.
//     Inputs: image, [minBytes, maxBytes] window, encoder.
//     Output: Result with the chosen encoding and an Outcome.
//   - Fit: stretches an image onto a white canvas of a preset size.
//
// Missing the window is an Outcome, not an error. Errors are reserved for bad
// windows and encoder failures.
package compress

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/dustin/go-humanize"
)

const (
	// MaxQuality and MinQuality bound the search. Some encoders degenerate at 0.
	MaxQuality = 1.0
	MinQuality = 0.1
)

// Iterations is the number of bisection steps. Encoder quality is coarse
// enough that more steps rarely change the result.
var Iterations = 8

var ErrInvalidWindow = errors.New("invalid size window")

// Encoder encodes an image at a quality in [0, 1].
type Encoder interface {
	Encode(img image.Image, quality float64) ([]byte, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(img image.Image, quality float64) ([]byte, error)

func (f EncoderFunc) Encode(img image.Image, quality float64) ([]byte, error) {
	return f(img, quality)
}

type Outcome int

const (
	// OutcomeOK means the encoding lies inside the window.
	OutcomeOK Outcome = iota
	// OutcomeBelowMinimum means even the best quality is smaller than the window.
	OutcomeBelowMinimum
	// OutcomeAboveMaximum means even the lowest quality is larger than the window.
	OutcomeAboveMaximum
	// OutcomeInfeasible means no tried quality landed inside the window.
	OutcomeInfeasible
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBelowMinimum:
		return "below-minimum"
	case OutcomeAboveMaximum:
		return "above-maximum"
	case OutcomeInfeasible:
		return "infeasible"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Result struct {
	Outcome  Outcome
	Data     []byte
	Quality  float64
	MinBytes int
	MaxBytes int
}

// Size is the length of the chosen encoding.
func (r Result) Size() int { return len(r.Data) }

// Offerable reports whether the result should be handed to the user. Images
// below the minimum are still offered with a warning.
func (r Result) Offerable() bool {
	return r.Outcome == OutcomeOK || r.Outcome == OutcomeBelowMinimum
}

// Message describes the result for the user.
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeOK:
		return fmt.Sprintf("Successfully compressed to %s.", formatBytes(r.Size()))
	case OutcomeBelowMinimum:
		return fmt.Sprintf("Warning: Image is smaller (%s) than the minimum required size (%s) even at the highest quality.",
			formatBytes(r.Size()), formatBytes(r.MinBytes))
	case OutcomeAboveMaximum:
		return fmt.Sprintf("Error: Image is larger (%s) than the maximum required size (%s) even at the lowest quality.",
			formatBytes(r.Size()), formatBytes(r.MaxBytes))
	}
	return "Could not find a quality setting to meet the file size requirements."
}

func formatBytes(n int) string {
	return humanize.IBytes(uint64(n))
}

// Search looks for the highest quality whose encoding of img fits in
// [minBytes, maxBytes]. The search is deterministic for a deterministic
// encoder.
func Search(ctx context.Context, img image.Image, minBytes, maxBytes int, enc Encoder) (Result, error) {
	if minBytes < 0 || maxBytes < minBytes {
		return Result{}, fmt.Errorf("%w: [%d, %d]", ErrInvalidWindow, minBytes, maxBytes)
	}
	res := Result{MinBytes: minBytes, MaxBytes: maxBytes}

	best, err := enc.Encode(img, MaxQuality)
	if err != nil {
		return Result{}, fmt.Errorf("encode at quality %.2f: %w", MaxQuality, err)
	}
	if len(best) < minBytes {
		res.Outcome, res.Data, res.Quality = OutcomeBelowMinimum, best, MaxQuality
		return res, nil
	}

	worst, err := enc.Encode(img, MinQuality)
	if err != nil {
		return Result{}, fmt.Errorf("encode at quality %.2f: %w", MinQuality, err)
	}
	if len(worst) > maxBytes {
		res.Outcome, res.Data, res.Quality = OutcomeAboveMaximum, worst, MinQuality
		return res, nil
	}

	var (
		candidate  []byte
		candidateQ float64
		found      bool
	)
	if len(worst) >= minBytes {
		candidate, candidateQ, found = worst, MinQuality, true
	}

	low, high := MinQuality, MaxQuality
	for i := 0; i < Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		mid := (low + high) / 2
		data, err := enc.Encode(img, mid)
		if err != nil {
			return Result{}, fmt.Errorf("encode at quality %.3f: %w", mid, err)
		}
		if len(data) > maxBytes {
			high = mid
			continue
		}
		if len(data) >= minBytes {
			candidate, candidateQ, found = data, mid, true
		}
		low = mid
	}

	if !found {
		res.Outcome = OutcomeInfeasible
		return res, nil
	}
	res.Outcome, res.Data, res.Quality = OutcomeOK, candidate, candidateQ
	return res, nil
}
