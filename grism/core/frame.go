package core

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

var (
	ErrEmptyWindow        = errors.New("core: window must have positive size")
	ErrNegativeWindow     = errors.New("core: window start must not be negative")
	ErrWindowOutOfBounds  = errors.New("core: window extends beyond frame bounds")
	ErrFrameShapeMismatch = errors.New("core: frame dimensions differ")
)

// Frame is a full-detector 2D float64 buffer stored row-major.
type Frame struct {
	Width  int
	Height int
	Data   []float64
}

// NewFrame allocates a zeroed frame. Non-positive dimensions yield an
// empty frame.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{Width: width, Height: height, Data: make([]float64, width*height)}
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Data: make([]float64, len(f.Data))}
	copy(out.Data, f.Data)
	return out
}

// Contains reports whether (x, y) is a valid pixel coordinate.
func (f *Frame) Contains(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// At returns the value at (x, y). Coordinates must be in bounds.
func (f *Frame) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores v at (x, y). Coordinates must be in bounds.
func (f *Frame) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// AddAt accumulates v into (x, y). Coordinates must be in bounds.
func (f *Frame) AddAt(x, y int, v float64) {
	f.Data[y*f.Width+x] += v
}

// Zero resets every pixel to 0, keeping the backing buffer.
func (f *Frame) Zero() {
	for i := range f.Data {
		f.Data[i] = 0
	}
}

// Sum returns the total flux over all pixels.
func (f *Frame) Sum() float64 {
	total := 0.0
	for _, v := range f.Data {
		total += v
	}
	return total
}

// Add accumulates src into f pixelwise: f[i] += src[i].
// Panics if dimensions differ.
func (f *Frame) Add(src *Frame) {
	if f.Width != src.Width || f.Height != src.Height {
		panic(ErrFrameShapeMismatch)
	}
	if len(f.Data) == 0 {
		return
	}
	vecmath.AddBlockInPlace(f.Data, src.Data)
}

// Sub subtracts src from f pixelwise: f[i] -= src[i].
// Panics if dimensions differ.
func (f *Frame) Sub(src *Frame) {
	if f.Width != src.Width || f.Height != src.Height {
		panic(ErrFrameShapeMismatch)
	}
	for i := range f.Data {
		f.Data[i] -= src.Data[i]
	}
}

// Scale multiplies every pixel by s.
func (f *Frame) Scale(s float64) {
	if len(f.Data) == 0 {
		return
	}
	vecmath.ScaleBlock(f.Data, f.Data, s)
}

// Window is a rectangular cutout region of a frame.
type Window struct {
	XStart int
	YStart int
	XSize  int
	YSize  int
}

// Validate checks that the window is non-empty and has non-negative start
// coordinates.
func (w Window) Validate() error {
	if w.XSize <= 0 || w.YSize <= 0 {
		return ErrEmptyWindow
	}
	if w.XStart < 0 || w.YStart < 0 {
		return ErrNegativeWindow
	}
	return nil
}

// Cutout copies the windowed region of f into a new frame.
// A window that exactly touches the frame edge is valid; one pixel past
// returns ErrWindowOutOfBounds.
func (f *Frame) Cutout(w Window) (*Frame, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.XStart+w.XSize > f.Width || w.YStart+w.YSize > f.Height {
		return nil, ErrWindowOutOfBounds
	}
	out := NewFrame(w.XSize, w.YSize)
	for row := 0; row < w.YSize; row++ {
		src := (w.YStart+row)*f.Width + w.XStart
		copy(out.Data[row*w.XSize:(row+1)*w.XSize], f.Data[src:src+w.XSize])
	}
	return out, nil
}
