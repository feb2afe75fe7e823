package observe

import (
	"errors"
	"runtime"
)

var ErrBadParallelism = errors.New("observe: unsupported parallelism value")

// Parallelism selects how many workers DisperseAll may use, as a
// fraction of the available cores.
type Parallelism int

const (
	ParallelismNone Parallelism = iota
	ParallelismQuarter
	ParallelismHalf
	ParallelismAll
)

// ParseParallelism maps the recognized selector strings to a
// Parallelism. Anything else is ErrBadParallelism.
func ParseParallelism(s string) (Parallelism, error) {
	switch s {
	case "none":
		return ParallelismNone, nil
	case "quarter":
		return ParallelismQuarter, nil
	case "half":
		return ParallelismHalf, nil
	case "all":
		return ParallelismAll, nil
	}
	return ParallelismNone, ErrBadParallelism
}

// String returns the selector string for p.
func (p Parallelism) String() string {
	switch p {
	case ParallelismQuarter:
		return "quarter"
	case ParallelismHalf:
		return "half"
	case ParallelismAll:
		return "all"
	default:
		return "none"
	}
}

// Workers resolves p to a worker count on this machine. Fractions round
// down, with a minimum of 1.
func (p Parallelism) Workers() int {
	n := runtime.NumCPU()
	var w int
	switch p {
	case ParallelismQuarter:
		w = n / 4
	case ParallelismHalf:
		w = n / 2
	case ParallelismAll:
		w = n
	default:
		return 1
	}
	if w < 1 {
		w = 1
	}
	return w
}
