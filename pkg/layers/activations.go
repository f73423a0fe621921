package layers

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrUnknownActivation is returned by GetActivation for unregistered names.
var ErrUnknownActivation = errors.New("unknown activation")

// Activation transforms one row of scores. dst and src have equal length and
// may not alias.
type Activation func(dst, src []float64)

var activations = map[string]Activation{
	"linear":       linear,
	"tanh":         elementwise(math.Tanh),
	"sigmoid":      elementwise(sigmoid),
	"hard_sigmoid": elementwise(hardSigmoid),
	"relu":         elementwise(func(v float64) float64 { return math.Max(0, v) }),
	"exponential":  elementwise(math.Exp),
	"softmax":      softmax,
}

// GetActivation resolves an activation by name. The empty name is linear.
func GetActivation(name string) (Activation, error) {
	if name == "" {
		return linear, nil
	}
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return fn, nil
}

func elementwise(fn func(float64) float64) Activation {
	return func(dst, src []float64) {
		for i, v := range src {
			dst[i] = fn(v)
		}
	}
}

func linear(dst, src []float64) {
	copy(dst, src)
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func hardSigmoid(v float64) float64 {
	return math.Max(0, math.Min(1, 0.2*v+0.5))
}

// softmax normalises the row so it sums to one, shifting by the row maximum
// for numerical stability.
func softmax(dst, src []float64) {
	if len(src) == 0 {
		return
	}
	max := floats.Max(src)
	for i, v := range src {
		dst[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(dst), dst)
}
