package layers

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/absa_attention/pkg/tensor"
)

// ErrUnknownInitializer is returned by GetInitializer for unregistered names.
var ErrUnknownInitializer = errors.New("unknown initializer")

// Initializer produces the row-major values of a weight with the given shape.
type Initializer func(shape tensor.Shape, rng *rand.Rand) []float64

var initializers = map[string]Initializer{
	"zeros": constant(0),
	"ones":  constant(1),
	"uniform": func(shape tensor.Shape, rng *rand.Rand) []float64 {
		return uniform(shape, rng, 0.05)
	},
	"glorot_uniform": func(shape tensor.Shape, rng *rand.Rand) []float64 {
		fanIn, fanOut := fans(shape)
		return uniform(shape, rng, math.Sqrt(6/float64(fanIn+fanOut)))
	},
}

// GetInitializer resolves an initializer by name.
func GetInitializer(name string) (Initializer, error) {
	fn, ok := initializers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInitializer, name)
	}
	return fn, nil
}

func size(shape tensor.Shape) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// fans follows the dense-kernel convention: rows feed in, columns feed out.
// A vector counts its length for both.
func fans(shape tensor.Shape) (int, int) {
	switch len(shape) {
	case 0:
		return 1, 1
	case 1:
		return shape[0], shape[0]
	default:
		return shape[0], shape[1]
	}
}

func constant(v float64) Initializer {
	return func(shape tensor.Shape, _ *rand.Rand) []float64 {
		data := make([]float64, size(shape))
		for i := range data {
			data[i] = v
		}
		return data
	}
}

func uniform(shape tensor.Shape, rng *rand.Rand, limit float64) []float64 {
	data := make([]float64, size(shape))
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return data
}
