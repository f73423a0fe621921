// Package layers implements the forward pass of the projection and attention
// scoring layers used by the aspect sentiment models.
//
// Layers follow a build-then-call lifecycle. Weights are created by Build from
// the input shapes, either explicitly or on the first Call, and are read by
// every later Call.
package layers

import (
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/absa_attention/pkg/tensor"
)

// Layer is the lifecycle shared by every layer in this package.
type Layer interface {
	Name() string
	Build(shapes ...tensor.Shape) error
	Built() bool
	ComputeOutputShape(shapes ...tensor.Shape) (tensor.Shape, error)
	Weights() []*Weight
}

// Weight is a named parameter tensor. Vectors are stored as 1 x n matrices.
type Weight struct {
	Name      string
	Shape     tensor.Shape
	Value     *tensor.Matrix
	Trainable bool
}

// Vector returns the weight as a flat slice sharing its storage.
func (w *Weight) Vector() []float64 {
	return w.Value.Dense().RawMatrix().Data
}

func newWeight(name string, shape tensor.Shape, init Initializer, rng *rand.Rand) *Weight {
	rows, cols := 1, shape[0]
	if len(shape) == 2 {
		rows, cols = shape[0], shape[1]
	}
	return &Weight{
		Name:      name,
		Shape:     shape,
		Value:     tensor.FromDense(mat.NewDense(rows, cols, init(shape, rng))),
		Trainable: true,
	}
}

type options struct {
	name              string
	logger            *zap.Logger
	rng               *rand.Rand
	activation        string
	outputActivation  string
	kernelInitializer string
	biasInitializer   string
}

// Option configures a layer at construction.
type Option func(*options)

// WithName overrides the layer name used in logs and weight names.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. Layers log nothing by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSeed makes weight initialisation deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithActivation sets the score activation.
func WithActivation(name string) Option {
	return func(o *options) { o.activation = name }
}

// WithOutputActivation sets the activation applied after the score
// activation. Only SelfAttentionScore uses it.
func WithOutputActivation(name string) Option {
	return func(o *options) { o.outputActivation = name }
}

// WithKernelInitializer sets the kernel initializer.
func WithKernelInitializer(name string) Option {
	return func(o *options) { o.kernelInitializer = name }
}

// WithBiasInitializer sets the bias initializer.
func WithBiasInitializer(name string) Option {
	return func(o *options) { o.biasInitializer = name }
}

func newOptions(defaults options, opts []Option) options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	o.logger = o.logger.With(zap.String("layer", o.name))
	return o
}

func checkShapeCount(layer string, shapes []tensor.Shape, want int) error {
	if len(shapes) != want {
		return fmt.Errorf("%s expects %d input shape(s), got %d", layer, want, len(shapes))
	}
	return nil
}

// checkShape validates the rank and dimensions of one input shape.
func checkShape(s tensor.Shape, rank int) error {
	if err := s.CheckRank(rank); err != nil {
		return err
	}
	return s.CheckDims()
}
