package layers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/absa_attention/pkg/tensor"
)

// WeightedAdd projects the feature axis of a (batch, steps, features) input to
// OutputDim with a single kernel. It has no bias and no activation.
type WeightedAdd struct {
	OutputDim int
	Kernel    *Weight

	opts options
	init Initializer
}

var _ Layer = (*WeightedAdd)(nil)

// NewWeightedAdd creates an unbuilt WeightedAdd layer
func NewWeightedAdd(outputDim int, opts ...Option) (*WeightedAdd, error) {
	if outputDim <= 0 {
		return nil, fmt.Errorf("output dimension must be positive, got %d", outputDim)
	}

	o := newOptions(options{name: "weighted_add", kernelInitializer: "uniform"}, opts)
	init, err := GetInitializer(o.kernelInitializer)
	if err != nil {
		return nil, err
	}

	return &WeightedAdd{OutputDim: outputDim, opts: o, init: init}, nil
}

func (l *WeightedAdd) Name() string { return l.opts.name }

func (l *WeightedAdd) Built() bool { return l.Kernel != nil }

// Build creates the (features, OutputDim) kernel from a rank-3 input shape
func (l *WeightedAdd) Build(shapes ...tensor.Shape) error {
	if err := checkShapeCount(l.Name(), shapes, 1); err != nil {
		return err
	}
	in := shapes[0]
	if err := checkShape(in, 3); err != nil {
		return fmt.Errorf("%s: %w", l.Name(), err)
	}

	if l.Built() {
		if l.Kernel.Shape[0] != in[2] {
			return fmt.Errorf("%s already built for %d features, got input %s: %w",
				l.Name(), l.Kernel.Shape[0], in, tensor.ErrShapeMismatch)
		}
		return nil
	}

	l.Kernel = newWeight(l.Name()+"/kernel", tensor.Shape{in[2], l.OutputDim}, l.init, l.opts.rng)
	return nil
}

func (l *WeightedAdd) ComputeOutputShape(shapes ...tensor.Shape) (tensor.Shape, error) {
	if err := checkShapeCount(l.Name(), shapes, 1); err != nil {
		return nil, err
	}
	in := shapes[0]
	if err := checkShape(in, 3); err != nil {
		return nil, err
	}
	return tensor.Shape{in[0], in[1], l.OutputDim}, nil
}

func (l *WeightedAdd) Weights() []*Weight {
	if !l.Built() {
		return nil
	}
	return []*Weight{l.Kernel}
}

// Call computes x . kernel, building the layer on first use
func (l *WeightedAdd) Call(x *tensor.Tensor3) (*tensor.Tensor3, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: nil input", l.Name())
	}
	if err := l.Build(x.Shape()); err != nil {
		return nil, err
	}

	l.opts.logger.Debug("weighted add",
		zap.Stringer("input", x.Shape()),
		zap.Stringer("kernel", l.Kernel.Shape))

	out, err := tensor.Dot(x, l.Kernel.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Name(), err)
	}
	return out, nil
}
