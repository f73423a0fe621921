package layers

import (
	"fmt"

	"github.com/absa_attention/internal/utils"
	"github.com/absa_attention/pkg/tensor"
)

// SelfAttentionScore turns a sequence into per-step attention weights:
//
//	output_activation(activation(X . w + b))
//
// w collapses the feature axis to one score per step and b holds one bias per
// step. With the default tanh and softmax every output row sums to one.
type SelfAttentionScore struct {
	Kernel *Weight
	Bias   *Weight

	opts       options
	activation Activation
	output     Activation
	kernelInit Initializer
	biasInit   Initializer
}

var _ Layer = (*SelfAttentionScore)(nil)

// NewSelfAttentionScore creates an unbuilt SelfAttentionScore layer
func NewSelfAttentionScore(opts ...Option) (*SelfAttentionScore, error) {
	o := newOptions(options{
		name:              "self_attention_score",
		activation:        "tanh",
		outputActivation:  "softmax",
		kernelInitializer: "glorot_uniform",
		biasInitializer:   "zeros",
	}, opts)

	act, err := GetActivation(o.activation)
	if err != nil {
		return nil, err
	}
	out, err := GetActivation(o.outputActivation)
	if err != nil {
		return nil, err
	}
	kInit, err := GetInitializer(o.kernelInitializer)
	if err != nil {
		return nil, err
	}
	bInit, err := GetInitializer(o.biasInitializer)
	if err != nil {
		return nil, err
	}

	return &SelfAttentionScore{opts: o, activation: act, output: out, kernelInit: kInit, biasInit: bInit}, nil
}

func (l *SelfAttentionScore) Name() string { return l.opts.name }

func (l *SelfAttentionScore) Built() bool { return l.Kernel != nil }

func (l *SelfAttentionScore) Build(shapes ...tensor.Shape) error {
	if err := checkShapeCount(l.Name(), shapes, 1); err != nil {
		return err
	}
	in := shapes[0]
	if err := checkShape(in, 3); err != nil {
		return fmt.Errorf("%s: %w", l.Name(), err)
	}

	if l.Built() {
		if l.Kernel.Shape[0] != in[2] || l.Bias.Shape[0] != in[1] {
			return fmt.Errorf("%s already built for kernel %s and bias %s, got input %s: %w",
				l.Name(), l.Kernel.Shape, l.Bias.Shape, in, tensor.ErrShapeMismatch)
		}
		return nil
	}

	l.Kernel = newWeight(l.Name()+"/kernel", tensor.Shape{in[2], 1}, l.kernelInit, l.opts.rng)
	l.Bias = newWeight(l.Name()+"/bias", tensor.Shape{in[1]}, l.biasInit, l.opts.rng)
	return nil
}

func (l *SelfAttentionScore) ComputeOutputShape(shapes ...tensor.Shape) (tensor.Shape, error) {
	if err := checkShapeCount(l.Name(), shapes, 1); err != nil {
		return nil, err
	}
	if err := checkShape(shapes[0], 3); err != nil {
		return nil, err
	}
	return tensor.Shape{shapes[0][0], shapes[0][1]}, nil
}

func (l *SelfAttentionScore) Weights() []*Weight {
	if !l.Built() {
		return nil
	}
	return []*Weight{l.Kernel, l.Bias}
}

// Call returns the (batch, steps) attention weights of x
func (l *SelfAttentionScore) Call(x *tensor.Tensor3) (*tensor.Matrix, error) {
	return l.CallMasked(x, nil)
}

// CallMasked is Call with padded steps excluded. Positions where mask is zero
// are pushed to utils.MaskedValue before the output activation. A nil mask
// masks nothing.
func (l *SelfAttentionScore) CallMasked(x *tensor.Tensor3, mask *utils.AttentionMask) (*tensor.Matrix, error) {
	scores, err := l.scores(x)
	if err != nil {
		return nil, err
	}
	if mask != nil {
		if scores, err = mask.ApplyMask(scores); err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name(), err)
		}
	}
	return tensor.ApplyRows(scores, l.output)
}

func (l *SelfAttentionScore) scores(x *tensor.Tensor3) (*tensor.Matrix, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: nil input", l.Name())
	}
	if err := l.Build(x.Shape()); err != nil {
		return nil, err
	}

	projected, err := tensor.Dot(x, l.Kernel.Value)
	if err != nil {
		return nil, fmt.Errorf("%s projection: %w", l.Name(), err)
	}
	scores, err := tensor.Squeeze(projected)
	if err != nil {
		return nil, err
	}
	scores, err = tensor.BiasAdd(scores, l.Bias.Vector())
	if err != nil {
		return nil, fmt.Errorf("%s bias: %w", l.Name(), err)
	}
	return tensor.ApplyRows(scores, l.activation)
}
