package layers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/absa_attention/pkg/tensor"
)

// AttentionScore scores each step of a sequence H against a context vector T:
//
//	activation(batch_dot(H . W, T) + b)
//
// H has shape (batch, steps, features) and T has shape (batch, context).
// W maps features to context and b holds one bias per step.
type AttentionScore struct {
	Kernel *Weight
	Bias   *Weight

	opts       options
	activation Activation
	kernelInit Initializer
	biasInit   Initializer
}

var _ Layer = (*AttentionScore)(nil)

// NewAttentionScore creates an unbuilt AttentionScore layer. Defaults are tanh,
// glorot_uniform kernel and zero bias.
func NewAttentionScore(opts ...Option) (*AttentionScore, error) {
	o := newOptions(options{
		name:              "attention_score",
		activation:        "tanh",
		kernelInitializer: "glorot_uniform",
		biasInitializer:   "zeros",
	}, opts)

	act, err := GetActivation(o.activation)
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

	return &AttentionScore{opts: o, activation: act, kernelInit: kInit, biasInit: bInit}, nil
}

func (l *AttentionScore) Name() string { return l.opts.name }

func (l *AttentionScore) Built() bool { return l.Kernel != nil }

func (l *AttentionScore) checkShapes(shapes []tensor.Shape) error {
	if err := checkShapeCount(l.Name(), shapes, 2); err != nil {
		return err
	}
	if err := checkShape(shapes[0], 3); err != nil {
		return fmt.Errorf("%s sequence input: %w", l.Name(), err)
	}
	if err := checkShape(shapes[1], 2); err != nil {
		return fmt.Errorf("%s context input: %w", l.Name(), err)
	}
	return nil
}

// Build creates the (features, context) kernel and the per-step bias from the
// shapes of H and T.
func (l *AttentionScore) Build(shapes ...tensor.Shape) error {
	if err := l.checkShapes(shapes); err != nil {
		return err
	}
	h, t := shapes[0], shapes[1]

	if l.Built() {
		if l.Kernel.Shape[0] != h[2] || l.Kernel.Shape[1] != t[1] || l.Bias.Shape[0] != h[1] {
			return fmt.Errorf("%s already built for kernel %s and bias %s, got inputs %s, %s: %w",
				l.Name(), l.Kernel.Shape, l.Bias.Shape, h, t, tensor.ErrShapeMismatch)
		}
		return nil
	}

	l.opts.logger.Info("AttentionScore input shape",
		zap.Stringer("sequence", h),
		zap.Stringer("context", t))

	l.Kernel = newWeight(l.Name()+"/kernel", tensor.Shape{h[2], t[1]}, l.kernelInit, l.opts.rng)
	l.Bias = newWeight(l.Name()+"/bias", tensor.Shape{h[1]}, l.biasInit, l.opts.rng)
	return nil
}

func (l *AttentionScore) ComputeOutputShape(shapes ...tensor.Shape) (tensor.Shape, error) {
	if err := l.checkShapes(shapes); err != nil {
		return nil, err
	}
	return tensor.Shape{shapes[0][0], shapes[0][1]}, nil
}

func (l *AttentionScore) Weights() []*Weight {
	if !l.Built() {
		return nil
	}
	return []*Weight{l.Kernel, l.Bias}
}

// Call returns the (batch, steps) attention scores of h against t
func (l *AttentionScore) Call(h *tensor.Tensor3, t *tensor.Matrix) (*tensor.Matrix, error) {
	if h == nil || t == nil {
		return nil, fmt.Errorf("%s: nil input", l.Name())
	}
	if err := l.Build(h.Shape(), t.Shape()); err != nil {
		return nil, err
	}

	projected, err := tensor.Dot(h, l.Kernel.Value)
	if err != nil {
		return nil, fmt.Errorf("%s projection: %w", l.Name(), err)
	}
	scores, err := tensor.BatchDot(projected, t)
	if err != nil {
		return nil, fmt.Errorf("%s batch dot: %w", l.Name(), err)
	}
	scores, err = tensor.BiasAdd(scores, l.Bias.Vector())
	if err != nil {
		return nil, fmt.Errorf("%s bias: %w", l.Name(), err)
	}
	return tensor.ApplyRows(scores, l.activation)
}
