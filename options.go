package middleout

import (
	"fmt"

	"github.com/Akron/middleout-go/internal/options"
)

// Engine selects the kernel set a Codec runs on.
type Engine uint8

const (
	// EngineAuto picks the vector engine when accelerated kernels are
	// available and the scalar engine otherwise.
	EngineAuto Engine = iota
	EngineScalar
	EngineVector
)

func (e Engine) String() string {
	switch e {
	case EngineAuto:
		return "auto"
	case EngineScalar:
		return "scalar"
	case EngineVector:
		return "vector"
	default:
		return fmt.Sprintf("Engine(%d)", uint8(e))
	}
}

func (e Engine) kernels() *kernelSet {
	if e == EngineVector {
		return &vectorKernels
	}
	return &scalarKernels
}

func resolveEngine(e Engine) Engine {
	if e != EngineAuto {
		return e
	}
	if simdAvailable {
		return EngineVector
	}
	return EngineScalar
}

// Codec holds an engine choice and decoder settings. The zero value is not
// usable; create one with NewCodec. A Codec is immutable and safe for
// concurrent use.
type Codec struct {
	engine  Engine
	kernels *kernelSet
	verify  bool
}

// Option configures a Codec.
type Option = options.Option[*Codec]

// NewCodec creates a Codec. Without options it behaves like the package
// level functions: automatic engine selection and checksum verification.
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{engine: EngineAuto, verify: true}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	c.engine = resolveEngine(c.engine)
	c.kernels = c.engine.kernels()

	return c, nil
}

// Engine returns the engine the codec runs on. It never returns EngineAuto.
func (c *Codec) Engine() Engine {
	return c.engine
}

// WithEngine selects the kernel set. EngineVector is accepted on every
// platform; without SIMD support it runs the portable lane fallback.
func WithEngine(e Engine) Option {
	return options.New(func(c *Codec) error {
		switch e {
		case EngineAuto, EngineScalar, EngineVector:
			c.engine = e
			return nil
		default:
			return fmt.Errorf("%w: unknown engine %d", ErrInvalidOption, uint8(e))
		}
	})
}

// WithChecksumVerification toggles footer checksum verification on
// decompression. It is enabled by default.
func WithChecksumVerification(enabled bool) Option {
	return options.NoError(func(c *Codec) {
		c.verify = enabled
	})
}
