package spectrum

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrPlanDestroyed is returned when a destroyed plan is executed.
var ErrPlanDestroyed = errors.New("transform plan destroyed")

// Plan is a fixed-size real-to-half-complex transform bound to its own input
// and output storage. All planning and allocation happen in NewPlan; Execute
// only reads Input and writes Output.
//
// Output uses the half-complex layout: out[k] = Re(X_k) for 0 <= k <= n/2
// and out[n-k] = Im(X_k) for 0 < k < (n+1)/2. Values are unnormalized and
// no window is applied.
type Plan struct {
	size   int
	fft    *fourier.FFT
	in     []float64
	out    []float64
	coeffs []complex128
}

// NewPlan builds a plan for size-point frames. It is not real-time safe.
func NewPlan(size int) (*Plan, error) {
	if size < 2 {
		return nil, fmt.Errorf("transform size %d: need at least 2 points", size)
	}
	return &Plan{
		size:   size,
		fft:    fourier.NewFFT(size),
		in:     make([]float64, size),
		out:    make([]float64, size),
		coeffs: make([]complex128, size/2+1),
	}, nil
}

// Size returns the transform length.
func (p *Plan) Size() int { return p.size }

// Input returns the bound input frame. Callers fill it before Execute.
func (p *Plan) Input() []float64 { return p.in }

// Output returns the bound half-complex output frame.
func (p *Plan) Output() []float64 { return p.out }

// Execute transforms Input into Output.
func (p *Plan) Execute() error {
	if p.fft == nil {
		return ErrPlanDestroyed
	}
	p.fft.Coefficients(p.coeffs, p.in)

	n := p.size
	for k := 0; k <= n/2; k++ {
		p.out[k] = real(p.coeffs[k])
	}
	for k := 1; k < (n+1)/2; k++ {
		p.out[n-k] = imag(p.coeffs[k])
	}
	return nil
}

// Transform copies frame into the plan input and executes. The returned
// slice is the plan's Output and is overwritten by the next call.
func (p *Plan) Transform(frame []float64) ([]float64, error) {
	if len(frame) != p.size {
		return nil, fmt.Errorf("frame has %d samples, plan expects %d", len(frame), p.size)
	}
	copy(p.in, frame)
	if err := p.Execute(); err != nil {
		return nil, err
	}
	return p.out, nil
}

// Destroy releases the plan workspace. Only the first call has an effect.
func (p *Plan) Destroy() {
	if p.fft == nil {
		return
	}
	p.fft = nil
	p.in = nil
	p.out = nil
	p.coeffs = nil
}

// Destroyed reports whether Destroy has been called.
func (p *Plan) Destroyed() bool { return p.fft == nil }
