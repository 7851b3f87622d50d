// Package delay generates human-looking pauses between requests. Uniform
// jitter is trivially detectable by inter-arrival analysis, so the default
// models are skewed with a heavy right tail, the shape of real human
// think-time. The draw is a pure function of the config and the random
// source; nothing is shared between calls.
package delay

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Model selects the jitter distribution.
type Model string

// supported jitter models
const (
	ModelLogNormal Model = "lognormal" // heavy right tail, default
	ModelGamma     Model = "gamma"     // heavy right tail, less extreme
	ModelUniform   Model = "uniform"   // wget-style base*U(0.5,1.5), detectable, kept for compatibility
)

// ErrInvalidConfig reports a malformed Config. It is never silently
// corrected: a bot sleeping less than asked is the failure mode this
// package must not mask.
var ErrInvalidConfig = errors.New("invalid delay configuration")

// Config parameterizes a draw. Base is the mean delay in seconds, Min a
// hard floor below which no draw is returned.
type Config struct {
	Base  float64 // mean delay, seconds, must be positive
	Model Model   // empty selects ModelLogNormal
	Min   float64 // floor, seconds, must be >= 0
}

// lognormal shape and gamma shape, tuned for a visible but not absurd right
// tail while keeping the configured mean
const (
	logNormalSigma = 0.5
	gammaShape     = 2.5
)

// Randomizer draws delays from its own random source. Safe for concurrent
// use. The zero value is not usable, construct with New or NewWithSource.
type Randomizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a randomizer seeded from crypto/rand, so repeated process
// runs do not share a predictable sequence.
func New() *Randomizer {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// extremely unlikely; fall back to the clock rather than fail
		return NewWithSource(rand.NewSource(time.Now().UnixNano()))
	}
	return NewWithSource(rand.NewSource(int64(binary.LittleEndian.Uint64(buf[:])))) //nolint:gosec // delay jitter, not key material
}

// NewWithSource creates a randomizer on the given source, for reproducible
// tests.
func NewWithSource(src rand.Source) *Randomizer {
	return &Randomizer{rnd: rand.New(src)} //nolint:gosec // delay jitter, not key material
}

// Next draws one delay for the config. A non-positive base, negative floor,
// a floor above the mean or an unknown model yield ErrInvalidConfig before
// any draw happens.
func (r *Randomizer) Next(cfg Config) (time.Duration, error) {
	if cfg.Base <= 0 {
		return 0, fmt.Errorf("%w: base must be positive, got %v", ErrInvalidConfig, cfg.Base)
	}
	if cfg.Min < 0 {
		return 0, fmt.Errorf("%w: min must be non-negative, got %v", ErrInvalidConfig, cfg.Min)
	}
	if cfg.Min > cfg.Base {
		return 0, fmt.Errorf("%w: min %v exceeds base %v", ErrInvalidConfig, cfg.Min, cfg.Base)
	}
	model := cfg.Model
	if model == "" {
		model = ModelLogNormal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var secs float64
	switch model {
	case ModelLogNormal:
		// mean of a lognormal is exp(mu + sigma^2/2), solve for mu
		mu := math.Log(cfg.Base) - logNormalSigma*logNormalSigma/2
		secs = math.Exp(mu + logNormalSigma*r.rnd.NormFloat64())
	case ModelGamma:
		scale := cfg.Base / gammaShape
		secs = gammaDraw(r.rnd, gammaShape) * scale
	case ModelUniform:
		secs = cfg.Base * (0.5 + r.rnd.Float64())
	default:
		return 0, fmt.Errorf("%w: unknown model %q", ErrInvalidConfig, cfg.Model)
	}

	if secs < cfg.Min {
		secs = cfg.Min
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// gammaDraw samples a gamma variate with the given shape (>= 1) and unit
// scale using the Marsaglia-Tsang squeeze method.
func gammaDraw(rnd *rand.Rand, shape float64) float64 {
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rnd.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rnd.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

var defaultRandomizer = New()

// Next draws one delay from the process-wide randomizer.
func Next(cfg Config) (time.Duration, error) {
	return defaultRandomizer.Next(cfg)
}
