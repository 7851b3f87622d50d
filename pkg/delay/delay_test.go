package delay

import (
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawMany(t *testing.T, r *Randomizer, cfg Config, n int) []float64 {
	t.Helper()
	res := make([]float64, n)
	for i := range res {
		d, err := r.Next(cfg)
		require.NoError(t, err)
		res[i] = d.Seconds()
	}
	return res
}

func stats(samples []float64) (mean, stddev, skew float64) {
	n := float64(len(samples))
	for _, s := range samples {
		mean += s
	}
	mean /= n

	var m2, m3 float64
	for _, s := range samples {
		d := s - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	stddev = math.Sqrt(m2)
	skew = m3 / math.Pow(m2, 1.5)
	return mean, stddev, skew
}

func TestNext_LogNormalDistribution(t *testing.T) {
	r := NewWithSource(rand.NewSource(42))
	cfg := Config{Base: 3, Min: 0.5}

	samples := drawMany(t, r, cfg, 10000)

	mean, _, skew := stats(samples)
	assert.InDelta(t, 3.0, mean, 3.0*0.15, "sample mean within 15%% of base")
	assert.Positive(t, skew, "right tail longer than left")

	for _, s := range samples {
		assert.GreaterOrEqual(t, s, 0.5, "hard floor")
	}
}

func TestNext_GammaDistribution(t *testing.T) {
	r := NewWithSource(rand.NewSource(7))
	cfg := Config{Base: 3, Model: ModelGamma, Min: 0.5}

	samples := drawMany(t, r, cfg, 10000)

	mean, _, skew := stats(samples)
	assert.InDelta(t, 3.0, mean, 3.0*0.15)
	assert.Positive(t, skew)

	for _, s := range samples {
		assert.GreaterOrEqual(t, s, 0.5)
	}
}

func TestNext_UniformDistribution(t *testing.T) {
	r := NewWithSource(rand.NewSource(11))
	cfg := Config{Base: 3, Model: ModelUniform}

	samples := drawMany(t, r, cfg, 10000)

	mean, _, _ := stats(samples)
	assert.InDelta(t, 3.0, mean, 3.0*0.15)

	for _, s := range samples {
		assert.GreaterOrEqual(t, s, 1.5, "base*0.5 lower bound")
		assert.LessOrEqual(t, s, 4.5, "base*1.5 upper bound")
	}
}

func TestNext_SkewedModelsBeatUniform(t *testing.T) {
	// the whole point: lognormal draws must not look uniform
	r := NewWithSource(rand.NewSource(3))
	logSamples := drawMany(t, r, Config{Base: 3}, 10000)
	uniSamples := drawMany(t, r, Config{Base: 3, Model: ModelUniform}, 10000)

	_, _, logSkew := stats(logSamples)
	_, _, uniSkew := stats(uniSamples)
	assert.Greater(t, logSkew, uniSkew+0.5, "lognormal clearly more right-skewed than uniform")
}

func TestNext_InvalidConfig(t *testing.T) {
	r := NewWithSource(rand.NewSource(1))

	tbl := []struct {
		name string
		cfg  Config
	}{
		{"negative base", Config{Base: -1}},
		{"zero base", Config{Base: 0}},
		{"negative min", Config{Base: 3, Min: -0.1}},
		{"min above base", Config{Base: 3, Min: 5}},
		{"unknown model", Config{Base: 3, Model: "bimodal"}},
	}
	for _, tc := range tbl {
		t.Run(tc.name, func(t *testing.T) {
			d, err := r.Next(tc.cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Equal(t, time.Duration(0), d, "no draw on invalid config")
		})
	}
}

func TestNext_DefaultModelIsLogNormal(t *testing.T) {
	a := NewWithSource(rand.NewSource(99))
	b := NewWithSource(rand.NewSource(99))

	d1, err := a.Next(Config{Base: 3})
	require.NoError(t, err)
	d2, err := b.Next(Config{Base: 3, Model: ModelLogNormal})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestNew_PerProcessSeeding(t *testing.T) {
	// two independently constructed randomizers must not replay the same
	// sequence
	a, b := New(), New()
	cfg := Config{Base: 3}

	same := 0
	for i := 0; i < 10; i++ {
		da, err := a.Next(cfg)
		require.NoError(t, err)
		db, err := b.Next(cfg)
		require.NoError(t, err)
		if da == db {
			same++
		}
	}
	assert.Less(t, same, 10, "sequences must diverge")
}

func TestNext_Concurrent(t *testing.T) {
	r := New()
	cfg := Config{Base: 1, Min: 0.1}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d, err := r.Next(cfg)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, d.Seconds(), 0.1)
			}
		}()
	}
	wg.Wait()
}

func TestNext_PackageLevel(t *testing.T) {
	d, err := Next(Config{Base: 2, Min: 0.2})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.Seconds(), 0.2)

	_, err = Next(Config{Base: -1})
	require.ErrorIs(t, err, ErrInvalidConfig)
}
