package tensor

import (
	"math"
	"math/rand/v2"

	"github.com/ezoic/mdsvm/pkg/errors"
)

// NewRand returns a PCG generator seeded for reproducible fills.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// FillGaussian overwrites every element with N(0, scale²) draws produced by
// the Box-Muller transform. Uniform draws are consumed in pairs; when the
// length is odd the last element receives only the cosine branch.
func (t *Tensor) FillGaussian(rng *rand.Rand, scale float64) error {
	const op = "Tensor.FillGaussian"
	if err := t.live(op); err != nil {
		return err
	}
	if rng == nil {
		return errors.NewValueError(op, "random generator is required")
	}
	d := t.data()
	for i := 0; i < len(d); i += 2 {
		// 1 - Float64() lies in (0, 1], keeping the logarithm finite.
		u1 := 1 - rng.Float64()
		u2 := 1 - rng.Float64()
		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		d[i] = r * math.Cos(theta) * scale
		if i+1 < len(d) {
			d[i+1] = r * math.Sin(theta) * scale
		}
	}
	return nil
}

// Randn allocates an owning tensor filled by FillGaussian.
func Randn(rng *rand.Rand, scale float64, shape ...int) (*Tensor, error) {
	t, err := New(shape...)
	if err != nil {
		return nil, err
	}
	if err := t.FillGaussian(rng, scale); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}
