package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestFillGaussianBoxMuller(t *testing.T) {
	tn, err := New(3)
	require.NoError(t, err)
	require.NoError(t, tn.FillGaussian(NewRand(5), 0.1))

	ref := NewRand(5)
	u1, u2 := 1-ref.Float64(), 1-ref.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	z0 := r * math.Cos(2*math.Pi*u2) * 0.1
	z1 := r * math.Sin(2*math.Pi*u2) * 0.1
	u3, u4 := 1-ref.Float64(), 1-ref.Float64()
	z2 := math.Sqrt(-2*math.Log(u3)) * math.Cos(2*math.Pi*u4) * 0.1

	assert.Equal(t, []float64{z0, z1, z2}, tn.Values())
}

func TestFillGaussianReproducible(t *testing.T) {
	a, err := Randn(NewRand(42), 1, 10, 784)
	require.NoError(t, err)
	b, err := Randn(NewRand(42), 1, 10, 784)
	require.NoError(t, err)
	c, err := Randn(NewRand(43), 1, 10, 784)
	require.NoError(t, err)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestFillGaussianMoments(t *testing.T) {
	const scale = 0.01
	tn, err := Randn(NewRand(1), scale, 200, 100)
	require.NoError(t, err)

	mean, std := stat.MeanStdDev(tn.Values(), nil)
	assert.InDelta(t, 0, mean, 4*scale/math.Sqrt(float64(tn.Len())))
	assert.InDelta(t, scale, std, 0.03*scale)
}

func TestFillGaussianRequiresGenerator(t *testing.T) {
	tn, _ := New(2)
	assert.Error(t, tn.FillGaussian(nil, 1))
}
