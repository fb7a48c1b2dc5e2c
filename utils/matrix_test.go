package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// Blend
	{
		A := NewMatrix(2, 2, []float64{0, 0, 0, 0})
		B := NewMatrix(2, 2, []float64{2, 4, 6, 8})
		M := NewMatrix(2, 2)
		M.Blend(A, B, 0.5)
		assert.Equal(t, []float64{1, 2, 3, 4}, M.DataP())
		M.Blend(A, B, 0)
		assert.Equal(t, []float64{0, 0, 0, 0}, M.DataP())
		M.Blend(A, B, 1)
		assert.Equal(t, []float64{2, 4, 6, 8}, M.DataP())
	}
	// Blend with non-zero lower bracket
	{
		A := NewMatrix(1, 3, []float64{1, 1, 1})
		B := NewMatrix(1, 3, []float64{4, 4, 4})
		M := NewMatrix(1, 3)
		M.Blend(A, B, 1.0/3.0)
		for _, v := range M.DataP() {
			assert.InDelta(t, 2, v, 1.e-12)
		}
	}
	// AddScaled
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		A := NewMatrix(2, 2, []float64{1, 1, 1, 1})
		M.AddScaled(A, 0.5)
		assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5}, M.DataP())
	}
	// CopyFrom leaves the source untouched
	{
		M := NewMatrix(2, 2)
		A := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		M.CopyFrom(A)
		M.Scale(2)
		assert.Equal(t, []float64{1, 2, 3, 4}, A.DataP())
		assert.Equal(t, []float64{2, 4, 6, 8}, M.DataP())
	}
	// Copy is deep
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		A := M.Copy()
		A.Set(0, 0, 10)
		assert.Equal(t, 1., M.At(0, 0))
	}
	// Add / Subtract are elementwise and chainable
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		A := NewMatrix(2, 2, []float64{4, 3, 2, 1})
		M.Add(A).Subtract(A).Subtract(A)
		assert.Equal(t, []float64{-3, -1, 1, 3}, M.DataP())
	}
	// Apply, Min, Max
	{
		M := NewMatrix(2, 2, []float64{-1, 2, -3, 4})
		assert.Equal(t, -3., M.Min())
		assert.Equal(t, 4., M.Max())
		M.Apply(func(v float64) float64 { return v * v })
		assert.Equal(t, []float64{1, 4, 9, 16}, M.DataP())
		assert.Equal(t, 1., M.Min())
		assert.Equal(t, 16., M.Max())
	}
	// Writes to a read-only matrix panic
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		M.SetReadOnly("coeffs")
		assert.Panics(t, func() { M.Set(0, 0, 5) })
		assert.Panics(t, func() { M.Scale(2) })
		assert.Equal(t, 1., M.At(0, 0))
	}
}

func TestPartitionMap(t *testing.T) {
	// Bucket ranges tile the index space without gaps or overlap
	{
		pm := NewPartitionMap(4, 10)
		var total int
		prev := 0
		for n := 0; n < pm.ParallelDegree; n++ {
			lo, hi := pm.GetBucketRange(n)
			assert.Equal(t, prev, lo)
			total += hi - lo
			prev = hi
		}
		assert.Equal(t, 10, total)
	}
	// More threads than work collapses to one index per bucket
	{
		pm := NewPartitionMap(16, 3)
		assert.Equal(t, 3, pm.ParallelDegree)
	}
	// Uneven split puts the remainder in the leading buckets
	{
		pm := NewPartitionMap(3, 11)
		lo, hi := pm.GetBucketRange(0)
		assert.Equal(t, 4, hi-lo)
		lo, hi = pm.GetBucketRange(2)
		assert.Equal(t, 8, lo)
		assert.Equal(t, 3, hi-lo)
	}
}
