package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and RawMatrix minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

// DataP returns the raw backing slice for kernel loops.
func (m Matrix) DataP() []float64 { return m.M.RawMatrix().Data }

func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		data   = m.M.RawMatrix().Data
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, data)
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.Scale(a, m.M.RawMatrix().Data)
	return m
}

func (m Matrix) Add(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	floats.Add(m.M.RawMatrix().Data, A.M.RawMatrix().Data)
	return m
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	floats.Sub(m.M.RawMatrix().Data, A.M.RawMatrix().Data)
	return m
}

// CopyFrom overwrites m with the contents of A.
func (m Matrix) CopyFrom(A Matrix) Matrix { // Changes receiver
	m.checkWritable()
	copy(m.M.RawMatrix().Data, A.M.RawMatrix().Data)
	return m
}

// Blend overwrites m with (1-w)*A + w*B, the linear interpolant between the
// two sample matrices at fractional position w.
func (m Matrix) Blend(A, B Matrix, w float64) Matrix { // Changes receiver
	m.checkWritable()
	var (
		d = m.M.RawMatrix().Data
		a = A.M.RawMatrix().Data
		b = B.M.RawMatrix().Data
	)
	copy(d, b)
	floats.Sub(d, a)
	floats.Scale(w, d)
	floats.Add(d, a)
	return m
}

// AddScaled overwrites m with m + a*A.
func (m Matrix) AddScaled(A Matrix, a float64) Matrix { // Changes receiver
	m.checkWritable()
	floats.AddScaled(m.M.RawMatrix().Data, a, A.M.RawMatrix().Data)
	return m
}

func (m Matrix) Apply(f func(float64) float64) Matrix { // Changes receiver
	m.checkWritable()
	var (
		data = m.M.RawMatrix().Data
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

func (m Matrix) Min() (min float64) {
	var (
		data = m.M.RawMatrix().Data
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (m Matrix) Max() (max float64) {
	var (
		data = m.M.RawMatrix().Data
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}
