package h5util

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Array is an in-memory row-major float64 array.
type Array struct {
	Shape []int
	Data  []float64
}

// NumElements returns the product of the shape. A rank 0 array holds one
// element.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Rank returns the number of dimensions.
func (a Array) Rank() int { return len(a.Shape) }

// Reshape returns the array viewed with a new shape. One dimension may be
// -1, in which case it is inferred from the element count.
func (a Array) Reshape(shape []int) (Array, error) {
	target := slices.Clone(shape)
	infer := -1
	known := 1
	for i, d := range target {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d < 0:
			return Array{}, &ReshapeError{From: a.Shape, To: shape}
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || len(a.Data)%known != 0 {
			return Array{}, &ReshapeError{From: a.Shape, To: shape}
		}
		target[infer] = len(a.Data) / known
	}
	if NumElements(target) != len(a.Data) {
		return Array{}, &ReshapeError{From: a.Shape, To: shape}
	}
	return Array{Shape: target, Data: a.Data}, nil
}

// T returns the transpose of a 2D array.
func (a Array) T() Array {
	rows, cols := a.Shape[0], a.Shape[1]
	if rows == 0 || cols == 0 {
		return Array{Shape: []int{cols, rows}, Data: []float64{}}
	}
	var t mat.Dense
	t.CloneFrom(a.Matrix().T())
	return fromDense(&t)
}

// Matrix wraps a non-empty 2D array as a gonum matrix sharing its data.
func (a Array) Matrix() *mat.Dense {
	return mat.NewDense(a.Shape[0], a.Shape[1], a.Data)
}

func fromDense(m *mat.Dense) Array {
	r, c := m.Dims()
	raw := m.RawMatrix()
	if raw.Stride == c {
		return Array{Shape: []int{r, c}, Data: raw.Data[:r*c]}
	}
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return Array{Shape: []int{r, c}, Data: data}
}

// VStack stacks arrays of equal shape the way numpy's vstack does: 1D
// arrays of length n become the rows of a (k, n) matrix, higher ranks are
// joined along their first axis.
func VStack(arrays []Array) (Array, error) {
	if len(arrays) == 0 {
		return Array{}, ErrNoInputs
	}
	first := arrays[0].Shape
	var out Array
	switch len(first) {
	case 0:
		out.Shape = []int{len(arrays), 1}
	case 1:
		out.Shape = []int{len(arrays), first[0]}
	default:
		out.Shape = slices.Clone(first)
		out.Shape[0] = 0
	}
	out.Data = make([]float64, 0, len(arrays)*NumElements(first))
	for _, a := range arrays {
		if len(a.Shape) != len(first) || (len(first) > 0 && !slices.Equal(a.Shape[1:], first[1:])) ||
			(len(first) == 1 && a.Shape[0] != first[0]) {
			return Array{}, &ReshapeError{From: a.Shape, To: first}
		}
		if len(first) > 1 {
			out.Shape[0] += a.Shape[0]
		}
		out.Data = append(out.Data, a.Data...)
	}
	return out, nil
}

func toUint64(shape []int) []uint64 {
	out := make([]uint64, len(shape))
	for i, d := range shape {
		out[i] = uint64(d)
	}
	return out
}

func toInt(dims []uint64) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d)
	}
	return out
}
