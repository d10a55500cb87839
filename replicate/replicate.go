package replicate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/sigmacheck/sigmacheck/logger"
)

var (
	ErrNoReplicates = errors.New("replicate set must contain at least one replicate")

	ErrNoStates       = errors.New("state count must be at least one")
	ErrScalarStates   = errors.New("scalar quantities must have exactly one state")
	ErrUnsupportedDim = errors.New("quantity dimension must be 0, 1 or 2")

	ErrMalformedMatrix = errors.New("matrix must be square with rows of equal length")
	ErrInvalidValue    = errors.New("quantity contains an invalid value")
)

// Shape identifies the form of a quantity over K states:
// dim 0 is a scalar, dim 1 a vector of K values, dim 2 a KxK matrix.
// Scalars always have K == 1.
type Shape struct {
	Dim int `json:"dim"`
	K   int `json:"states"`
}

// Coordinate addresses a single entry of a quantity. Col is always 0
// for scalars and vectors.
type Coordinate struct {
	Row int
	Col int
}

func (s Shape) Validate() error {
	switch s.Dim {
	case 0:
		if s.K != 1 {
			return ErrScalarStates
		}
	case 1, 2:
		if s.K < 1 {
			return ErrNoStates
		}
	default:
		return ErrUnsupportedDim
	}
	return nil
}

// Size returns the number of addressable entries
func (s Shape) Size() int {
	if s.Dim == 2 {
		return s.K * s.K
	}
	return s.K
}

func (s Shape) String() string {
	switch s.Dim {
	case 0:
		return "scalar"
	case 1:
		return fmt.Sprintf("vector[%d]", s.K)
	case 2:
		return fmt.Sprintf("matrix[%dx%d]", s.K, s.K)
	}
	return fmt.Sprintf("dim%d[%d]", s.Dim, s.K)
}

// Coordinates returns every addressable entry of the shape
func (s Shape) Coordinates() []Coordinate {
	coords := make([]Coordinate, 0, s.Size())
	if s.Dim == 2 {
		for row := 0; row < s.K; row++ {
			for col := 0; col < s.K; col++ {
				coords = append(coords, Coordinate{Row: row, Col: col})
			}
		}
		return coords
	}
	for row := 0; row < s.K; row++ {
		coords = append(coords, Coordinate{Row: row})
	}
	return coords
}

// CoverageCoordinates returns the entries that participate in coverage
// counting and deviation summaries. Matrices contribute only their strict
// lower triangle, symmetric pairwise differences would otherwise be
// counted twice and the diagonal is a self difference.
func (s Shape) CoverageCoordinates() []Coordinate {
	if s.Dim != 2 {
		return s.Coordinates()
	}
	var coords []Coordinate
	for row := 0; row < s.K; row++ {
		for col := 0; col < row; col++ {
			coords = append(coords, Coordinate{Row: row, Col: col})
		}
	}
	return coords
}

// PanelCoordinates returns the entries rendered as QQ panels, every
// off diagonal entry for matrices
func (s Shape) PanelCoordinates() []Coordinate {
	if s.Dim != 2 {
		return s.Coordinates()
	}
	var coords []Coordinate
	for row := 0; row < s.K; row++ {
		for col := 0; col < s.K; col++ {
			if row != col {
				coords = append(coords, Coordinate{Row: row, Col: col})
			}
		}
	}
	return coords
}

// Label formats a coordinate for reports and error messages, the bare
// index for scalars and vectors and "row-col" for matrix entries
func (s Shape) Label(c Coordinate) string {
	if s.Dim == 2 {
		return strconv.Itoa(c.Row) + "-" + strconv.Itoa(c.Col)
	}
	return strconv.Itoa(c.Row)
}

// Quantity is a scalar, vector or matrix value stored flat in row major
// order. The zero Quantity has no shape and is only produced by decoding
// failures.
type Quantity struct {
	shape  Shape
	values []float64
}

// NewQuantity builds a quantity from a validated shape and a flat value
// slice of exactly shape.Size() entries
func NewQuantity(shape Shape, values []float64) (Quantity, error) {
	if err := shape.Validate(); err != nil {
		return Quantity{}, err
	}
	if len(values) != shape.Size() {
		return Quantity{}, fmt.Errorf("quantity requires %d values for shape %s, got %d", shape.Size(), shape, len(values))
	}
	return Quantity{shape: shape, values: values}, nil
}

// Scalar wraps a single value as a dim 0 quantity
func Scalar(value float64) Quantity {
	return Quantity{shape: Shape{Dim: 0, K: 1}, values: []float64{value}}
}

// Vector wraps a value slice as a dim 1 quantity
func Vector(values []float64) (Quantity, error) {
	return NewQuantity(Shape{Dim: 1, K: len(values)}, values)
}

// Matrix wraps a square row slice as a dim 2 quantity
func Matrix(rows [][]float64) (Quantity, error) {
	k := len(rows)
	if k < 1 {
		return Quantity{}, ErrNoStates
	}
	values := make([]float64, 0, k*k)
	for _, row := range rows {
		if len(row) != k {
			return Quantity{}, ErrMalformedMatrix
		}
		values = append(values, row...)
	}
	return NewQuantity(Shape{Dim: 2, K: k}, values)
}

func (q Quantity) Shape() Shape {
	return q.shape
}

// At returns the value at the given coordinate
func (q Quantity) At(c Coordinate) float64 {
	if q.shape.Dim == 2 {
		return q.values[c.Row*q.shape.K+c.Col]
	}
	return q.values[c.Row]
}

// MarshalJSON encodes the quantity in its natural JSON form, a bare
// number for scalars, an array for vectors, an array of arrays for matrices
func (q Quantity) MarshalJSON() ([]byte, error) {
	if err := q.shape.Validate(); err != nil {
		return nil, err
	}
	switch q.shape.Dim {
	case 1:
		return json.Marshal(q.values)
	case 2:
		rows := make([][]float64, q.shape.K)
		for i := range rows {
			rows[i] = q.values[i*q.shape.K : (i+1)*q.shape.K]
		}
		return json.Marshal(rows)
	}
	return json.Marshal(q.values[0])
}

// UnmarshalJSON decodes any of the three natural forms
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*q = Scalar(scalar)
		return nil
	}

	var vector []float64
	if err := json.Unmarshal(data, &vector); err == nil {
		quantity, err := Vector(vector)
		if err != nil {
			return err
		}
		*q = quantity
		return nil
	}

	var matrix [][]float64
	if err := json.Unmarshal(data, &matrix); err == nil {
		quantity, err := Matrix(matrix)
		if err != nil {
			return err
		}
		*q = quantity
		return nil
	}

	return fmt.Errorf("quantity must be a number, an array, or an array of arrays")
}

// Replicate is one independent estimate of the same underlying quantity:
// the point estimate, the signed deviation from the known truth, and the
// standard error the estimator reported for itself
type Replicate struct {
	Estimated Quantity `json:"estimated"`
	Error     Quantity `json:"error"`
	StdError  Quantity `json:"destimated"`
}

// ShapeError reports a replicate whose quantities do not share the set shape
type ShapeError struct {
	Replicate int
	Field     string
	Want      Shape
	Got       Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("replicate %d: field %s has shape %s, want %s", e.Replicate, e.Field, e.Got, e.Want)
}

// InvalidValueError reports the first NaN found while validating a set
type InvalidValueError struct {
	Replicate  int
	Field      string
	Coordinate string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("replicate %d: field %s at coordinate %s: %v", e.Replicate, e.Field, e.Coordinate, ErrInvalidValue)
}

func (e *InvalidValueError) Unwrap() error {
	return ErrInvalidValue
}

// Set is a named collection of replicates sharing one shape
type Set struct {
	Name        string
	Fingerprint string
	Shape       Shape
	Replicates  []Replicate
}

// NewSet builds a set from decoded replicates, taking the shape from the
// first replicate and requiring every quantity of every replicate to match it
func NewSet(name string, replicates []Replicate) (*Set, error) {
	if len(replicates) == 0 {
		return nil, ErrNoReplicates
	}

	shape := replicates[0].Estimated.Shape()
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	for i, rep := range replicates {
		for _, field := range []struct {
			name  string
			shape Shape
		}{
			{name: "estimated", shape: rep.Estimated.Shape()},
			{name: "error", shape: rep.Error.Shape()},
			{name: "destimated", shape: rep.StdError.Shape()},
		} {
			if field.shape != shape {
				return nil, &ShapeError{Replicate: i, Field: field.name, Want: shape, Got: field.shape}
			}
		}
	}

	if len(replicates) == 1 {
		zlog := logger.GetLogger()
		zlog.Warn().Str("set", name).Msg("set contains a single replicate, order statistics will be degenerate")
	}

	return &Set{
		Name:       name,
		Shape:      shape,
		Replicates: replicates,
	}, nil
}

// Size returns the number of replicates
func (s *Set) Size() int {
	return len(s.Replicates)
}

// Validate scans the deviations and reported errors for NaN over every
// coordinate the order statistics consume and returns the first offender
// found. The matrix diagonal is never read and so never checked.
func (s *Set) Validate() error {
	coords := s.Shape.PanelCoordinates()
	for i, rep := range s.Replicates {
		for _, c := range coords {
			if math.IsNaN(rep.Error.At(c)) {
				return &InvalidValueError{Replicate: i, Field: "error", Coordinate: s.Shape.Label(c)}
			}
			if math.IsNaN(rep.StdError.At(c)) {
				return &InvalidValueError{Replicate: i, Field: "destimated", Coordinate: s.Shape.Label(c)}
			}
		}
	}
	return nil
}
