package gamemath

import (
	"fmt"
	"math"
)

type Direction int8

const (
	Left  Direction = -1
	Right Direction = 1
)

// Path is one committed left/right step per board row.
type Path []Direction

// Displacement is the net horizontal offset in half-bucket units.
func (p Path) Displacement() int {
	d := 0
	for _, step := range p {
		d += int(step)
	}
	return d
}

func (p Path) Ints() []int {
	out := make([]int, len(p))
	for i, step := range p {
		out[i] = int(step)
	}
	return out
}

// CommitPath draws every row's step up front. Nothing after this call adds randomness.
func CommitPath(src Source, rows int) (Path, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("row count must be positive, got %d", rows)
	}
	path := make(Path, rows)
	for i := range path {
		if src.IntN(2) == 0 {
			path[i] = Left
		} else {
			path[i] = Right
		}
	}
	return path, nil
}

// ResolveBucket maps a finished path onto the bucket table. A path of n rows
// lands in bucket (displacement+n)/2; out-of-range values clamp to the edges.
func ResolveBucket(path Path, table []float64) (int, float64, error) {
	if len(table) == 0 {
		return 0, 0, fmt.Errorf("bucket table is empty")
	}
	offset := path.Displacement() + len(table) - 1
	idx := 0
	if offset > 0 {
		idx = offset / 2
	}
	if idx > len(table)-1 {
		idx = len(table) - 1
	}
	return idx, table[idx], nil
}

var bucketTables = map[int][]float64{
	8:  {5, 2, 1.2, 0.5, 0.2, 0.5, 1.2, 2, 5},
	12: {18, 10, 5, 2, 0.5, 0.2, 0.2, 0.2, 0.5, 2, 5, 10, 18},
	16: {100, 50, 25, 10, 5, 2, 0.5, 0.2, 0.2, 0.2, 0.5, 2, 5, 10, 25, 50, 100},
}

func init() {
	for rows, table := range bucketTables {
		if len(table) != rows+1 {
			panic(fmt.Sprintf("bucket table for %d rows has %d entries, want %d", rows, len(table), rows+1))
		}
		for i := range table {
			if table[i] != table[len(table)-1-i] {
				panic(fmt.Sprintf("bucket table for %d rows is not symmetric at %d", rows, i))
			}
		}
	}
}

// BucketTable returns a copy of the multiplier table for a board height.
func BucketTable(rows int) ([]float64, error) {
	table, ok := bucketTables[rows]
	if !ok {
		return nil, fmt.Errorf("no bucket table for %d rows", rows)
	}
	out := make([]float64, len(table))
	copy(out, table)
	return out, nil
}

// BucketProbabilities is the binomial landing distribution C(rows,k)/2^rows.
func BucketProbabilities(rows int) []float64 {
	probs := make([]float64, rows+1)
	c := 1.0
	scale := math.Pow(2, float64(rows))
	for k := 0; k <= rows; k++ {
		probs[k] = c / scale
		c = c * float64(rows-k) / float64(k+1)
	}
	return probs
}

// ExpectedReturn is the long-run multiplier paid per unit wagered on a board.
func ExpectedReturn(rows int) (float64, error) {
	table, err := BucketTable(rows)
	if err != nil {
		return 0, err
	}
	probs := BucketProbabilities(rows)
	var rtp float64
	for i, p := range probs {
		rtp += p * table[i]
	}
	return rtp, nil
}
