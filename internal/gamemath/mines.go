package gamemath

import (
	"fmt"
	"sort"
)

// HouseEdge is applied to the fair mine-sweep odds. It does not vary by tier.
const HouseEdge = 0.98

// PlaceMines picks mineCount distinct cells out of [0, totalCells) with a
// partial Fisher-Yates shuffle. The result is sorted ascending.
func PlaceMines(src Source, totalCells, mineCount int) ([]int, error) {
	if err := validateGrid(totalCells, mineCount); err != nil {
		return nil, err
	}

	pool := make([]int, totalCells)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < mineCount; i++ {
		j := i + src.IntN(totalCells-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	mines := make([]int, mineCount)
	copy(mines, pool[:mineCount])
	sort.Ints(mines)
	return mines, nil
}

// MineMultiplier is the payout multiplier after revealedCount safe picks:
//
//	HouseEdge * prod_{i<revealed} (total-i)/(safe-i)
//
// Zero reveals pays 1 and the edge-adjusted value never drops below 1.
// revealedCount is clamped to safe-1, the largest count a player can still
// choose to cash out at; revealing the last safe cell settles at that value.
func MineMultiplier(totalCells, mineCount, revealedCount int) (float64, error) {
	if err := validateGrid(totalCells, mineCount); err != nil {
		return 0, err
	}
	if revealedCount < 0 {
		return 0, fmt.Errorf("revealed count must not be negative, got %d", revealedCount)
	}
	if revealedCount == 0 {
		return 1, nil
	}

	safe := totalCells - mineCount
	if revealedCount > safe-1 {
		revealedCount = safe - 1
	}

	m := 1.0
	for i := 0; i < revealedCount; i++ {
		m *= float64(totalCells-i) / float64(safe-i)
	}
	m *= HouseEdge
	if m < 1 {
		return 1, nil
	}
	return m, nil
}

// MineMultiplierTable lists the multiplier for every reveal count from 0 to safe-1.
func MineMultiplierTable(totalCells, mineCount int) ([]float64, error) {
	if err := validateGrid(totalCells, mineCount); err != nil {
		return nil, err
	}
	safe := totalCells - mineCount
	table := make([]float64, safe)
	for r := range table {
		m, err := MineMultiplier(totalCells, mineCount, r)
		if err != nil {
			return nil, err
		}
		table[r] = m
	}
	return table, nil
}

func validateGrid(totalCells, mineCount int) error {
	if totalCells < 2 {
		return fmt.Errorf("grid must have at least 2 cells, got %d", totalCells)
	}
	if mineCount < 1 || mineCount >= totalCells {
		return fmt.Errorf("mine count must be between 1 and %d, got %d", totalCells-1, mineCount)
	}
	return nil
}
