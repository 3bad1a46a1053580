package forecasting

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepData is a dataset with a single clean split: feature 0 below 5
// maps to y=10, above maps to y=50.
func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i % 10)
		x = append(x, []float64{v, float64(i)})
		if v < 5 {
			y = append(y, 10)
		} else {
			y = append(y, 50)
		}
	}
	return x, y
}

func TestForestLearnsStepFunction(t *testing.T) {
	x, y := stepData()
	m := trainForest(x, y, 20, 6, 42)

	low := m.predict([]float64{2, 0})
	high := m.predict([]float64{8, 0})
	assert.InDelta(t, 10, low, 8)
	assert.InDelta(t, 50, high, 8)
}

func TestBoostLearnsStepFunction(t *testing.T) {
	x, y := stepData()
	m := trainBoost(x, y, 30, 3, 0.1, 42)

	low := m.predict([]float64{2, 0})
	high := m.predict([]float64{8, 0})
	assert.InDelta(t, 10, low, 8)
	assert.InDelta(t, 50, high, 8)
}

func TestTrainingIsDeterministicForSeed(t *testing.T) {
	x, y := stepData()
	a := trainForest(x, y, 10, 6, 7)
	b := trainForest(x, y, 10, 6, 7)

	row := []float64{4.2, 3}
	assert.Equal(t, a.predict(row), b.predict(row))
}

func TestConstantTargetCollapsesToLeaf(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i)})
		y = append(y, 7)
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	tree := buildTree(x, y, idx, 0, 5, 1.0, rand.New(rand.NewSource(1)))
	require.NotNil(t, tree)
	assert.Equal(t, 7.0, tree.predict([]float64{3}))
}
