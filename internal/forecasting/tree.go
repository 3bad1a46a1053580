package forecasting

import (
	"math"
	"math/rand"
	"sort"
)

// The two regressors below are deliberately small CART-style trees: a
// bagged forest and a boosted ensemble whose point estimates are later
// combined by unweighted averaging. Both are deterministic for a fixed
// seed so repeated predictions between trainings are identical.

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// maxSplitCandidates bounds the thresholds tried per feature so a split
// search stays linear in sample count.
const maxSplitCandidates = 16

const minLeafSize = 3

// buildTree grows a variance-reducing regression tree on the rows named
// by idx. featureFrac < 1 samples a random feature subset per split,
// which is what makes the bagged trees decorrelate.
func buildTree(x [][]float64, y []float64, idx []int, depth, maxDepth int, featureFrac float64, rng *rand.Rand) *treeNode {
	if depth >= maxDepth || len(idx) < 2*minLeafSize {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, math.Inf(1)
	baseline := sseAt(y, idx)

	for _, f := range sampleFeatures(len(x[0]), featureFrac, rng) {
		for _, t := range splitCandidates(x, idx, f) {
			score := splitSSE(x, y, idx, f, t)
			if score < bestScore {
				bestFeature, bestThreshold, bestScore = f, t, score
			}
		}
	}

	if bestFeature < 0 || bestScore >= baseline {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < minLeafSize || len(right) < minLeafSize {
		return &treeNode{leaf: true, value: meanAt(y, idx)}
	}

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      buildTree(x, y, left, depth+1, maxDepth, featureFrac, rng),
		right:     buildTree(x, y, right, depth+1, maxDepth, featureFrac, rng),
	}
}

func sampleFeatures(total int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all
	}
	n := int(math.Ceil(float64(total) * frac))
	if n < 1 {
		n = 1
	}
	perm := rng.Perm(total)[:n]
	sort.Ints(perm)
	return perm
}

// splitCandidates returns up to maxSplitCandidates midpoints between
// distinct sorted values of feature f.
func splitCandidates(x [][]float64, idx []int, f int) []float64 {
	vals := make([]float64, 0, len(idx))
	for _, i := range idx {
		vals = append(vals, x[i][f])
	}
	sort.Float64s(vals)

	uniq := vals[:0]
	for i, v := range vals {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	step := 1
	if len(uniq)-1 > maxSplitCandidates {
		step = (len(uniq) - 1) / maxSplitCandidates
	}
	var out []float64
	for i := 0; i+1 < len(uniq); i += step {
		out = append(out, (uniq[i]+uniq[i+1])/2)
	}
	return out
}

func splitSSE(x [][]float64, y []float64, idx []int, f int, t float64) float64 {
	var lSum, lSq, rSum, rSq float64
	var lN, rN int
	for _, i := range idx {
		v := y[i]
		if x[i][f] <= t {
			lSum += v
			lSq += v * v
			lN++
		} else {
			rSum += v
			rSq += v * v
			rN++
		}
	}
	if lN == 0 || rN == 0 {
		return math.Inf(1)
	}
	// SSE = sum(y^2) - n*mean^2 per side
	return (lSq - lSum*lSum/float64(lN)) + (rSq - rSum*rSum/float64(rN))
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sseAt(y []float64, idx []int) float64 {
	m := meanAt(y, idx)
	var sse float64
	for _, i := range idx {
		d := y[i] - m
		sse += d * d
	}
	return sse
}

// forestModel is a bagged ensemble of full-feature-ish trees.
type forestModel struct {
	trees []*treeNode
}

func trainForest(x [][]float64, y []float64, trees, maxDepth int, seed int64) *forestModel {
	rng := rand.New(rand.NewSource(seed))
	m := &forestModel{trees: make([]*treeNode, 0, trees)}
	for t := 0; t < trees; t++ {
		idx := make([]int, len(x))
		for i := range idx {
			idx[i] = rng.Intn(len(x))
		}
		m.trees = append(m.trees, buildTree(x, y, idx, 0, maxDepth, 0.7, rng))
	}
	return m
}

func (m *forestModel) predict(row []float64) float64 {
	var sum float64
	for _, t := range m.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(m.trees))
}

// boostModel is a gradient-boosted ensemble of shallow trees fitted to
// residuals.
type boostModel struct {
	base      float64
	learnRate float64
	trees     []*treeNode
}

func trainBoost(x [][]float64, y []float64, rounds, maxDepth int, learnRate float64, seed int64) *boostModel {
	rng := rand.New(rand.NewSource(seed))

	m := &boostModel{learnRate: learnRate}
	var sum float64
	for _, v := range y {
		sum += v
	}
	m.base = sum / float64(len(y))

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}

	residual := make([]float64, len(y))
	pred := make([]float64, len(y))
	for i := range y {
		pred[i] = m.base
	}

	for r := 0; r < rounds; r++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(x, residual, idx, 0, maxDepth, 1.0, rng)
		m.trees = append(m.trees, tree)
		for i := range y {
			pred[i] += learnRate * tree.predict(x[i])
		}
	}
	return m
}

func (m *boostModel) predict(row []float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += m.learnRate * t.predict(row)
	}
	return out
}
