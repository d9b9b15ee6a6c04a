package trend

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Ensemble configuration. The seed is fixed so that training on identical
// history always yields an identical model.
const (
	ensembleSize = 100
	randomSeed   = 42
	maxDepth     = 10
	minLeafSize  = 2
)

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

// forest is a bootstrap-aggregated ensemble of regression trees.
type forest struct {
	trees []*treeNode
}

// fitForest trains the ensemble on feature matrix x and target vector y.
// Training is sequential and seeded, hence fully deterministic.
func fitForest(x [][]float64, y []float64) *forest {
	rng := rand.New(rand.NewSource(randomSeed))
	n := len(y)

	f := &forest{trees: make([]*treeNode, 0, ensembleSize)}
	for i := 0; i < ensembleSize; i++ {
		bx := make([][]float64, n)
		by := make([]float64, n)
		for j := 0; j < n; j++ {
			k := rng.Intn(n)
			bx[j] = x[k]
			by[j] = y[k]
		}
		f.trees = append(f.trees, growTree(bx, by, 0))
	}
	return f
}

func (f *forest) predict(features []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.eval(features)
	}
	return sum / float64(len(f.trees))
}

func (t *treeNode) eval(features []float64) float64 {
	for !t.leaf {
		if features[t.feature] <= t.threshold {
			t = t.left
		} else {
			t = t.right
		}
	}
	return t.value
}

func growTree(x [][]float64, y []float64, depth int) *treeNode {
	if len(y) < 2*minLeafSize || depth >= maxDepth || constant(y) {
		return &treeNode{leaf: true, value: stat.Mean(y, nil)}
	}

	feature, threshold, ok := bestSplit(x, y)
	if !ok {
		return &treeNode{leaf: true, value: stat.Mean(y, nil)}
	}

	var lx, rx [][]float64
	var ly, ry []float64
	for i, row := range x {
		if row[feature] <= threshold {
			lx = append(lx, row)
			ly = append(ly, y[i])
		} else {
			rx = append(rx, row)
			ry = append(ry, y[i])
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(lx, ly, depth+1),
		right:     growTree(rx, ry, depth+1),
	}
}

// bestSplit scans every feature and every adjacent-value midpoint for the
// split with the lowest total squared error.
func bestSplit(x [][]float64, y []float64) (int, float64, bool) {
	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)
	nFeatures := len(x[0])

	for feature := 0; feature < nFeatures; feature++ {
		values := make([]float64, len(x))
		for i, row := range x {
			values[i] = row[feature]
		}
		for _, threshold := range midpoints(values) {
			score, ok := splitScore(values, y, threshold)
			if ok && score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func splitScore(values, y []float64, threshold float64) (float64, bool) {
	var left, right []float64
	for i, v := range values {
		if v <= threshold {
			left = append(left, y[i])
		} else {
			right = append(right, y[i])
		}
	}
	if len(left) < minLeafSize || len(right) < minLeafSize {
		return 0, false
	}
	return sse(left) + sse(right), true
}

func sse(y []float64) float64 {
	mean := stat.Mean(y, nil)
	total := 0.0
	for _, v := range y {
		d := v - mean
		total += d * d
	}
	return total
}

func midpoints(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	var mids []float64
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			mids = append(mids, (sorted[i]+sorted[i-1])/2)
		}
	}
	return mids
}

func constant(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}
