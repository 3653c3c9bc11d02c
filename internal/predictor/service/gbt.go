package service

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mercadolito/strategia/internal/config"
)

// gbtRegressor is a least-squares gradient-boosted ensemble of depth-limited
// regression trees. Row subsampling uses the caller's seeded generator so a
// fitted model is a pure function of (data, hyperparameters, seed).
type gbtRegressor struct {
	estimators   int
	maxDepth     int
	learningRate float64
	subsample    float64

	base  float64
	trees []*treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func newGBT(cfg config.PredictorConfig) *gbtRegressor {
	return &gbtRegressor{
		estimators:   cfg.Estimators,
		maxDepth:     cfg.MaxDepth,
		learningRate: cfg.LearningRate,
		subsample:    cfg.Subsample,
	}
}

func (g *gbtRegressor) fit(matrix [][]float64, target []float64, rng *rand.Rand) {
	n := len(target)
	if n == 0 {
		return
	}

	g.base = mean(target)
	preds := make([]float64, n)
	for i := range preds {
		preds[i] = g.base
	}

	residuals := make([]float64, n)
	sampleSize := int(math.Round(g.subsample * float64(n)))
	if sampleSize < 1 {
		sampleSize = 1
	}

	g.trees = make([]*treeNode, 0, g.estimators)
	for round := 0; round < g.estimators; round++ {
		for i := range residuals {
			residuals[i] = target[i] - preds[i]
		}

		indices := sampleIndices(n, sampleSize, rng)
		tree := buildTree(matrix, residuals, indices, 0, g.maxDepth)
		g.trees = append(g.trees, tree)

		for i, row := range matrix {
			preds[i] += g.learningRate * tree.predict(row)
		}
	}
}

func (g *gbtRegressor) predict(row []float64) float64 {
	out := g.base
	for _, tree := range g.trees {
		out += g.learningRate * tree.predict(row)
	}
	return out
}

func (g *gbtRegressor) predictBatch(matrix [][]float64) []float64 {
	out := make([]float64, len(matrix))
	for i, row := range matrix {
		out[i] = g.predict(row)
	}
	return out
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// sampleIndices draws sampleSize distinct row indices without replacement.
func sampleIndices(n, sampleSize int, rng *rand.Rand) []int {
	if sampleSize >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	perm := rng.Perm(n)
	idx := perm[:sampleSize]
	sort.Ints(idx)
	return idx
}

// buildTree fits one regression tree on the residuals restricted to idx,
// greedily choosing the split with the largest squared-error reduction.
func buildTree(matrix [][]float64, residuals []float64, idx []int, depth, maxDepth int) *treeNode {
	leafValue := meanAt(residuals, idx)
	if depth >= maxDepth || len(idx) < 2 {
		return &treeNode{leaf: true, value: leafValue}
	}

	feature, threshold, ok := bestSplit(matrix, residuals, idx)
	if !ok {
		return &treeNode{leaf: true, value: leafValue}
	}

	var left, right []int
	for _, i := range idx {
		if matrix[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &treeNode{leaf: true, value: leafValue}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(matrix, residuals, left, depth+1, maxDepth),
		right:     buildTree(matrix, residuals, right, depth+1, maxDepth),
	}
}

type splitCandidate struct {
	value  float64
	target float64
}

func bestSplit(matrix [][]float64, residuals []float64, idx []int) (feature int, threshold float64, ok bool) {
	if len(idx) == 0 {
		return 0, 0, false
	}
	nFeatures := len(matrix[idx[0]])

	total := 0.0
	for _, i := range idx {
		total += residuals[i]
	}
	n := float64(len(idx))
	baseScore := total * total / n

	bestGain := 1e-12
	candidates := make([]splitCandidate, len(idx))

	for f := 0; f < nFeatures; f++ {
		for k, i := range idx {
			candidates[k] = splitCandidate{value: matrix[i][f], target: residuals[i]}
		}
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].value < candidates[b].value })

		leftSum, leftN := 0.0, 0.0
		for k := 0; k < len(candidates)-1; k++ {
			leftSum += candidates[k].target
			leftN++
			if candidates[k].value == candidates[k+1].value {
				continue
			}
			rightSum := total - leftSum
			rightN := n - leftN
			gain := leftSum*leftSum/leftN + rightSum*rightSum/rightN - baseScore
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (candidates[k].value + candidates[k+1].value) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAt(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

func meanAbsError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

func rSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	avg := mean(actual)
	ssRes, ssTot := 0.0, 0.0
	for i := range actual {
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		ssTot += (actual[i] - avg) * (actual[i] - avg)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
