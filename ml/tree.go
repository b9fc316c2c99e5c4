package ml

import (
	"errors"
	"math"
	"sort"
)

// maxSplitCandidates caps the thresholds evaluated per feature at a node.
// Continuous features fall back to quantile cut points past this count.
const maxSplitCandidates = 32

// regressionTree is one boosting stage: a depth-limited regression tree
// stored as a flat node array (children referenced by index).
type regressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is a single node. Leaves carry the additive output value.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// fitRegressionTree grows a tree predicting targets from features, with leaf
// values replaced by the Newton step leafValue(targets, hessians).
func fitRegressionTree(features [][]float64, targets, hessians []float64, maxDepth int) (*regressionTree, error) {
	if len(features) == 0 || len(features) != len(targets) || len(targets) != len(hessians) {
		return nil, errors.New("features/targets/hessians size mismatch")
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	tree := &regressionTree{}
	tree.Nodes = buildRegressionNode(features, targets, hessians, indices, 0, maxDepth)
	return tree, nil
}

// Predict walks the tree for one feature vector.
func (t *regressionTree) Predict(features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("tree is empty")
	}
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func buildRegressionNode(features [][]float64, targets, hessians []float64, indices []int, depth, maxDepth int) []TreeNode {
	value := leafValue(targets, hessians, indices)
	leaf := []TreeNode{{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		Value:      value,
		IsLeaf:     true,
	}}

	if depth >= maxDepth || len(indices) < 2 {
		return leaf
	}
	bestFeature, threshold, ok := findBestRegressionSplit(features, targets, indices)
	if !ok {
		return leaf
	}

	var left, right []int
	for _, i := range indices {
		if features[i][bestFeature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}

	leftNodes := buildRegressionNode(features, targets, hessians, left, depth+1, maxDepth)
	rightNodes := buildRegressionNode(features, targets, hessians, right, depth+1, maxDepth)

	// Subtree child indices are relative to their own slice; shift them to
	// their position in the flattened array.
	shiftChildren(leftNodes, 1)
	shiftChildren(rightNodes, 1+len(leftNodes))

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
	}
	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

func shiftChildren(nodes []TreeNode, offset int) {
	for i := range nodes {
		if nodes[i].IsLeaf {
			continue
		}
		nodes[i].LeftChild += offset
		nodes[i].RightChild += offset
	}
}

// findBestRegressionSplit scans candidate thresholds per feature and keeps
// the split with the lowest weighted squared error of the targets.
func findBestRegressionSplit(features [][]float64, targets []float64, indices []int) (int, float64, bool) {
	featureCount := len(features[indices[0]])
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		for _, threshold := range splitCandidates(features, indices, featureIdx) {
			var leftSum, leftCount, rightSum, rightCount float64
			for _, i := range indices {
				if features[i][featureIdx] <= threshold {
					leftSum += targets[i]
					leftCount++
				} else {
					rightSum += targets[i]
					rightCount++
				}
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}
			leftMean := leftSum / leftCount
			rightMean := rightSum / rightCount
			var score float64
			for _, i := range indices {
				var diff float64
				if features[i][featureIdx] <= threshold {
					diff = targets[i] - leftMean
				} else {
					diff = targets[i] - rightMean
				}
				score += diff * diff
			}
			if score < bestScore {
				bestScore = score
				bestFeature = featureIdx
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// splitCandidates returns midpoints between adjacent distinct values, thinned
// to quantile cut points when a feature has many distinct values.
func splitCandidates(features [][]float64, indices []int, featureIdx int) []float64 {
	values := make([]float64, 0, len(indices))
	for _, i := range indices {
		values = append(values, features[i][featureIdx])
	}
	sort.Float64s(values)

	distinct := values[:0]
	for i, v := range values {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	if len(distinct) <= maxSplitCandidates {
		candidates := make([]float64, 0, len(distinct)-1)
		for i := 0; i+1 < len(distinct); i++ {
			candidates = append(candidates, (distinct[i]+distinct[i+1])/2)
		}
		return candidates
	}

	candidates := make([]float64, 0, maxSplitCandidates)
	step := float64(len(distinct)-1) / float64(maxSplitCandidates)
	for i := 1; i <= maxSplitCandidates; i++ {
		idx := int(float64(i) * step)
		if idx >= len(distinct)-1 {
			idx = len(distinct) - 2
		}
		candidate := (distinct[idx] + distinct[idx+1]) / 2
		if len(candidates) == 0 || candidate != candidates[len(candidates)-1] {
			candidates = append(candidates, candidate)
		}
	}
	return candidates
}

// leafValue is the Newton step for logistic loss: sum of residuals over sum
// of hessians, clamped away from a zero denominator.
func leafValue(targets, hessians []float64, indices []int) float64 {
	var num, den float64
	for _, i := range indices {
		num += targets[i]
		den += hessians[i]
	}
	if den < 1e-9 {
		return 0
	}
	return num / den
}
