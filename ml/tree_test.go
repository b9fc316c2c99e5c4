package ml

import (
	"testing"
)

func TestFitRegressionTreeFitsTargets(t *testing.T) {
	// Unit hessians make leaf values plain target means, so a tree deep
	// enough to isolate every sample must reproduce each target exactly.
	features := [][]float64{{0}, {1}, {2}, {3}, {4}, {5}, {6}, {7}}
	targets := []float64{-2, -1.5, -1, -0.5, 0.5, 1, 1.5, 2}
	hessians := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	tree, err := fitRegressionTree(features, targets, hessians, 4)
	if err != nil {
		t.Fatalf("fitRegressionTree failed: %v", err)
	}
	for i, f := range features {
		got, err := tree.Predict(f)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if got != targets[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, targets[i], got)
		}
	}
}

func TestFitRegressionTreeDepthLimit(t *testing.T) {
	features := [][]float64{{0}, {1}, {2}, {3}}
	targets := []float64{0, 0, 1, 1}
	hessians := []float64{1, 1, 1, 1}

	tree, err := fitRegressionTree(features, targets, hessians, 1)
	if err != nil {
		t.Fatalf("fitRegressionTree failed: %v", err)
	}
	// Depth 1 allows one split: a root and two leaves.
	if len(tree.Nodes) != 3 {
		t.Errorf("Expected 3 nodes at depth 1, got %d", len(tree.Nodes))
	}

	left, _ := tree.Predict([]float64{0})
	right, _ := tree.Predict([]float64{3})
	if left != 0 || right != 1 {
		t.Errorf("Expected leaf means 0 and 1, got %f and %f", left, right)
	}
}

func TestFitRegressionTreeNoSplit(t *testing.T) {
	// Constant features admit no split; the tree degenerates to one leaf.
	features := [][]float64{{5}, {5}, {5}}
	targets := []float64{1, 2, 3}
	hessians := []float64{1, 1, 1}

	tree, err := fitRegressionTree(features, targets, hessians, 3)
	if err != nil {
		t.Fatalf("fitRegressionTree failed: %v", err)
	}
	if len(tree.Nodes) != 1 || !tree.Nodes[0].IsLeaf {
		t.Fatalf("Expected a single leaf, got %d nodes", len(tree.Nodes))
	}
	got, _ := tree.Predict([]float64{5})
	if got != 2 {
		t.Errorf("Expected the mean target 2, got %f", got)
	}
}
