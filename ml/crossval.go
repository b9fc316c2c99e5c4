package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// CVResult summarizes a k-fold cross-validation run.
type CVResult struct {
	Folds          int       `json:"folds"`
	FoldAccuracies []float64 `json:"fold_accuracies"`
	Mean           float64   `json:"mean"`
	StdDev         float64   `json:"std_dev"`
}

// CrossValidate estimates accuracy by k-fold cross-validation. The fold
// assignment is shuffled with seed; everything downstream is deterministic,
// so the same seed reproduces the same result exactly.
func CrossValidate(set *TrainingSet, params BoostingParams, folds int, seed int64) (*CVResult, error) {
	if folds < 2 {
		return nil, fmt.Errorf("folds must be at least 2, got %d", folds)
	}
	if set.Len() < folds {
		return nil, fmt.Errorf("%w: %d samples for %d folds", ErrDegenerateData, set.Len(), folds)
	}

	rnd := rand.New(rand.NewSource(seed))
	order := rnd.Perm(set.Len())

	result := &CVResult{Folds: folds, FoldAccuracies: make([]float64, 0, folds)}
	foldSize := set.Len() / folds
	for fold := 0; fold < folds; fold++ {
		start := fold * foldSize
		end := start + foldSize
		if fold == folds-1 {
			end = set.Len()
		}

		holdout := make(map[int]bool, end-start)
		for _, idx := range order[start:end] {
			holdout[idx] = true
		}

		var trainX [][]float64
		var trainY []int
		var testX [][]float64
		var testY []int
		for i := 0; i < set.Len(); i++ {
			if holdout[i] {
				testX = append(testX, set.Features[i])
				testY = append(testY, set.Labels[i])
			} else {
				trainX = append(trainX, set.Features[i])
				trainY = append(trainY, set.Labels[i])
			}
		}

		model := NewGradientBoosting(params)
		if err := model.Train(trainX, trainY); err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		result.FoldAccuracies = append(result.FoldAccuracies, Accuracy(model, testX, testY))
	}

	var sum float64
	for _, acc := range result.FoldAccuracies {
		sum += acc
	}
	result.Mean = sum / float64(len(result.FoldAccuracies))

	var variance float64
	for _, acc := range result.FoldAccuracies {
		diff := acc - result.Mean
		variance += diff * diff
	}
	result.StdDev = math.Sqrt(variance / float64(len(result.FoldAccuracies)))
	return result, nil
}

// Accuracy is the fraction of samples the model labels correctly.
func Accuracy(model *GradientBoosting, features [][]float64, labels []int) float64 {
	if len(features) == 0 {
		return 0
	}
	var correct int
	for i, f := range features {
		label, _, err := model.Predict(f)
		if err != nil {
			continue
		}
		if (label == 1) == (labels[i] == 1) {
			correct++
		}
	}
	return float64(correct) / float64(len(features))
}

// SplitDataset shuffles with seed and carves off testRatio of the samples as
// a held-out set.
func SplitDataset(set *TrainingSet, testRatio float64, seed int64) (train, test *TrainingSet) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	order := rnd.Perm(set.Len())

	split := int(math.Round(float64(set.Len()) * (1 - testRatio)))
	train = &TrainingSet{}
	test = &TrainingSet{}
	for i, idx := range order {
		if i < split {
			train.Features = append(train.Features, set.Features[idx])
			train.Labels = append(train.Labels, set.Labels[idx])
		} else {
			test.Features = append(test.Features, set.Features[idx])
			test.Labels = append(test.Labels, set.Labels[idx])
		}
	}
	return train, test
}
