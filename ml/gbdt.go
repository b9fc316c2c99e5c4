package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateData marks a training set the booster cannot fit: empty, or
// containing only one class. Training aborts and no artifact is written.
var ErrDegenerateData = errors.New("degenerate training data")

// BoostingParams are the gradient boosting hyperparameters.
type BoostingParams struct {
	Estimators   int     `json:"estimators"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
}

// DefaultBoostingParams mirrors the configuration the reference model was
// fitted with: 100 stages of depth-5 trees at a 0.1 learning rate.
func DefaultBoostingParams() BoostingParams {
	return BoostingParams{Estimators: 100, MaxDepth: 5, LearningRate: 0.1}
}

// GradientBoosting is a binary classifier built as an additive ensemble of
// regression trees fitted to logistic-loss gradients. Once trained (or
// loaded) it is immutable and safe for concurrent readers.
type GradientBoosting struct {
	Params    BoostingParams    `json:"params"`
	BaseScore float64           `json:"base_score"`
	Trees     []*regressionTree `json:"trees"`
}

// NewGradientBoosting returns an untrained booster; zero or negative
// parameter fields fall back to the defaults.
func NewGradientBoosting(params BoostingParams) *GradientBoosting {
	def := DefaultBoostingParams()
	if params.Estimators <= 0 {
		params.Estimators = def.Estimators
	}
	if params.MaxDepth <= 0 {
		params.MaxDepth = def.MaxDepth
	}
	if params.LearningRate <= 0 {
		params.LearningRate = def.LearningRate
	}
	return &GradientBoosting{Params: params}
}

// Train fits the ensemble on binary labels (0 or 1). Tree construction is
// deterministic; repeated calls on the same data produce the same model.
func (gb *GradientBoosting) Train(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return fmt.Errorf("%w: empty dataset", ErrDegenerateData)
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}

	var positives int
	for _, label := range labels {
		if label != 0 && label != 1 {
			return fmt.Errorf("label out of range: %d", label)
		}
		positives += label
	}
	if positives == 0 || positives == len(labels) {
		return fmt.Errorf("%w: single class", ErrDegenerateData)
	}

	prior := float64(positives) / float64(len(labels))
	gb.BaseScore = math.Log(prior / (1 - prior))
	gb.Trees = make([]*regressionTree, 0, gb.Params.Estimators)

	scores := make([]float64, len(labels))
	for i := range scores {
		scores[i] = gb.BaseScore
	}

	residuals := make([]float64, len(labels))
	hessians := make([]float64, len(labels))
	for stage := 0; stage < gb.Params.Estimators; stage++ {
		for i, label := range labels {
			p := sigmoid(scores[i])
			residuals[i] = float64(label) - p
			hessians[i] = p * (1 - p)
		}
		tree, err := fitRegressionTree(features, residuals, hessians, gb.Params.MaxDepth)
		if err != nil {
			return fmt.Errorf("fit stage %d: %w", stage, err)
		}
		gb.Trees = append(gb.Trees, tree)
		for i := range scores {
			step, err := tree.Predict(features[i])
			if err != nil {
				return fmt.Errorf("apply stage %d: %w", stage, err)
			}
			scores[i] += gb.Params.LearningRate * step
		}
	}
	return nil
}

// PredictProba returns the probability of class 1 for one feature vector.
func (gb *GradientBoosting) PredictProba(features []float64) (float64, error) {
	if len(gb.Trees) == 0 {
		return 0, errors.New("model not trained")
	}
	score := gb.BaseScore
	for _, tree := range gb.Trees {
		step, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		score += gb.Params.LearningRate * step
	}
	return sigmoid(score), nil
}

// Predict returns the class label (0 or 1) and the winning probability.
func (gb *GradientBoosting) Predict(features []float64) (int, float64, error) {
	p, err := gb.PredictProba(features)
	if err != nil {
		return 0, 0, err
	}
	if p >= 0.5 {
		return 1, p, nil
	}
	return 0, 1 - p, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
