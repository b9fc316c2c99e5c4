package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ArtifactVersion is the on-disk schema version. Bump it whenever the feature
// ordering or the tree encoding changes.
const ArtifactVersion = 1

const modelTypeGradientBoosting = "gradient_boosting"

// ErrFeatureMismatch means a saved model disagrees with this binary's feature
// schema. It is a configuration bug, detected when the artifact is loaded
// rather than at prediction time.
var ErrFeatureMismatch = errors.New("model feature schema mismatch")

// Model is the read-only inference surface the predictor consumes.
type Model interface {
	PredictProba(features []float64) (float64, error)
}

// Artifact is the serialized form of a trained model: the classifier plus
// the exact feature ordering it was fitted against and training metadata.
type Artifact struct {
	Version      int               `json:"version"`
	ModelType    string            `json:"model_type"`
	FeatureNames []string          `json:"feature_names"`
	Model        *GradientBoosting `json:"model"`
	TrainedAt    time.Time         `json:"trained_at"`
	Samples      int               `json:"samples"`
	CVAccuracy   float64           `json:"cv_accuracy"`
	CVStdDev     float64           `json:"cv_std_dev"`
}

// SaveModel writes the artifact for a trained booster.
func SaveModel(path string, model *GradientBoosting, samples int, cvAccuracy, cvStdDev float64) error {
	if model == nil || len(model.Trees) == 0 {
		return errors.New("model not trained")
	}
	artifact := Artifact{
		Version:      ArtifactVersion,
		ModelType:    modelTypeGradientBoosting,
		FeatureNames: FeatureNames(),
		Model:        model,
		TrainedAt:    time.Now().UTC(),
		Samples:      samples,
		CVAccuracy:   cvAccuracy,
		CVStdDev:     cvStdDev,
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// LoadModel reads an artifact and verifies its schema against this binary.
// Version or feature-ordering disagreement is ErrFeatureMismatch.
func LoadModel(path string) (*Artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if artifact.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: artifact version %d, want %d", ErrFeatureMismatch, artifact.Version, ArtifactVersion)
	}
	if artifact.ModelType != modelTypeGradientBoosting {
		return nil, fmt.Errorf("unsupported model type %q", artifact.ModelType)
	}
	if err := checkFeatureNames(artifact.FeatureNames); err != nil {
		return nil, err
	}
	if artifact.Model == nil || len(artifact.Model.Trees) == 0 {
		return nil, errors.New("artifact contains no trained model")
	}
	return &artifact, nil
}

func checkFeatureNames(names []string) error {
	expected := FeatureNames()
	if len(names) != len(expected) {
		return fmt.Errorf("%w: artifact has %d features, builder emits %d", ErrFeatureMismatch, len(names), len(expected))
	}
	for i, name := range expected {
		if names[i] != name {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrFeatureMismatch, i, names[i], name)
		}
	}
	return nil
}
