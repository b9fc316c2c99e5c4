package predict

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randomwalk1225/sport-tennis/ml"
)

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o600)
}

func TestWatchModelReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	first := testArtifact(t)
	if err := ml.SaveModel(path, first.Model, first.Samples, 0.8, 0.01); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}
	loaded, err := ml.LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	predictor, err := New(testPlayers(), loaded, 16, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	watcher, err := WatchModel(predictor, path, nil)
	if err != nil {
		t.Fatalf("WatchModel failed: %v", err)
	}
	defer watcher.Stop()

	// Rewriting the artifact must swap in a new one.
	if err := ml.SaveModel(path, first.Model, first.Samples, 0.9, 0.01); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if predictor.Artifact() != loaded {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Model was not reloaded after the artifact changed")
		case <-time.After(50 * time.Millisecond):
		}
	}
	if got := predictor.Artifact().CVAccuracy; got != 0.9 {
		t.Errorf("Expected the rewritten artifact loaded, got cv_accuracy %f", got)
	}
}

func TestWatchModelKeepsCurrentOnBadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	artifact := testArtifact(t)
	if err := ml.SaveModel(path, artifact.Model, artifact.Samples, 0.8, 0.01); err != nil {
		t.Fatalf("SaveModel failed: %v", err)
	}
	loaded, err := ml.LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}

	predictor, err := New(testPlayers(), loaded, 16, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	watcher, err := WatchModel(predictor, path, nil)
	if err != nil {
		t.Fatalf("WatchModel failed: %v", err)
	}
	defer watcher.Stop()

	watcher.reload() // direct call avoids filesystem timing

	// Corrupt artifact: reload must keep the current model.
	if err := writeFile(path, "not json"); err != nil {
		t.Fatal(err)
	}
	watcher.reload()
	if predictor.Artifact() == nil {
		t.Fatal("Predictor lost its model after a bad reload")
	}
}
