// Command train ingests match CSV files, trains the gradient boosting
// model and writes the versioned artifact the server loads.
package main

import (
	"errors"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/config"
	"github.com/randomwalk1225/sport-tennis/db"
	"github.com/randomwalk1225/sport-tennis/logging"
	"github.com/randomwalk1225/sport-tennis/ml"
	"github.com/randomwalk1225/sport-tennis/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dataDir := flag.String("data", "", "override the match CSV directory")
	modelPath := flag.String("out", "", "override the model output path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			panic("failed to load config: " + err.Error())
		}
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()

	matches, err := atp.LoadMatches(cfg.Data.Dir, cfg.Data.FromYear, cfg.Data.ToYear)
	if err != nil {
		logger.Fatal("match ingest failed", zap.String("dir", cfg.Data.Dir), zap.Error(err))
	}
	logger.Info("matches loaded", zap.Int("count", len(matches)))

	cleaner := pipeline.NewMatchCleaner(matches, logger)
	cleaned, stats := cleaner.Clean(matches)
	if len(cleaned) == 0 {
		logger.Fatal("no matches survived cleaning",
			zap.Int("total", stats.TotalProcessed),
			zap.Int("rejected", stats.Rejected))
	}

	table := atp.BuildPlayerTable(cleaned)
	if err := db.SaveMatches(cleaned); err != nil {
		logger.Warn("match history save failed", zap.Error(err))
	}
	if err := db.SavePlayers(table.Profiles()); err != nil {
		logger.Warn("player snapshot save failed", zap.Error(err))
	}

	set, err := ml.BuildTrainingSet(cleaned)
	if err != nil {
		logger.Fatal("training set build failed", zap.Error(err))
	}
	logger.Info("training set built", zap.Int("samples", set.Len()))

	params := ml.BoostingParams{
		Estimators:   cfg.Training.Estimators,
		MaxDepth:     cfg.Training.MaxDepth,
		LearningRate: cfg.Training.LearningRate,
	}

	cv, err := ml.CrossValidate(set, params, cfg.Training.Folds, cfg.Training.Seed)
	if err != nil {
		logger.Fatal("cross-validation failed", zap.Error(err))
	}
	logger.Info("cross-validation complete",
		zap.Int("folds", cv.Folds),
		zap.Float64("mean_accuracy", cv.Mean),
		zap.Float64("std_dev", cv.StdDev))

	train, test := ml.SplitDataset(set, cfg.Training.TestRatio, cfg.Training.Seed)
	holdout := ml.NewGradientBoosting(params)
	if err := holdout.Train(train.Features, train.Labels); err != nil {
		logger.Fatal("holdout training failed", zap.Error(err))
	}
	testAccuracy := ml.Accuracy(holdout, test.Features, test.Labels)
	logger.Info("holdout evaluation", zap.Float64("test_accuracy", testAccuracy))

	// The shipped model is refit on every sample once evaluation is done.
	final := ml.NewGradientBoosting(params)
	if err := final.Train(set.Features, set.Labels); err != nil {
		logger.Fatal("final training failed", zap.Error(err))
	}
	if err := ml.SaveModel(cfg.Model.Path, final, set.Len(), cv.Mean, cv.StdDev); err != nil {
		logger.Fatal("model save failed", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	logger.Info("model saved", zap.String("path", cfg.Model.Path))

	if err := db.SaveTrainingRun(db.TrainingRun{
		ModelPath:    cfg.Model.Path,
		Estimators:   params.Estimators,
		MaxDepth:     params.MaxDepth,
		LearningRate: params.LearningRate,
		Samples:      set.Len(),
		CVAccuracy:   cv.Mean,
		CVStdDev:     cv.StdDev,
		TestAccuracy: testAccuracy,
		TrainedAt:    time.Now().UTC(),
	}); err != nil {
		logger.Warn("training run record failed", zap.Error(err))
	}
}
