package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/config"
	"github.com/randomwalk1225/sport-tennis/db"
	thttp "github.com/randomwalk1225/sport-tennis/http"
	"github.com/randomwalk1225/sport-tennis/logging"
	"github.com/randomwalk1225/sport-tennis/ml"
	"github.com/randomwalk1225/sport-tennis/monitoring"
	"github.com/randomwalk1225/sport-tennis/pipeline"
	"github.com/randomwalk1225/sport-tennis/predict"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			panic("failed to load config: " + err.Error())
		}
	}

	logger := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logger.Sync()

	if err := db.InitDB(cfg.Database.Path); err != nil {
		logger.Fatal("database init failed", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", cfg.Database.Path))

	players, err := loadPlayerTable(cfg, logger)
	if err != nil {
		logger.Fatal("player data unavailable", zap.Error(err))
	}
	logger.Info("player table ready", zap.Int("players", players.Len()))

	artifact, err := ml.LoadModel(cfg.Model.Path)
	if err != nil {
		if errors.Is(err, ml.ErrFeatureMismatch) {
			logger.Fatal("model artifact is incompatible with the current feature schema; retrain",
				zap.String("path", cfg.Model.Path), zap.Error(err))
		}
		logger.Fatal("model load failed", zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Time("trained_at", artifact.TrainedAt),
		zap.Float64("cv_accuracy", artifact.CVAccuracy))

	predictor, err := predict.New(players, artifact, cfg.Cache.Size, logger)
	if err != nil {
		logger.Fatal("predictor init failed", zap.Error(err))
	}

	if cfg.Model.Watch {
		watcher, err := predict.WatchModel(predictor, cfg.Model.Path, logger)
		if err != nil {
			logger.Warn("model watch disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	hub := monitoring.NewHub(logger)
	go hub.Start()
	defer hub.Stop()

	handlers := thttp.NewHandlers(predictor, hub, logger)
	server := thttp.NewServer(thttp.ServerConfig{
		Port:           cfg.HTTP.Port,
		Timeout:        time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, handlers, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("serving", zap.String("addr", server.Addr()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

// loadPlayerTable prefers the database snapshot and falls back to a fresh
// CSV ingest when the snapshot is empty.
func loadPlayerTable(cfg *config.Config, logger *zap.Logger) (*atp.PlayerTable, error) {
	profiles, err := db.LoadPlayers()
	if err != nil {
		return nil, err
	}
	if len(profiles) > 0 {
		return atp.NewPlayerTable(profiles), nil
	}

	logger.Info("no player snapshot, ingesting match files",
		zap.String("dir", cfg.Data.Dir),
		zap.Int("from_year", cfg.Data.FromYear),
		zap.Int("to_year", cfg.Data.ToYear))

	matches, err := atp.LoadMatches(cfg.Data.Dir, cfg.Data.FromYear, cfg.Data.ToYear)
	if err != nil {
		return nil, err
	}
	cleaner := pipeline.NewMatchCleaner(matches, logger)
	cleaned, stats := cleaner.Clean(matches)
	logger.Info("match files cleaned",
		zap.Int("kept", stats.Passed),
		zap.Int("rejected", stats.Rejected))

	table := atp.BuildPlayerTable(cleaned)
	if err := db.SavePlayers(table.Profiles()); err != nil {
		logger.Warn("player snapshot save failed", zap.Error(err))
	}
	if err := db.SaveMatches(cleaned); err != nil {
		logger.Warn("match history save failed", zap.Error(err))
	}
	return table, nil
}
