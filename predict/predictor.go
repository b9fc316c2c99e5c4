// Package predict resolves player matchups into win-probability estimates.
package predict

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/ml"
)

// Result is a single prediction: both resolved profiles, the win
// probabilities and a plain-language explanation. It is never persisted
// beyond the prediction log.
type Result struct {
	PredictionID    string            `json:"prediction_id"`
	Player1         atp.PlayerProfile `json:"player1"`
	Player2         atp.PlayerProfile `json:"player2"`
	P1WinProb       float64           `json:"p1_win_prob"`
	P2WinProb       float64           `json:"p2_win_prob"`
	PredictedWinner string            `json:"predicted_winner"`
	Surface         atp.Surface       `json:"surface"`
	Tournament      string            `json:"tournament"`
	Explanation     []string          `json:"explanation"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// Predictor serves stateless win-probability requests against a read-only
// model. The model is swapped whole on reload, so concurrent requests never
// observe a partially updated model.
type Predictor struct {
	players *atp.PlayerTable
	model   atomic.Pointer[ml.Artifact]
	cache   *lru.Cache[string, Result]
	logger  *zap.Logger
}

// New builds a predictor over the given player table and loaded artifact.
// cacheSize bounds the memoized results; identical requests within the cache
// window are answered without re-running the model.
func New(players *atp.PlayerTable, artifact *ml.Artifact, cacheSize int, logger *zap.Logger) (*Predictor, error) {
	if players == nil || players.Len() == 0 {
		return nil, fmt.Errorf("player table is empty")
	}
	if artifact == nil {
		return nil, fmt.Errorf("model artifact is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, Result](cacheSize)
	if err != nil {
		return nil, err
	}

	p := &Predictor{players: players, cache: cache, logger: logger}
	p.model.Store(artifact)
	return p, nil
}

// SwapModel atomically replaces the model and drops memoized results.
func (p *Predictor) SwapModel(artifact *ml.Artifact) {
	p.model.Store(artifact)
	p.cache.Purge()
	p.logger.Info("model swapped",
		zap.Time("trained_at", artifact.TrainedAt),
		zap.Float64("cv_accuracy", artifact.CVAccuracy))
}

// Artifact returns the currently loaded artifact metadata.
func (p *Predictor) Artifact() *ml.Artifact {
	return p.model.Load()
}

// Players exposes the read-only profile table.
func (p *Predictor) Players() *atp.PlayerTable {
	return p.players
}

// Predict resolves both names, builds the feature vector and returns the
// win-probability estimate. An unknown player is the only recoverable
// failure (atp.ErrPlayerNotFound).
func (p *Predictor) Predict(player1, player2 string, ctx ml.MatchContext) (Result, error) {
	profile1, err := p.players.Lookup(player1)
	if err != nil {
		return Result{}, err
	}
	profile2, err := p.players.Lookup(player2)
	if err != nil {
		return Result{}, err
	}

	key := cacheKey(profile1.Name, profile2.Name, ctx)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	features := ml.BuildFeatures(profile1, profile2, ctx)
	prob, err := p.model.Load().Model.PredictProba(features.Vector())
	if err != nil {
		return Result{}, fmt.Errorf("predict %s vs %s: %w", profile1.Name, profile2.Name, err)
	}

	result := Result{
		PredictionID: uuid.NewString(),
		Player1:      profile1,
		Player2:      profile2,
		P1WinProb:    prob,
		P2WinProb:    1 - prob,
		Surface:      ctx.Surface,
		Tournament:   tournamentLabel(ctx),
		Explanation:  explain(profile1, profile2, ctx, prob),
		GeneratedAt:  time.Now().UTC(),
	}
	if prob >= 0.5 {
		result.PredictedWinner = profile1.Name
	} else {
		result.PredictedWinner = profile2.Name
	}

	p.cache.Add(key, result)
	p.logger.Debug("prediction served",
		zap.String("player1", profile1.Name),
		zap.String("player2", profile2.Name),
		zap.Float64("p1_win_prob", prob))
	return result, nil
}

func tournamentLabel(ctx ml.MatchContext) string {
	switch {
	case ctx.IsGrandSlam:
		return "Grand Slam"
	case ctx.IsMasters:
		return "Masters 1000"
	default:
		return "Regular"
	}
}

func cacheKey(p1, p2 string, ctx ml.MatchContext) string {
	return strings.Join([]string{
		p1, p2, string(ctx.Surface),
		fmt.Sprintf("%t|%t", ctx.IsGrandSlam, ctx.IsMasters),
	}, "|")
}
