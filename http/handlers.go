package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/db"
	"github.com/randomwalk1225/sport-tennis/ml"
	"github.com/randomwalk1225/sport-tennis/monitoring"
	"github.com/randomwalk1225/sport-tennis/predict"
)

// PredictionService is the model-facing surface the handlers need.
type PredictionService interface {
	Predict(player1, player2 string, ctx ml.MatchContext) (predict.Result, error)
	Players() *atp.PlayerTable
	Artifact() *ml.Artifact
}

// Handlers binds the prediction service and live hub to HTTP routes.
type Handlers struct {
	service PredictionService
	hub     *monitoring.Hub
	logger  *zap.Logger
	started time.Time
}

// NewHandlers wires the route handlers. hub may be nil when live streaming
// is disabled.
func NewHandlers(service PredictionService, hub *monitoring.Hub, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
	}
}

// Register attaches all routes to the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleFormPredict)

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/players", h.handlePlayers)
	mux.HandleFunc("GET /api/players/{name}", h.handlePlayer)
	mux.HandleFunc("GET /api/players/{name}/stats", h.handlePlayerStats)
	mux.HandleFunc("GET /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/h2h", h.handleHeadToHead)
	mux.HandleFunc("GET /api/training/runs", h.handleTrainingRuns)
	mux.HandleFunc("GET /api/ws/predictions", h.handleWebSocket)

	mux.Handle("GET /metrics", MetricsHandler())
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	artifact := h.service.Artifact()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"players":        h.service.Players().Len(),
		"model": map[string]any{
			"trained_at":  artifact.TrainedAt,
			"samples":     artifact.Samples,
			"cv_accuracy": artifact.CVAccuracy,
		},
	})
}

func (h *Handlers) handlePlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	names := h.service.Players().Search(query, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(names),
		"players": names,
	})
}

func (h *Handlers) handlePlayer(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Players().Lookup(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) handlePlayerStats(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Players().Lookup(r.PathValue("name"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	n := 10
	if raw := r.URL.Query().Get("last"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	form, err := db.QueryPlayerForm(profile, n)
	if err != nil {
		h.logger.Error("player form query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load player stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": profile,
		"form":    form,
	})
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	p1 := params.Get("p1")
	p2 := params.Get("p2")
	if p1 == "" || p2 == "" {
		writeError(w, http.StatusBadRequest, "p1 and p2 are required")
		return
	}

	ctx := ml.MatchContext{
		Surface:     atp.ParseSurface(params.Get("surface")),
		IsGrandSlam: parseBool(params.Get("grand_slam")),
		IsMasters:   parseBool(params.Get("masters")),
	}

	result, err := h.service.Predict(p1, p2, ctx)
	countPrediction(err)
	if err != nil {
		if errors.Is(err, atp.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	h.recordPrediction(result)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleHeadToHead(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	p1, err := h.service.Players().Lookup(params.Get("p1"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	p2, err := h.service.Players().Lookup(params.Get("p2"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	record, err := db.QueryHeadToHead(p1, p2)
	if err != nil {
		h.logger.Error("head-to-head query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load head-to-head record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handlers) handleTrainingRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := db.LoadTrainingRuns()
	if err != nil {
		h.logger.Error("training runs query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load training runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live predictions disabled")
		return
	}
	h.hub.HandleWebSocket(w, r)
}

// recordPrediction persists the served prediction and fans it out to live
// subscribers. Failures here never fail the request.
func (h *Handlers) recordPrediction(result predict.Result) {
	if err := db.SavePrediction(
		result.PredictionID,
		result.Player1.Name,
		result.Player2.Name,
		string(result.Surface),
		result.P1WinProb,
	); err != nil {
		h.logger.Warn("prediction log write failed", zap.Error(err))
	}
	if h.hub != nil {
		h.hub.PublishPrediction(result)
	}
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(raw)
	return err == nil && value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
