package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/randomwalk1225/sport-tennis/atp"
	"github.com/randomwalk1225/sport-tennis/ml"
	"github.com/randomwalk1225/sport-tennis/predict"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Tennis Match Predictor</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
label { display: block; margin-top: 1rem; font-weight: bold; }
input[type=text], select { width: 100%; padding: 0.4rem; margin-top: 0.2rem; }
button { margin-top: 1.5rem; padding: 0.5rem 1.5rem; }
.error { color: #b00020; margin-top: 1rem; }
.result { background: #f0f4f8; padding: 1rem; margin-top: 1.5rem; border-radius: 4px; }
.prob { font-size: 1.4rem; font-weight: bold; }
ul { margin: 0.5rem 0 0 1rem; }
</style>
</head>
<body>
<h1>Tennis Match Predictor</h1>
<form method="post" action="/predict">
<label for="player1">Player 1</label>
<input type="text" id="player1" name="player1" list="players" value="{{.Player1}}" required>
<label for="player2">Player 2</label>
<input type="text" id="player2" name="player2" list="players" value="{{.Player2}}" required>
<datalist id="players">
{{range .Players}}<option value="{{.}}">{{end}}
</datalist>
<label for="surface">Surface</label>
<select id="surface" name="surface">
<option value="Hard">Hard</option>
<option value="Clay">Clay</option>
<option value="Grass">Grass</option>
</select>
<label><input type="checkbox" name="grand_slam" value="true"> Grand Slam</label>
<label><input type="checkbox" name="masters" value="true"> Masters 1000</label>
<button type="submit">Predict</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Result}}
<div class="result">
<h2>{{.Result.Player1.Name}} vs {{.Result.Player2.Name}}</h2>
<p>{{.Result.Tournament}} on {{.Result.Surface}}</p>
<p class="prob">{{.Result.PredictedWinner}} wins with {{.WinPct}} probability</p>
<ul>
{{range .Result.Explanation}}<li>{{.}}</li>{{end}}
</ul>
</div>
{{end}}
</body>
</html>`))

type formPage struct {
	Players []string
	Player1 string
	Player2 string
	Error   string
	Result  *predict.Result
	WinPct  string
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, formPage{Players: h.service.Players().Search("", 500)})
}

func (h *Handlers) handleFormPredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form submission")
		return
	}
	page := formPage{
		Players: h.service.Players().Search("", 500),
		Player1: r.PostFormValue("player1"),
		Player2: r.PostFormValue("player2"),
	}
	if page.Player1 == "" || page.Player2 == "" {
		page.Error = "both player names are required"
		h.renderForm(w, page)
		return
	}

	ctx := ml.MatchContext{
		Surface:     atp.ParseSurface(r.PostFormValue("surface")),
		IsGrandSlam: parseBool(r.PostFormValue("grand_slam")),
		IsMasters:   parseBool(r.PostFormValue("masters")),
	}
	result, err := h.service.Predict(page.Player1, page.Player2, ctx)
	countPrediction(err)
	if err != nil {
		if errors.Is(err, atp.ErrPlayerNotFound) {
			page.Error = err.Error()
			h.renderForm(w, page)
			return
		}
		h.logger.Error("prediction failed", zap.Error(err))
		page.Error = "prediction failed, try again later"
		h.renderForm(w, page)
		return
	}

	h.recordPrediction(result)
	page.Result = &result
	winnerProb := result.P1WinProb
	if result.PredictedWinner == result.Player2.Name {
		winnerProb = result.P2WinProb
	}
	page.WinPct = fmt.Sprintf("%.1f%%", winnerProb*100)
	h.renderForm(w, page)
}

func (h *Handlers) renderForm(w http.ResponseWriter, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, page); err != nil {
		h.logger.Error("form render failed", zap.Error(err))
	}
}
