package forecasting

import (
	"context"
	"fmt"

	"WikiSeer/internal/domain/models"
	domsvc "WikiSeer/internal/domain/service"
)

// seriesParams are the fitted parameters for one title: a base level, a
// per-step linear trend, a day-of-week multiplier, and multiplicative
// quantile scales around the median.
type seriesParams struct {
	Level      float64   `json:"level"`
	Trend      float64   `json:"trend"`
	Seasonal   []float64 `json:"seasonal"`
	LowerScale float64   `json:"lower_scale"`
	UpperScale float64   `json:"upper_scale"`
}

// quantilePredictor is the concrete Predictor backend. Its parameters come
// from a published artifact; the training procedure that produced them is an
// external collaborator. Output is the model's raw floats, no clamping.
type quantilePredictor struct {
	series  map[string]seriesParams
	global  seriesParams
	horizon int
}

func (p *quantilePredictor) Predict(ctx context.Context, history []models.SeriesPoint, horizon int) (median, lower, upper []float64, err error) {
	if len(history) == 0 {
		return nil, nil, nil, fmt.Errorf("empty history")
	}
	if horizon <= 0 {
		horizon = p.horizon
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	params, ok := p.series[history[0].Title]
	if !ok {
		params = p.global
	}

	last := history[len(history)-1]
	median = make([]float64, 0, horizon)
	lower = make([]float64, 0, horizon)
	upper = make([]float64, 0, horizon)
	for i := 1; i <= horizon; i++ {
		day := last.Date.AddDate(0, 0, i)
		m := params.Level + params.Trend*float64(i)
		if len(params.Seasonal) == 7 {
			m *= params.Seasonal[int(day.Weekday())]
		}
		median = append(median, m)
		lower = append(lower, m*params.LowerScale)
		upper = append(upper, m*params.UpperScale)
	}
	return median, lower, upper, nil
}

var _ domsvc.Predictor = (*quantilePredictor)(nil)
