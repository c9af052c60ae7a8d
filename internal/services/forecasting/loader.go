package forecasting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domsvc "WikiSeer/internal/domain/service"
)

const formatVersion = 1

// metadata describes a serialized predictor bundle.
type metadata struct {
	FormatVersion    int       `json:"format_version"`
	Freq             string    `json:"freq"`
	PredictionLength int       `json:"prediction_length"`
	Quantiles        []float64 `json:"quantiles"`
}

type parameters struct {
	Series map[string]seriesParams `json:"series"`
	Global *seriesParams           `json:"global"`
}

// ArtifactLoader deserializes a staged artifact directory (metadata.json +
// parameters.json) into a Predictor.
type ArtifactLoader struct{}

func NewArtifactLoader() *ArtifactLoader { return &ArtifactLoader{} }

func (ArtifactLoader) Load(dir string) (domsvc.Predictor, error) {
	var meta metadata
	if err := readJSON(filepath.Join(dir, "metadata.json"), &meta); err != nil {
		return nil, err
	}
	if meta.FormatVersion != formatVersion {
		return nil, fmt.Errorf("unsupported format_version %d", meta.FormatVersion)
	}
	if meta.Freq != "D" {
		return nil, fmt.Errorf("unsupported freq %q", meta.Freq)
	}
	if meta.PredictionLength <= 0 {
		return nil, fmt.Errorf("invalid prediction_length %d", meta.PredictionLength)
	}
	if len(meta.Quantiles) != 3 {
		return nil, fmt.Errorf("expected 3 quantiles, got %d", len(meta.Quantiles))
	}

	var params parameters
	if err := readJSON(filepath.Join(dir, "parameters.json"), &params); err != nil {
		return nil, err
	}
	if params.Global == nil {
		return nil, fmt.Errorf("parameters missing global entry")
	}
	if params.Series == nil {
		params.Series = make(map[string]seriesParams)
	}

	return &quantilePredictor{
		series:  params.Series,
		global:  *params.Global,
		horizon: meta.PredictionLength,
	}, nil
}

func readJSON(path string, dest interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
