package forecasting

import (
	"os"
	"path/filepath"
	"testing"
)

const validMetadata = `{"format_version":1,"freq":"D","prediction_length":7,"quantiles":[0.1,0.5,0.9]}`

const validParameters = `{
	"series": {
		"Go_(programming_language)": {"level": 1200, "trend": 3, "seasonal": [1,1,1,1,1,0.8,0.7], "lower_scale": 0.8, "upper_scale": 1.25}
	},
	"global": {"level": 500, "trend": 0, "seasonal": [], "lower_scale": 0.7, "upper_scale": 1.4}
}`

func writeArtifact(t *testing.T, metadata, parameters string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "parameters.json"), []byte(parameters), 0o644); err != nil {
		t.Fatalf("write parameters: %v", err)
	}
	return dir
}

func TestLoadValidArtifact(t *testing.T) {
	dir := writeArtifact(t, validMetadata, validParameters)
	pred, err := NewArtifactLoader().Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if pred == nil {
		t.Fatalf("expected predictor")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	dir := writeArtifact(t, `{"format_version":2,"freq":"D","prediction_length":7,"quantiles":[0.1,0.5,0.9]}`, validParameters)
	if _, err := NewArtifactLoader().Load(dir); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestLoadRejectsNonDailyFreq(t *testing.T) {
	dir := writeArtifact(t, `{"format_version":1,"freq":"H","prediction_length":7,"quantiles":[0.1,0.5,0.9]}`, validParameters)
	if _, err := NewArtifactLoader().Load(dir); err == nil {
		t.Fatalf("expected freq error")
	}
}

func TestLoadRequiresGlobalParams(t *testing.T) {
	dir := writeArtifact(t, validMetadata, `{"series":{}}`)
	if _, err := NewArtifactLoader().Load(dir); err == nil {
		t.Fatalf("expected missing global error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewArtifactLoader().Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
