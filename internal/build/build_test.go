package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chembl/compound-target-pairs-dataset/internal/config"
)

func TestExecuteRejectsInvalidConfig(t *testing.T) {
	if _, err := Execute(context.Background(), config.Config{}, nil); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestExecuteMissingSqliteFile(t *testing.T) {
	cfg := config.Config{
		SqlitePath:       filepath.Join(t.TempDir(), "missing.db"),
		ChemblVersion:    "35",
		MinCompoundsBF:   100,
		MinCompoundsB:    100,
		OutputPath:       t.TempDir(),
		Delimiter:        ";",
		SourceMaxRetries: 1,
	}
	if _, err := Execute(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for a missing ChEMBL file")
	}
}

func TestDescriptorsDisabled(t *testing.T) {
	p, err := (&Sinks{}).descriptors(context.Background(), config.Config{})
	if err != nil || p != nil {
		t.Fatalf("descriptors() = %v, %v, want nil provider", p, err)
	}
}

func TestDescriptorsFromLocalFile(t *testing.T) {
	p, err := (&Sinks{}).descriptors(context.Background(), config.Config{
		CalculateDescriptors: true,
		DescriptorsPath:      "descriptors.csv",
	})
	if err != nil || p == nil {
		t.Fatalf("descriptors() = %v, %v, want a provider", p, err)
	}
}
