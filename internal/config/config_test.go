package config

import (
	"errors"
	"testing"
)

func valid() Config {
	return Config{
		SqlitePath:       "chembl_35.db",
		ChemblVersion:    "35",
		LiteratureOnly:   true,
		MinCompoundsBF:   100,
		MinCompoundsB:    100,
		OutputPath:       "out",
		Delimiter:        ";",
		WriteFull:        true,
		SourceMaxRetries: 3,
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CHEMBL_VERSION", "35")
	t.Setenv("SQLITE_PATH", "chembl_35.db")
	t.Setenv("OUTPUT_PATH", "out")
	t.Setenv("DATABASE_URL", "")

	c := FromEnv()
	if !c.LiteratureOnly || !c.WriteFull || c.WriteBF || c.WriteB {
		t.Fatalf("unexpected flags: %+v", c)
	}
	if c.MinCompoundsBF != DefaultMinCompounds || c.MinCompoundsB != DefaultMinCompounds {
		t.Fatalf("thresholds = %d, %d", c.MinCompoundsBF, c.MinCompoundsB)
	}
	if c.DelimiterRune() != ';' {
		t.Fatalf("delimiter = %q", c.DelimiterRune())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ALL_SOURCES", "true")
	t.Setenv("MIN_COMPOUNDS_B", "50")
	t.Setenv("DELIMITER", ",")

	c := FromEnv()
	if c.LiteratureOnly {
		t.Fatal("ALL_SOURCES should disable the literature filter")
	}
	if c.MinCompoundsB != 50 || c.DelimiterRune() != ',' {
		t.Fatalf("overrides not applied: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing version", func(c *Config) { c.ChemblVersion = "" }},
		{"no source", func(c *Config) { c.SqlitePath = "" }},
		{"two sources", func(c *Config) { c.DatabaseURL = "postgres://localhost/chembl" }},
		{"zero threshold", func(c *Config) { c.MinCompoundsBF = 0 }},
		{"missing output", func(c *Config) { c.OutputPath = "" }},
		{"long delimiter", func(c *Config) { c.Delimiter = ";;" }},
		{"quote delimiter", func(c *Config) { c.Delimiter = `"` }},
		{"descriptors without path", func(c *Config) { c.CalculateDescriptors = true }},
		{"too many retries", func(c *Config) { c.SourceMaxRetries = 50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid for %s, got %v", tt.name, err)
			}
		})
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}
