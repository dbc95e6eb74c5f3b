// Package config collects the settings of a dataset build from the
// environment. Command line flags and queue messages override single fields
// before the result is validated.
package config

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator"

	"github.com/chembl/compound-target-pairs-dataset/internal/util"
	"github.com/chembl/compound-target-pairs-dataset/pkg/output"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// DefaultMinCompounds is the per-target compound threshold of the subsets.
const DefaultMinCompounds = 100

type Config struct {
	// Exactly one of DatabaseURL and SqlitePath names the ChEMBL source.
	DatabaseURL string
	SqlitePath  string

	ChemblVersion  string `validate:"required"`
	LiteratureOnly bool

	CalculateDescriptors bool
	DescriptorsPath      string

	MinCompoundsBF int `validate:"min=1"`
	MinCompoundsB  int `validate:"min=1"`

	OutputPath string `validate:"required"`
	Delimiter  string `validate:"required"`
	WriteBF    bool
	WriteB     bool
	WriteFull  bool

	SourceMaxRetries int `validate:"min=1,max=20"`

	UploadS3           bool
	ResultsDatabaseURL string

	Debug bool
}

// FromEnv reads every setting from the environment, falling back to the
// defaults of a literature-only build.
func FromEnv() Config {
	return Config{
		DatabaseURL:          util.GetEnvString("DATABASE_URL", ""),
		SqlitePath:           util.GetEnvString("SQLITE_PATH", ""),
		ChemblVersion:        util.GetEnvString("CHEMBL_VERSION", ""),
		LiteratureOnly:       !util.GetEnvBool("ALL_SOURCES", false),
		CalculateDescriptors: util.GetEnvBool("CALCULATE_DESCRIPTORS", false),
		DescriptorsPath:      util.GetEnvString("DESCRIPTORS_PATH", ""),
		MinCompoundsBF:       util.GetEnvInt("MIN_COMPOUNDS_BF", DefaultMinCompounds),
		MinCompoundsB:        util.GetEnvInt("MIN_COMPOUNDS_B", DefaultMinCompounds),
		OutputPath:           util.GetEnvString("OUTPUT_PATH", ""),
		Delimiter:            util.GetEnvString("DELIMITER", string(output.DefaultDelimiter)),
		WriteBF:              util.GetEnvBool("WRITE_BF", false),
		WriteB:               util.GetEnvBool("WRITE_B", false),
		WriteFull:            util.GetEnvBool("WRITE_FULL_DATASET", true),
		SourceMaxRetries:     util.GetEnvInt("SOURCE_MAX_RETRIES", 3),
		UploadS3:             util.GetEnvBool("UPLOAD_S3", false),
		ResultsDatabaseURL:   util.GetEnvString("RESULTS_DATABASE_URL", ""),
		Debug:                util.GetEnvBool("DEBUG", false),
	}
}

// Validate checks the struct tags and the rules between fields.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if (c.DatabaseURL == "") == (c.SqlitePath == "") {
		return fmt.Errorf("%w: set exactly one of DATABASE_URL and SQLITE_PATH", ErrInvalid)
	}
	if c.CalculateDescriptors && c.DescriptorsPath == "" {
		return fmt.Errorf("%w: DESCRIPTORS_PATH is required to add descriptors", ErrInvalid)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter %q must be a single character", ErrInvalid, c.Delimiter)
	}
	switch d := c.DelimiterRune(); d {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("%w: delimiter %q cannot separate fields", ErrInvalid, d)
	}
	return nil
}

// DelimiterRune returns the output field separator.
func (c Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
