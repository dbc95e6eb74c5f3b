package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chembl/compound-target-pairs-dataset/internal/build"
	"github.com/chembl/compound-target-pairs-dataset/internal/config"
	"github.com/chembl/compound-target-pairs-dataset/internal/util"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger/console"
)

type flags struct {
	chemblVersion string
	sqlitePath    string
	outputPath    string
	delimiter     string
	allSources    bool
	descriptors   string
	writeBF       bool
	writeB        bool
	minBF         int
	minB          int
	debug         bool
}

// apply overrides cfg with every flag set on the command line.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("chembl") {
		cfg.ChemblVersion = f.chemblVersion
	}
	if changed("sqlite") {
		cfg.SqlitePath = f.sqlitePath
		cfg.DatabaseURL = ""
	}
	if changed("output") {
		cfg.OutputPath = f.outputPath
	}
	if changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}
	if changed("all_sources") {
		cfg.LiteratureOnly = !f.allSources
	}
	if changed("descriptors") {
		cfg.CalculateDescriptors = f.descriptors != ""
		cfg.DescriptorsPath = f.descriptors
	}
	if changed("BF") {
		cfg.WriteBF = f.writeBF
	}
	if changed("B") {
		cfg.WriteB = f.writeB
	}
	if changed("min-compounds-bf") {
		cfg.MinCompoundsBF = f.minBF
	}
	if changed("min-compounds-b") {
		cfg.MinCompoundsB = f.minB
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
}

func newRootCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cti",
		Short: "Extract the compound-target pairs dataset from ChEMBL",
		Long: `cti builds the compound-target interaction dataset from a ChEMBL database.
The full dataset with the binding and binding+functional filtering columns is
always written; the subsets are written on request.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			f.apply(cmd, &cfg)

			logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
				Debug: cfg.Debug,
			}))

			_, err := build.Execute(cmd.Context(), cfg, nil)
			return err
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.chemblVersion, "chembl", "v", "", "ChEMBL version used in output file names (required)")
	fl.StringVarP(&f.sqlitePath, "sqlite", "s", "", "path to a ChEMBL SQLite file; DATABASE_URL is used if unset")
	fl.StringVarP(&f.outputPath, "output", "o", "", "directory to write the output files to (required)")
	fl.StringVarP(&f.delimiter, "delimiter", "d", ";", "delimiter in output files")
	fl.BoolVar(&f.allSources, "all_sources", false, "use all ChEMBL sources instead of literature data only")
	fl.StringVar(&f.descriptors, "descriptors", "", "table of precomputed descriptors keyed by canonical SMILES")
	fl.BoolVar(&f.writeBF, "BF", false, "write the binding+functional subsets")
	fl.BoolVar(&f.writeB, "B", false, "write the binding subsets")
	fl.IntVar(&f.minBF, "min-compounds-bf", config.DefaultMinCompounds, "minimum compounds per target in the BF subsets")
	fl.IntVar(&f.minB, "min-compounds-b", config.DefaultMinCompounds, "minimum compounds per target in the B subsets")
	fl.BoolVar(&f.debug, "debug", false, "log debugging information and write the size traces")
	return cmd
}

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&flags{}).ExecuteContext(ctx); err != nil {
		logger.Error("Dataset build failed", "err", err)
		os.Exit(1)
	}
}
