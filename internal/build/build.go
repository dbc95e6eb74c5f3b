// Package build wires configuration, source, pipeline and result sinks into
// one dataset build. The command line tool and the queue worker share it.
package build

import (
	"context"
	"fmt"
	"time"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chembl/compound-target-pairs-dataset/internal/config"
	"github.com/chembl/compound-target-pairs-dataset/internal/storage"
	"github.com/chembl/compound-target-pairs-dataset/internal/timing"
	"github.com/chembl/compound-target-pairs-dataset/internal/util"
	"github.com/chembl/compound-target-pairs-dataset/pkg/descriptor"
	"github.com/chembl/compound-target-pairs-dataset/pkg/export"
	"github.com/chembl/compound-target-pairs-dataset/pkg/loader"
	ioloader "github.com/chembl/compound-target-pairs-dataset/pkg/loader/io"
	s3loader "github.com/chembl/compound-target-pairs-dataset/pkg/loader/s3"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/output"
	"github.com/chembl/compound-target-pairs-dataset/pkg/pipeline"
	"github.com/chembl/compound-target-pairs-dataset/pkg/source"
	pgxsource "github.com/chembl/compound-target-pairs-dataset/pkg/source/pgx"
	"github.com/chembl/compound-target-pairs-dataset/pkg/source/sqlite"
)

// Outcome describes a finished build.
type Outcome struct {
	RunID  string
	Result *pipeline.Result
	// Keys are the object keys of uploaded files.
	Keys   []string
	Stages []timing.Stage
}

// Sinks are the optional remote destinations of a build. Nil clients are
// created on demand from the environment.
type Sinks struct {
	S3 *awss3.Client
}

func openSource(ctx context.Context, cfg config.Config) (*source.Client, error) {
	var q source.Querier
	var err error
	if cfg.SqlitePath != "" {
		logger.Info("[Build] Using SQLite ChEMBL", "path", cfg.SqlitePath)
		q, err = sqlite.Open(ctx, cfg.SqlitePath)
	} else {
		logger.Info("[Build] Using Postgres ChEMBL")
		q, err = pgxsource.New(ctx, cfg.DatabaseURL)
	}
	if err != nil {
		return nil, err
	}
	return source.NewClient(source.NewClientParams{
		Querier:        q,
		LiteratureOnly: cfg.LiteratureOnly,
		MaxRetries:     cfg.SourceMaxRetries,
		Backoff:        time.Second,
	}), nil
}

func (s *Sinks) s3Client(ctx context.Context) (*awss3.Client, error) {
	if s.S3 != nil {
		return s.S3, nil
	}
	client, err := storage.NewS3Client(ctx)
	if err != nil {
		return nil, err
	}
	s.S3 = client
	return client, nil
}

func (s *Sinks) descriptors(ctx context.Context, cfg config.Config) (descriptor.Provider, error) {
	if !cfg.CalculateDescriptors {
		return nil, nil
	}
	var l loader.FileLoader = ioloader.NewIOFileLoader()
	if loader.IsS3Path(cfg.DescriptorsPath) {
		client, err := s.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		l = s3loader.NewS3FileLoader(storage.Bucket(), client)
	}
	return descriptor.NewCSVProvider(descriptor.NewCSVProviderParams{
		Loader: l,
		Path:   cfg.DescriptorsPath,
	}), nil
}

// Execute validates cfg, builds the dataset and hands the outputs to the
// configured sinks.
func Execute(ctx context.Context, cfg config.Config, sinks *Sinks) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sinks == nil {
		sinks = &Sinks{}
	}

	runID, err := export.NewRunID()
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}
	logger.Info("[Build] Starting dataset build", "run_id", runID, "chembl", cfg.ChemblVersion, "literature_only", cfg.LiteratureOnly)

	src, err := openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	provider, err := sinks.descriptors(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rec := &timing.Recorder{}
	res, err := pipeline.Run(ctx, pipeline.Params{
		Source:      src,
		Descriptors: provider,
		Writer: output.NewWriter(output.NewWriterParams{
			Dir:            cfg.OutputPath,
			ChemblVersion:  cfg.ChemblVersion,
			LiteratureOnly: cfg.LiteratureOnly,
			Delimiter:      cfg.DelimiterRune(),
		}),
		Timing:         rec,
		MinCompoundsBF: cfg.MinCompoundsBF,
		MinCompoundsB:  cfg.MinCompoundsB,
		WriteBF:        cfg.WriteBF,
		WriteB:         cfg.WriteB,
		WriteFull:      cfg.WriteFull,
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{RunID: runID, Result: res, Stages: rec.Stages()}

	if cfg.UploadS3 {
		client, err := sinks.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		out.Keys, err = storage.UploadFiles(ctx, client, storage.Bucket(), runID, res.Files)
		if err != nil {
			return nil, err
		}
		logger.Info("[Build] Uploaded outputs", "files", len(out.Keys), "prefix", storage.RunKey(runID, ""))
	}

	if cfg.ResultsDatabaseURL != "" {
		if err := exportResults(ctx, cfg, runID, res, out.Stages); err != nil {
			return nil, err
		}
	}

	for _, s := range out.Stages {
		logger.Debug("[Build] Stage time", "stage", s.Name, "rows", s.Rows, "duration", util.FormatDuration(s.Duration))
	}
	logger.Info("[Build] Dataset build finished", "run_id", runID, "duration", util.FormatDuration(rec.Total()))
	return out, nil
}

func exportResults(ctx context.Context, cfg config.Config, runID string, res *pipeline.Result, stages []timing.Stage) error {
	// The results store may still be starting when a worker comes up.
	err := util.RetryErrWithContext(ctx, cfg.SourceMaxRetries, func(ctx context.Context) error {
		return export.Migrate(cfg.ResultsDatabaseURL)
	})
	if err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, cfg.ResultsDatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to results store: %w", err)
	}
	defer pool.Close()

	exporter := export.NewExporter(export.NewExporterParams{Conn: pool})
	ds := res.Dataset
	return exporter.Export(ctx, export.Run{
		ID:             runID,
		ChemblVersion:  cfg.ChemblVersion,
		LiteratureOnly: cfg.LiteratureOnly,
	}, ds.FullColumns(), ds.Records, stages)
}
