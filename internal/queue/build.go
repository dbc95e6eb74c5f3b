package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chembl/compound-target-pairs-dataset/internal/build"
	"github.com/chembl/compound-target-pairs-dataset/internal/config"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// ErrInvalidRequest is wrapped by every error about a malformed message.
var ErrInvalidRequest = errors.New("invalid build request")

// requestIDPattern keeps request ids usable as a single path element.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// BuildRequest is the body of a dataset_queue message. Unset fields keep the
// worker's environment configuration.
type BuildRequest struct {
	RequestID      string `json:"request_id"`
	ChemblVersion  string `json:"chembl_version,omitempty"`
	AllSources     *bool  `json:"all_sources,omitempty"`
	WriteBF        *bool  `json:"write_bf,omitempty"`
	WriteB         *bool  `json:"write_b,omitempty"`
	MinCompoundsBF *int   `json:"min_compounds_bf,omitempty"`
	MinCompoundsB  *int   `json:"min_compounds_b,omitempty"`
}

// BuildCompleted is published on CompletedTopic after a build.
type BuildCompleted struct {
	RequestID     string   `json:"request_id"`
	RunID         string   `json:"run_id"`
	ChemblVersion string   `json:"chembl_version"`
	Pairs         int      `json:"pairs"`
	Keys          []string `json:"keys,omitempty"`
}

// Apply overrides cfg with the fields set in r. Each request writes to its
// own directory below the configured output path.
func (r *BuildRequest) Apply(cfg *config.Config) error {
	if err := r.validate(); err != nil {
		return err
	}
	if r.ChemblVersion != "" {
		cfg.ChemblVersion = r.ChemblVersion
	}
	if r.AllSources != nil {
		cfg.LiteratureOnly = !*r.AllSources
	}
	if r.WriteBF != nil {
		cfg.WriteBF = *r.WriteBF
	}
	if r.WriteB != nil {
		cfg.WriteB = *r.WriteB
	}
	if r.MinCompoundsBF != nil {
		cfg.MinCompoundsBF = *r.MinCompoundsBF
	}
	if r.MinCompoundsB != nil {
		cfg.MinCompoundsB = *r.MinCompoundsB
	}
	cfg.OutputPath = filepath.Join(cfg.OutputPath, r.RequestID)
	return nil
}

func (r *BuildRequest) validate() error {
	if !requestIDPattern.MatchString(r.RequestID) {
		return fmt.Errorf("%w: request_id %q", ErrInvalidRequest, r.RequestID)
	}
	return nil
}

// ParseBuildRequest decodes a dataset_queue message body. The request id is
// required and limited to letters, digits, '_' and '-'.
func ParseBuildRequest(msg []byte) (*BuildRequest, error) {
	req := new(BuildRequest)
	if err := json.Unmarshal(msg, req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// ProcessBuildMessage runs one dataset build and announces the result.
func ProcessBuildMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	ch Publisher,
	base config.Config,
	msg []byte,
) error {
	req, err := ParseBuildRequest(msg)
	if err != nil {
		return err
	}
	cfg := base
	if err := req.Apply(&cfg); err != nil {
		return err
	}
	logger.Info("[Queue] Building dataset", "request_id", req.RequestID, "chembl", cfg.ChemblVersion)

	out, err := build.Execute(ctx, cfg, &build.Sinks{S3: s3Client})
	if err != nil {
		return fmt.Errorf("build %s failed: %w", req.RequestID, err)
	}

	done, err := json.Marshal(BuildCompleted{
		RequestID:     req.RequestID,
		RunID:         out.RunID,
		ChemblVersion: cfg.ChemblVersion,
		Pairs:         out.Result.Dataset.Len(),
		Keys:          out.Keys,
	})
	if err != nil {
		return err
	}
	if err := PublishTopic(ch, CompletedTopic, done); err != nil {
		logger.Warn("[Queue] Failed to publish completion", "request_id", req.RequestID, "err", err)
	}
	return nil
}
