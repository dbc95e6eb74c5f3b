// Package source reads the ChEMBL tables the dataset is built from.
package source

import (
	"context"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
)

// Source is the read-only view of a ChEMBL database.
type Source interface {
	// ActivityRecords returns valid, non-duplicate, exact-relation pchembl
	// measurements on protein targets with compounds resolved to parents.
	ActivityRecords(ctx context.Context) ([]chembl.ActivityRecord, error)
	// KnownInteractions returns disease-relevant drug_mechanism pairs.
	KnownInteractions(ctx context.Context) ([]chembl.KnownInteraction, error)
	TargetRelations(ctx context.Context) ([]chembl.TargetRelation, error)
	Compounds(ctx context.Context) ([]chembl.Compound, error)
	Targets(ctx context.Context) ([]chembl.Target, error)
	FirstPublications(ctx context.Context) ([]chembl.FirstPublication, error)
	CompoundProperties(ctx context.Context) ([]chembl.CompoundProperties, error)
	ATCClassifications(ctx context.Context) ([]chembl.ATCClassification, error)
	MoleculeHierarchy(ctx context.Context) ([]chembl.HierarchyEntry, error)
	ParentStructures(ctx context.Context) ([]chembl.ParentStructure, error)
	TargetComponentClasses(ctx context.Context) ([]chembl.TargetComponentClass, error)
	ProteinClassHierarchy(ctx context.Context) ([]chembl.ProteinClass, error)
}

// Rows is the cursor subset shared by pgx and database/sql.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Querier runs a query and hands the open cursor to fn. Implementations
// close the cursor after fn returns.
type Querier interface {
	Query(ctx context.Context, sql string, fn func(Rows) error) error
	Close()
}
