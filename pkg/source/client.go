package source

import (
	"context"
	"fmt"
	"time"

	"github.com/chembl/compound-target-pairs-dataset/internal/util"
	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// Client implements Source on top of a Querier. The SQL is shared by all
// backends.
type Client struct {
	q              Querier
	literatureOnly bool
	maxRetries     int
	backoff        time.Duration
}

// NewClientParams configures a Client.
type NewClientParams struct {
	Querier Querier
	// LiteratureOnly restricts activities and documents to the scientific
	// literature (docs.src_id = 1).
	LiteratureOnly bool
	// MaxRetries bounds attempts per query. Defaults to 1.
	MaxRetries int
	Backoff    time.Duration
}

func NewClient(params NewClientParams) *Client {
	return &Client{
		q:              params.Querier,
		literatureOnly: params.LiteratureOnly,
		maxRetries:     params.MaxRetries,
		backoff:        params.Backoff,
	}
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.q.Close()
}

func collect[T any](ctx context.Context, c *Client, name string, query string, scan func(Rows) (T, error)) ([]T, error) {
	start := time.Now()
	out, err := util.RetryWithBackoff(ctx, c.maxRetries, c.backoff, func(ctx context.Context) ([]T, error) {
		var out []T
		err := c.q.Query(ctx, query, func(rows Rows) error {
			for rows.Next() {
				v, err := scan(rows)
				if err != nil {
					return err
				}
				out = append(out, v)
			}
			return rows.Err()
		})
		if err != nil {
			logger.Warn("[Source] Query failed", "query", name, "err", err)
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	logger.Debug("[Source] Query done", "query", name, "rows", len(out), "duration", time.Since(start))
	return out, nil
}

func (c *Client) literature(query string) string {
	if c.literatureOnly {
		return query + literatureFilter
	}
	return query
}

func (c *Client) ActivityRecords(ctx context.Context) ([]chembl.ActivityRecord, error) {
	return collect(ctx, c, "activities", c.literature(activitiesSQL), func(rows Rows) (chembl.ActivityRecord, error) {
		var rec chembl.ActivityRecord
		var assayType string
		err := rows.Scan(
			&rec.PchemblValue,
			&rec.Compound.Molregno, &rec.Compound.ChemblID, &rec.Compound.PrefName,
			&rec.Compound.MaxPhase, &rec.Compound.FirstApproval, &rec.Compound.UsanYear, &rec.Compound.BlackBoxWarning,
			&rec.Compound.Prodrug, &rec.Compound.Oral, &rec.Compound.Parenteral, &rec.Compound.Topical,
			&assayType, &rec.Target.Tid,
			&rec.Mutation,
			&rec.Target.ChemblID, &rec.Target.PrefName, &rec.Target.TargetType, &rec.Target.Organism,
			&rec.Year,
		)
		rec.AssayType = chembl.AssayType(assayType)
		return rec, err
	})
}

func (c *Client) KnownInteractions(ctx context.Context) ([]chembl.KnownInteraction, error) {
	return collect(ctx, c, "drug_mechanism", knownInteractionsSQL, func(rows Rows) (chembl.KnownInteraction, error) {
		var ki chembl.KnownInteraction
		err := rows.Scan(&ki.Molregno, &ki.Tid)
		return ki, err
	})
}

func (c *Client) TargetRelations(ctx context.Context) ([]chembl.TargetRelation, error) {
	return collect(ctx, c, "target_relations", targetRelationsSQL, func(rows Rows) (chembl.TargetRelation, error) {
		var tr chembl.TargetRelation
		err := rows.Scan(&tr.Tid, &tr.Relationship, &tr.RelatedTid, &tr.TargetType, &tr.RelatedTargetType)
		return tr, err
	})
}

func scanCompound(rows Rows) (chembl.Compound, error) {
	var cpd chembl.Compound
	err := rows.Scan(
		&cpd.Molregno, &cpd.ChemblID, &cpd.PrefName,
		&cpd.MaxPhase, &cpd.FirstApproval, &cpd.UsanYear, &cpd.BlackBoxWarning,
		&cpd.Prodrug, &cpd.Oral, &cpd.Parenteral, &cpd.Topical,
	)
	return cpd, err
}

func (c *Client) Compounds(ctx context.Context) ([]chembl.Compound, error) {
	return collect(ctx, c, "molecule_dictionary", compoundsSQL, scanCompound)
}

func (c *Client) Targets(ctx context.Context) ([]chembl.Target, error) {
	return collect(ctx, c, "target_dictionary", targetsSQL, func(rows Rows) (chembl.Target, error) {
		var t chembl.Target
		err := rows.Scan(&t.Tid, &t.ChemblID, &t.PrefName, &t.TargetType, &t.Organism)
		return t, err
	})
}

func (c *Client) FirstPublications(ctx context.Context) ([]chembl.FirstPublication, error) {
	query := c.literature(firstPublicationsSQL) + firstPublicationsGroupBy
	return collect(ctx, c, "first_publications", query, func(rows Rows) (chembl.FirstPublication, error) {
		var fp chembl.FirstPublication
		err := rows.Scan(&fp.Molregno, &fp.Year)
		return fp, err
	})
}

func (c *Client) CompoundProperties(ctx context.Context) ([]chembl.CompoundProperties, error) {
	return collect(ctx, c, "compound_properties", compoundPropertiesSQL, func(rows Rows) (chembl.CompoundProperties, error) {
		var p chembl.CompoundProperties
		err := rows.Scan(
			&p.Molregno,
			&p.MwFreebase, &p.Alogp, &p.Hba, &p.Hbd, &p.Psa, &p.Rtb, &p.Ro3Pass, &p.NumRo5Violations,
			&p.CxMostApka, &p.CxMostBpka, &p.CxLogp, &p.CxLogd, &p.MolecularSpecies, &p.FullMwt,
			&p.AromaticRings, &p.HeavyAtoms, &p.QedWeighted, &p.MwMonoisotopic, &p.FullMolformula,
			&p.HbaLipinski, &p.HbdLipinski, &p.NumLipinskiRo5Violations,
			&p.StandardInchi, &p.StandardInchiKey, &p.CanonicalSmiles,
		)
		return p, err
	})
}

func (c *Client) ATCClassifications(ctx context.Context) ([]chembl.ATCClassification, error) {
	return collect(ctx, c, "atc_classification", atcSQL, func(rows Rows) (chembl.ATCClassification, error) {
		var a chembl.ATCClassification
		err := rows.Scan(&a.Molregno, &a.Level1, &a.Level1Description)
		return a, err
	})
}

func (c *Client) MoleculeHierarchy(ctx context.Context) ([]chembl.HierarchyEntry, error) {
	return collect(ctx, c, "molecule_hierarchy", hierarchySQL, func(rows Rows) (chembl.HierarchyEntry, error) {
		var h chembl.HierarchyEntry
		err := rows.Scan(&h.Molregno, &h.ParentMolregno)
		return h, err
	})
}

func (c *Client) ParentStructures(ctx context.Context) ([]chembl.ParentStructure, error) {
	return collect(ctx, c, "parent_structures", parentStructuresSQL, func(rows Rows) (chembl.ParentStructure, error) {
		var s chembl.ParentStructure
		err := rows.Scan(&s.ParentMolregno, &s.CanonicalSmiles)
		return s, err
	})
}

func (c *Client) TargetComponentClasses(ctx context.Context) ([]chembl.TargetComponentClass, error) {
	return collect(ctx, c, "component_class", componentClassesSQL, func(rows Rows) (chembl.TargetComponentClass, error) {
		var tc chembl.TargetComponentClass
		err := rows.Scan(&tc.Tid, &tc.ProteinClassID)
		return tc, err
	})
}

func (c *Client) ProteinClassHierarchy(ctx context.Context) ([]chembl.ProteinClass, error) {
	return collect(ctx, c, "protein_classification", proteinClassHierarchySQL, func(rows Rows) (chembl.ProteinClass, error) {
		var pc chembl.ProteinClass
		err := rows.Scan(&pc.ProteinClassID, &pc.ParentID, &pc.ClassLevel, &pc.Names)
		return pc, err
	})
}

var _ Source = (*Client)(nil)
