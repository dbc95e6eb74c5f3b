// Package enrich joins compound and target annotations onto the pair table.
package enrich

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/source"

	"golang.org/x/sync/errgroup"
)

// ATCSeparator joins several level 1 ATC codes of one compound.
const ATCSeparator = " | "

// Tables are the raw enrichment query results.
type Tables struct {
	FirstPublications []chembl.FirstPublication
	Properties        []chembl.CompoundProperties
	ATC               []chembl.ATCClassification
	Hierarchy         []chembl.HierarchyEntry
	ParentStructures  []chembl.ParentStructure
	ComponentClasses  []chembl.TargetComponentClass
	ProteinClasses    []chembl.ProteinClass
}

// Load runs the enrichment queries concurrently.
func Load(ctx context.Context, src source.Source) (*Tables, error) {
	t := &Tables{}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		t.FirstPublications, err = src.FirstPublications(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.Properties, err = src.CompoundProperties(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.ATC, err = src.ATCClassifications(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.Hierarchy, err = src.MoleculeHierarchy(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.ParentStructures, err = src.ParentStructures(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.ComponentClasses, err = src.TargetComponentClasses(ctx)
		return err
	})
	eg.Go(func() (err error) {
		t.ProteinClasses, err = src.ProteinClassHierarchy(ctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load enrichment tables: %w", err)
	}
	return t, nil
}

// FirstPublicationMap keeps the earliest year per parent compound.
func FirstPublicationMap(rows []chembl.FirstPublication) map[int64]int64 {
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		if cur, ok := out[r.Molregno]; !ok || r.Year < cur {
			out[r.Molregno] = r.Year
		}
	}
	return out
}

// PropertyMap indexes compound properties by parent molregno.
func PropertyMap(rows []chembl.CompoundProperties) map[int64]chembl.CompoundProperties {
	out := make(map[int64]chembl.CompoundProperties, len(rows))
	for _, r := range rows {
		out[r.Molregno] = r
	}
	return out
}

// ATCMap combines the level 1 codes of a compound as "<code>_<description>"
// sorted alphabetically.
func ATCMap(rows []chembl.ATCClassification) map[int64]string {
	grouped := make(map[int64][]string)
	for _, r := range rows {
		full := r.Level1 + "_" + r.Level1Description
		if !slices.Contains(grouped[r.Molregno], full) {
			grouped[r.Molregno] = append(grouped[r.Molregno], full)
		}
	}
	out := make(map[int64]string, len(grouped))
	for molregno, codes := range grouped {
		slices.Sort(codes)
		out[molregno] = strings.Join(codes, ATCSeparator)
	}
	return out
}

func strPtr(m map[int64]string, k int64) *string {
	v, ok := m[k]
	if !ok {
		return nil
	}
	return &v
}

// AddCompoundProperties sets first_publication_cpd, the compound properties
// and structures, and atc_level1 on every row. The lookups are kept on ds.
func AddCompoundProperties(ds *dataset.Dataset, t *Tables) {
	ds.Lookups.FirstPublications = FirstPublicationMap(t.FirstPublications)
	ds.Lookups.Properties = PropertyMap(t.Properties)
	ds.Lookups.ATC = ATCMap(t.ATC)

	missing := 0
	for _, r := range ds.Records {
		molregno := r.Key.Molregno
		if year, ok := ds.Lookups.FirstPublications[molregno]; ok {
			r.FirstPublicationCpd = &year
		} else {
			r.FirstPublicationCpd = nil
		}
		props, ok := ds.Lookups.Properties[molregno]
		if !ok {
			missing++
		}
		r.Props = props
		r.ATCLevel1 = strPtr(ds.Lookups.ATC, molregno)
	}
	logger.Debug("[Enrich] Compound properties added", "rows", ds.Len(), "without_properties", missing)
}
