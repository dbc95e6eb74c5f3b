// Package descriptor hands canonical SMILES to an external descriptor
// calculator and joins the precomputed results back onto the table.
package descriptor

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/loader"
	loadercsv "github.com/chembl/compound-target-pairs-dataset/pkg/loader/csv"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

// SmilesColumn keys descriptor tables.
const SmilesColumn = "canonical_smiles"

// Provider returns the descriptors of the requested SMILES. SMILES without a
// result are left out of the map.
type Provider interface {
	Descriptors(ctx context.Context, smiles []string) (map[string]dataset.Descriptors, error)
}

// SmilesSet returns the distinct canonical SMILES of ds in sorted order.
func SmilesSet(ds *dataset.Dataset) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range ds.Records {
		s := r.Props.CanonicalSmiles
		if s == nil {
			continue
		}
		if _, ok := seen[*s]; ok {
			continue
		}
		seen[*s] = struct{}{}
		out = append(out, *s)
	}
	slices.Sort(out)
	return out
}

// Apply sets the descriptor columns of every row from p and marks the
// descriptors as loaded.
func Apply(ctx context.Context, ds *dataset.Dataset, p Provider) error {
	smiles := SmilesSet(ds)
	found, err := p.Descriptors(ctx, smiles)
	if err != nil {
		return fmt.Errorf("failed to get descriptors: %w", err)
	}
	for _, r := range ds.Records {
		r.Descriptors = dataset.Descriptors{}
		if r.Props.CanonicalSmiles == nil {
			continue
		}
		if d, ok := found[*r.Props.CanonicalSmiles]; ok {
			r.Descriptors = d
		}
	}
	ds.DescriptorsLoaded = true
	logger.Debug("[Descriptor] Descriptors joined", "smiles", len(smiles), "found", len(found))
	return nil
}

type setter func(d *dataset.Descriptors, v string) error

func intField(field func(d *dataset.Descriptors) **int64) setter {
	return func(d *dataset.Descriptors, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// calculators writing through a float column emit "3.0"
			fv, ferr := strconv.ParseFloat(v, 64)
			if ferr != nil || fv != float64(int64(fv)) {
				return err
			}
			n = int64(fv)
		}
		*field(d) = &n
		return nil
	}
}

func floatField(field func(d *dataset.Descriptors) **float64) setter {
	return func(d *dataset.Descriptors, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(d) = &f
		return nil
	}
}

func stringField(field func(d *dataset.Descriptors) **string) setter {
	return func(d *dataset.Descriptors, v string) error {
		*field(d) = &v
		return nil
	}
}

var setters = map[string]setter{
	"fraction_csp3":              floatField(func(d *dataset.Descriptors) **float64 { return &d.FractionCsp3 }),
	"ring_count":                 intField(func(d *dataset.Descriptors) **int64 { return &d.RingCount }),
	"num_aliphatic_rings":        intField(func(d *dataset.Descriptors) **int64 { return &d.NumAliphaticRings }),
	"num_aliphatic_carbocycles":  intField(func(d *dataset.Descriptors) **int64 { return &d.NumAliphaticCarbocycles }),
	"num_aliphatic_heterocycles": intField(func(d *dataset.Descriptors) **int64 { return &d.NumAliphaticHeterocycles }),
	"num_aromatic_rings":         intField(func(d *dataset.Descriptors) **int64 { return &d.NumAromaticRings }),
	"num_aromatic_carbocycles":   intField(func(d *dataset.Descriptors) **int64 { return &d.NumAromaticCarbocycles }),
	"num_aromatic_heterocycles":  intField(func(d *dataset.Descriptors) **int64 { return &d.NumAromaticHeterocycles }),
	"num_saturated_rings":        intField(func(d *dataset.Descriptors) **int64 { return &d.NumSaturatedRings }),
	"num_saturated_carbocycles":  intField(func(d *dataset.Descriptors) **int64 { return &d.NumSaturatedCarbocycles }),
	"num_saturated_heterocycles": intField(func(d *dataset.Descriptors) **int64 { return &d.NumSaturatedHeterocycles }),
	"num_stereocentres":          intField(func(d *dataset.Descriptors) **int64 { return &d.NumStereocentres }),
	"num_heteroatoms":            intField(func(d *dataset.Descriptors) **int64 { return &d.NumHeteroatoms }),
	"aromatic_atoms":             intField(func(d *dataset.Descriptors) **int64 { return &d.AromaticAtoms }),
	"aromatic_c":                 intField(func(d *dataset.Descriptors) **int64 { return &d.AromaticC }),
	"aromatic_n":                 intField(func(d *dataset.Descriptors) **int64 { return &d.AromaticN }),
	"aromatic_hetero":            intField(func(d *dataset.Descriptors) **int64 { return &d.AromaticHetero }),
	"scaffold_w_stereo":          stringField(func(d *dataset.Descriptors) **string { return &d.ScaffoldWStereo }),
	"scaffold_wo_stereo":         stringField(func(d *dataset.Descriptors) **string { return &d.ScaffoldWoStereo }),
}

// CSVProvider reads descriptors from a table with a canonical_smiles column
// and one column per descriptor. Empty cells are nil.
type CSVProvider struct {
	loader    loader.FileLoader
	path      string
	delimiter rune
}

type NewCSVProviderParams struct {
	Loader    loader.FileLoader
	Path      string
	Delimiter rune
}

func NewCSVProvider(params NewCSVProviderParams) *CSVProvider {
	delimiter := params.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVProvider{loader: params.Loader, path: params.Path, delimiter: delimiter}
}

// Descriptors implements Provider.
func (p *CSVProvider) Descriptors(ctx context.Context, smiles []string) (map[string]dataset.Descriptors, error) {
	content, err := p.loader.GetFile(ctx, p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptors from %s: %w", p.path, err)
	}
	table, err := loadercsv.ParseCSV(content, p.delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse descriptors from %s: %w", p.path, err)
	}

	smilesIdx := table.Index(SmilesColumn)
	if smilesIdx < 0 {
		return nil, fmt.Errorf("descriptor table %s has no %s column", p.path, SmilesColumn)
	}
	for _, col := range dataset.DescriptorColumns {
		if table.Index(col.Name) < 0 {
			return nil, fmt.Errorf("descriptor table %s has no %s column", p.path, col.Name)
		}
	}

	wanted := make(map[string]struct{}, len(smiles))
	for _, s := range smiles {
		wanted[s] = struct{}{}
	}

	out := make(map[string]dataset.Descriptors, len(smiles))
	for n, row := range table.Rows {
		key := row[smilesIdx]
		if _, ok := wanted[key]; !ok {
			continue
		}
		var d dataset.Descriptors
		for i, name := range table.Header {
			set, ok := setters[name]
			if !ok || row[i] == "" {
				continue
			}
			if err := set(&d, row[i]); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", n+1, name, err)
			}
		}
		out[key] = d
	}
	return out, nil
}
