// Package interaction merges the drug_mechanism interactions into the pair
// table.
package interaction

import (
	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

const (
	SupersetOf   = "SUPERSET OF"
	EquivalentTo = "EQUIVALENT TO"

	SingleProtein = "SINGLE PROTEIN"
)

// Mapping is a relation type that propagates a known interaction from the
// related target on the left to the single protein on the right.
type Mapping struct {
	TargetType   string
	Relationship string
}

// Mappings are the relation types followed during expansion.
var Mappings = []Mapping{
	{TargetType: "PROTEIN FAMILY", Relationship: SupersetOf},
	{TargetType: "PROTEIN COMPLEX", Relationship: SupersetOf},
	{TargetType: "PROTEIN COMPLEX GROUP", Relationship: SupersetOf},
	{TargetType: SingleProtein, Relationship: EquivalentTo},
	{TargetType: "CHIMERIC PROTEIN", Relationship: SupersetOf},
	{TargetType: "PROTEIN-PROTEIN INTERACTION", Relationship: SupersetOf},
}

// Follows reports whether rel propagates interactions.
func Follows(rel chembl.TargetRelation) bool {
	if rel.RelatedTargetType != SingleProtein {
		return false
	}
	for _, m := range Mappings {
		if rel.TargetType == m.TargetType && rel.Relationship == m.Relationship {
			return true
		}
	}
	return false
}

// KnownSet holds mutation free known pairs and the targets involved.
type KnownSet struct {
	Pairs   map[dataset.PairKey]struct{}
	Targets map[int64]struct{}

	// order keeps insertion order so appended rows are deterministic
	// before the final sort.
	order []dataset.PairKey
}

func newKnownSet() *KnownSet {
	return &KnownSet{
		Pairs:   make(map[dataset.PairKey]struct{}),
		Targets: make(map[int64]struct{}),
	}
}

func (k *KnownSet) add(molregno, tid int64) {
	key := dataset.PairKey{Molregno: molregno, Tid: tid}
	if _, ok := k.Pairs[key]; ok {
		return
	}
	k.Pairs[key] = struct{}{}
	k.Targets[tid] = struct{}{}
	k.order = append(k.order, key)
}

// Contains reports whether the mutation free part of key is known.
func (k *KnownSet) Contains(key dataset.PairKey) bool {
	_, ok := k.Pairs[key.Unmutated()]
	return ok
}

// Keys returns the known pairs in insertion order.
func (k *KnownSet) Keys() []dataset.PairKey {
	return k.order
}

// Expand adds to the known interactions every single protein reachable in
// one hop through a followed relation. Relations are not chased further.
func Expand(known []chembl.KnownInteraction, relations []chembl.TargetRelation) *KnownSet {
	related := make(map[int64][]int64)
	for _, rel := range relations {
		if Follows(rel) {
			related[rel.Tid] = append(related[rel.Tid], rel.RelatedTid)
		}
	}

	set := newKnownSet()
	for _, ki := range known {
		set.add(ki.Molregno, ki.Tid)
	}
	direct := len(set.order)
	for _, ki := range known {
		for _, tid := range related[ki.Tid] {
			set.add(ki.Molregno, tid)
		}
	}

	logger.Debug("[Interaction] Known pairs expanded", "direct", direct, "mapped", len(set.order)-direct, "targets", len(set.Targets))
	return set
}

// ResolveParams are the lookups needed to describe pairs without any
// measurement.
type ResolveParams struct {
	Known     *KnownSet
	Compounds []chembl.Compound
	Targets   []chembl.Target
}

// Resolve flags every row by its drug_mechanism membership, appends known
// pairs that were never measured and sets keep_for_binding. The known pairs
// and targets are stored on ds for the later stages.
func Resolve(ds *dataset.Dataset, params ResolveParams) {
	known := params.Known

	present := make(map[dataset.PairKey]struct{}, len(ds.Records))
	for _, r := range ds.Records {
		present[r.Key] = struct{}{}
		r.PairMutationInDMTable = !r.Key.HasMutation() && known.Contains(r.Key)
		r.PairInDMTable = known.Contains(r.Key)
	}

	compounds := make(map[int64]chembl.Compound, len(params.Compounds))
	for _, c := range params.Compounds {
		compounds[c.Molregno] = c
	}
	targets := make(map[int64]chembl.Target, len(params.Targets))
	for _, t := range params.Targets {
		if t.Organism != nil && *t.Organism == "null" {
			t.Organism = nil
		}
		targets[t.Tid] = t
	}

	added := 0
	for _, key := range known.Keys() {
		if _, ok := present[key]; ok {
			continue
		}
		cpd, ok := compounds[key.Molregno]
		if !ok {
			cpd = chembl.Compound{Molregno: key.Molregno}
		}
		tgt, ok := targets[key.Tid]
		if !ok {
			tgt = chembl.Target{Tid: key.Tid}
		}
		ds.Records = append(ds.Records, &dataset.Record{
			Key:                   key,
			Compound:              cpd,
			Target:                tgt,
			PairMutationInDMTable: true,
			PairInDMTable:         true,
		})
		added++
	}

	for _, r := range ds.Records {
		r.KeepForBinding = r.B.Mean != nil || r.PairMutationInDMTable
	}

	ds.KnownPairs = known.Pairs
	ds.KnownTargets = known.Targets

	logger.Debug("[Interaction] Known pairs merged", "added", added, "rows", ds.Len())
}
