package enrich

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/source"
)

func s(v string) *string   { return &v }
func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

type fakeSource struct {
	source.Source
	tables Tables
	err    error
}

func (f *fakeSource) FirstPublications(context.Context) ([]chembl.FirstPublication, error) {
	return f.tables.FirstPublications, nil
}
func (f *fakeSource) CompoundProperties(context.Context) ([]chembl.CompoundProperties, error) {
	return f.tables.Properties, nil
}
func (f *fakeSource) ATCClassifications(context.Context) ([]chembl.ATCClassification, error) {
	return f.tables.ATC, f.err
}
func (f *fakeSource) MoleculeHierarchy(context.Context) ([]chembl.HierarchyEntry, error) {
	return f.tables.Hierarchy, nil
}
func (f *fakeSource) ParentStructures(context.Context) ([]chembl.ParentStructure, error) {
	return f.tables.ParentStructures, nil
}
func (f *fakeSource) TargetComponentClasses(context.Context) ([]chembl.TargetComponentClass, error) {
	return f.tables.ComponentClasses, nil
}
func (f *fakeSource) ProteinClassHierarchy(context.Context) ([]chembl.ProteinClass, error) {
	return f.tables.ProteinClasses, nil
}

func TestLoad(t *testing.T) {
	src := &fakeSource{tables: Tables{
		FirstPublications: []chembl.FirstPublication{{Molregno: 1, Year: 2000}},
		ATC:               []chembl.ATCClassification{{Molregno: 1, Level1: "A", Level1Description: "ALIMENTARY"}},
	}}
	got, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.FirstPublications, src.tables.FirstPublications) || len(got.ATC) != 1 {
		t.Fatalf("unexpected tables %+v", got)
	}

	src.err = errors.New("connection reset")
	if _, err := Load(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
}

func TestATCMap(t *testing.T) {
	got := ATCMap([]chembl.ATCClassification{
		{Molregno: 1, Level1: "N", Level1Description: "NERVOUS SYSTEM"},
		{Molregno: 1, Level1: "A", Level1Description: "ALIMENTARY TRACT AND METABOLISM"},
		{Molregno: 1, Level1: "N", Level1Description: "NERVOUS SYSTEM"},
		{Molregno: 2, Level1: "C", Level1Description: "CARDIOVASCULAR SYSTEM"},
	})
	want := map[int64]string{
		1: "A_ALIMENTARY TRACT AND METABOLISM | N_NERVOUS SYSTEM",
		2: "C_CARDIOVASCULAR SYSTEM",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ATCMap() = %v, want %v", got, want)
	}
}

func TestAddCompoundProperties(t *testing.T) {
	ds := dataset.New([]*dataset.Record{
		{Key: dataset.PairKey{Molregno: 1, Tid: 10}},
		{Key: dataset.PairKey{Molregno: 2, Tid: 10}},
	})
	AddCompoundProperties(ds, &Tables{
		FirstPublications: []chembl.FirstPublication{{Molregno: 1, Year: 2003}, {Molregno: 1, Year: 1999}},
		Properties:        []chembl.CompoundProperties{{Molregno: 1, HeavyAtoms: i(20), CanonicalSmiles: s("CCO")}},
		ATC:               []chembl.ATCClassification{{Molregno: 1, Level1: "A", Level1Description: "ALIMENTARY"}},
	})

	with, without := ds.Records[0], ds.Records[1]
	if with.FirstPublicationCpd == nil || *with.FirstPublicationCpd != 1999 {
		t.Fatalf("first_publication_cpd = %v", with.FirstPublicationCpd)
	}
	if with.Props.HeavyAtoms == nil || *with.Props.CanonicalSmiles != "CCO" {
		t.Fatal("properties not joined")
	}
	if with.ATCLevel1 == nil || *with.ATCLevel1 != "A_ALIMENTARY" {
		t.Fatalf("atc_level1 = %v", with.ATCLevel1)
	}
	if without.FirstPublicationCpd != nil || without.Props.CanonicalSmiles != nil || without.ATCLevel1 != nil {
		t.Fatal("compound without annotations got values")
	}
	if len(ds.Lookups.Properties) != 1 {
		t.Fatal("lookups not kept")
	}
}

func mixtureDataset() *dataset.Dataset {
	rows := []*dataset.Record{
		{Key: dataset.PairKey{Molregno: 1, Tid: 10}, Props: chembl.CompoundProperties{CanonicalSmiles: s("CCO")}},
		{Key: dataset.PairKey{Molregno: 2, Tid: 10}, Props: chembl.CompoundProperties{CanonicalSmiles: s("CC.Cl")}},
		{Key: dataset.PairKey{Molregno: 2, Tid: 11}, Props: chembl.CompoundProperties{CanonicalSmiles: s("CC.Cl")}},
		{Key: dataset.PairKey{Molregno: 3, Tid: 10}},
	}
	return dataset.New(rows)
}

func TestRemoveMixtures(t *testing.T) {
	ds := mixtureDataset()
	dropped, err := RemoveMixtures(ds, &Tables{
		Hierarchy:        []chembl.HierarchyEntry{{Molregno: 2, ParentMolregno: 2}, {Molregno: 20, ParentMolregno: 2}},
		ParentStructures: []chembl.ParentStructure{{ParentMolregno: 2, CanonicalSmiles: s("CC.Cl")}},
	})
	if err != nil {
		t.Fatalf("RemoveMixtures: %v", err)
	}
	if dropped != 3 || ds.Len() != 1 || ds.Records[0].Key.Molregno != 1 {
		t.Fatalf("dropped %d, left %d rows", dropped, ds.Len())
	}
}

func TestRemoveMixturesIdentity(t *testing.T) {
	tests := []struct {
		name   string
		tables Tables
	}{
		{"not a parent", Tables{
			Hierarchy:        []chembl.HierarchyEntry{{Molregno: 20, ParentMolregno: 21}},
			ParentStructures: []chembl.ParentStructure{{ParentMolregno: 2, CanonicalSmiles: s("CC.Cl")}},
		}},
		{"salt of another parent", Tables{
			Hierarchy:        []chembl.HierarchyEntry{{Molregno: 20, ParentMolregno: 2}, {Molregno: 2, ParentMolregno: 5}},
			ParentStructures: []chembl.ParentStructure{{ParentMolregno: 2, CanonicalSmiles: s("CC.Cl")}},
		}},
		{"different parent structure", Tables{
			Hierarchy:        []chembl.HierarchyEntry{{Molregno: 2, ParentMolregno: 2}},
			ParentStructures: []chembl.ParentStructure{{ParentMolregno: 2, CanonicalSmiles: s("CC")}},
		}},
		{"missing parent structure", Tables{
			Hierarchy: []chembl.HierarchyEntry{{Molregno: 2, ParentMolregno: 2}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := mixtureDataset()
			_, err := RemoveMixtures(ds, &tt.tables)
			if !errors.Is(err, ErrIdentityResolution) {
				t.Fatalf("expected ErrIdentityResolution, got %v", err)
			}
			if ds.Len() != 4 {
				t.Fatal("rows removed despite failed check")
			}
		})
	}
}

func TestTargetClasses(t *testing.T) {
	classes := []chembl.ProteinClass{
		{ProteinClassID: 0, Names: "Protein class"},
		{ProteinClassID: 1, Names: "Protein class|Enzyme"},
		{ProteinClassID: 2, Names: "Protein class|Enzyme|Kinase"},
		{ProteinClassID: 3, Names: "Protein class|Unclassified protein"},
		{ProteinClassID: 4, Names: "Protein class|Membrane receptor|Family A GPCR"},
		{ProteinClassID: 5, Names: "Protein class|Enzyme|Protease"},
	}
	components := []chembl.TargetComponentClass{
		{Tid: 10, ProteinClassID: 2},
		{Tid: 10, ProteinClassID: 3},
		{Tid: 11, ProteinClassID: 3},
		{Tid: 12, ProteinClassID: 4},
		{Tid: 12, ProteinClassID: 5},
		{Tid: 13, ProteinClassID: 0},
		{Tid: 99, ProteinClassID: 2},
	}
	tids := map[int64]struct{}{10: {}, 11: {}, 12: {}, 13: {}}
	l1, l2 := TargetClasses(tids, components, classes)

	wantL1 := map[int64]string{10: "Enzyme", 11: "Unclassified protein", 12: "Enzyme|Membrane receptor"}
	wantL2 := map[int64]string{10: "Kinase", 12: "Family A GPCR|Protease"}
	if !reflect.DeepEqual(l1, wantL1) {
		t.Fatalf("l1 = %v, want %v", l1, wantL1)
	}
	if !reflect.DeepEqual(l2, wantL2) {
		t.Fatalf("l2 = %v, want %v", l2, wantL2)
	}
}

func TestAmbiguousTargetClasses(t *testing.T) {
	ds := dataset.New([]*dataset.Record{
		{Key: dataset.PairKey{Molregno: 1, Tid: 12}},
		{Key: dataset.PairKey{Molregno: 2, Tid: 12}},
		{Key: dataset.PairKey{Molregno: 1, Tid: 10}},
		{Key: dataset.PairKey{Molregno: 1, Tid: 11}},
	})
	AddTargetClasses(ds, &Tables{
		ProteinClasses: []chembl.ProteinClass{
			{ProteinClassID: 1, Names: "Protein class|Enzyme|Kinase"},
			{ProteinClassID: 2, Names: "Protein class|Enzyme|Protease"},
			{ProteinClassID: 3, Names: "Protein class|Ion channel"},
		},
		ComponentClasses: []chembl.TargetComponentClass{
			{Tid: 12, ProteinClassID: 1}, {Tid: 12, ProteinClassID: 2},
			{Tid: 10, ProteinClassID: 1},
		},
	})
	got := AmbiguousTargetClasses(ds)
	if len(got) != 1 || got[0].Tid != 12 || *got[0].ClassL2 != "Kinase|Protease" || *got[0].ClassL1 != "Enzyme" {
		t.Fatalf("AmbiguousTargetClasses() = %+v", got)
	}
	if ds.Records[3].TargetClassL1 != nil {
		t.Fatal("target without classes got a class")
	}
}
