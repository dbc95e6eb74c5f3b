package output

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/enrich"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func TestPrefix(t *testing.T) {
	tests := []struct {
		version        string
		literatureOnly bool
		want           string
	}{
		{"34", true, "ChEMBL34_CTI_literature_only"},
		{"35", false, "ChEMBL35_CTI_all_sources"},
	}
	for _, tt := range tests {
		if got := Prefix(tt.version, tt.literatureOnly); got != tt.want {
			t.Fatalf("Prefix(%s, %v) = %s, want %s", tt.version, tt.literatureOnly, got, tt.want)
		}
	}
}

func TestFormatAndParseCell(t *testing.T) {
	tests := []struct {
		v    any
		kind dataset.Kind
		text string
	}{
		{nil, dataset.KindFloat, ""},
		{int64(42), dataset.KindInt, "42"},
		{6.1235, dataset.KindFloat, "6.1235"},
		{float64(6), dataset.KindFloat, "6"},
		{true, dataset.KindBool, "True"},
		{false, dataset.KindBool, "False"},
		{"CHEMBL25", dataset.KindString, "CHEMBL25"},
	}
	for _, tt := range tests {
		text := FormatCell(tt.v)
		if text != tt.text {
			t.Fatalf("FormatCell(%v) = %q, want %q", tt.v, text, tt.text)
		}
		got, err := ParseCell(text, tt.kind)
		if err != nil {
			t.Fatalf("ParseCell(%q) error: %v", text, err)
		}
		if got != tt.v {
			t.Fatalf("ParseCell(%q) = %v, want %v", text, got, tt.v)
		}
	}

	if _, err := ParseCell("yes", dataset.KindBool); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}

func records() []*dataset.Record {
	a := &dataset.Record{
		Key: dataset.PairKey{Molregno: 1, Tid: 10, Mutation: "V600E"},
		BF:  dataset.SubsetStats{Mean: f(6.5), Max: f(7)},
		DTI: dataset.DDT,
	}
	a.Compound.ChemblID = s("CHEMBL1")
	a.Compound.PrefName = s("ASPIRIN; FORTE")
	b := &dataset.Record{
		Key: dataset.PairKey{Molregno: 2, Tid: 10},
		B:   dataset.SubsetStats{Mean: f(5.25)},
		DTI: dataset.DT,
	}
	b.KeepForBinding = true
	return []*dataset.Record{a, b}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(NewWriterParams{Dir: dir, ChemblVersion: "35", LiteratureOnly: true})

	cols := dataset.Columns(dataset.ColumnOptions{})
	if err := w.WriteDataset("full_dataset", cols, records()); err != nil {
		t.Fatalf("WriteDataset() error: %v", err)
	}

	want := []string{
		filepath.Join(dir, "ChEMBL35_CTI_literature_only_full_dataset.csv"),
		filepath.Join(dir, "ChEMBL35_CTI_literature_only_full_dataset_stats.csv"),
	}
	if !reflect.DeepEqual(w.Files(), want) {
		t.Fatalf("Files() = %v, want %v", w.Files(), want)
	}

	content, err := os.ReadFile(want[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], `"ASPIRIN; FORTE"`) {
		t.Fatalf("delimiter inside a value is not quoted: %s", lines[1])
	}
	if !strings.Contains(lines[2], "True") || !strings.Contains(lines[2], "False") {
		t.Fatalf("booleans not written as True/False: %s", lines[2])
	}

	stats, err := os.ReadFile(want[1])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(stats), "column;column_description;subset_type;counts\n") {
		t.Fatalf("unexpected stats header: %q", strings.SplitN(string(stats), "\n", 2)[0])
	}
	if !strings.Contains(string(stats), "parent_molregno;compound ID;all;2\n") {
		t.Fatal("missing compound count")
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(NewWriterParams{Dir: dir, ChemblVersion: "35"})
	table := &Table{
		Header: []string{"tid", "value"},
		Kinds:  []dataset.Kind{dataset.KindInt, dataset.KindFloat},
		Rows:   [][]any{{int64(1), 1.5}, {int64(2), nil}},
	}
	path, err := w.Write("table", table)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	changed := &Table{
		Header: table.Header,
		Kinds:  table.Kinds,
		Rows:   [][]any{{int64(1), 1.5}, {int64(2), 2.5}},
	}
	if err := w.Verify(path, changed); !errors.Is(err, ErrRoundTrip) {
		t.Fatalf("Verify() error = %v, want ErrRoundTrip", err)
	}

	if err := os.WriteFile(path, []byte("tid;value\n1;1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Verify(path, table); !errors.Is(err, ErrRoundTrip) {
		t.Fatalf("Verify() error = %v, want ErrRoundTrip for missing row", err)
	}
}

func TestWriteAmbiguousTargetsAndSizes(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(NewWriterParams{Dir: dir, ChemblVersion: "35", Delimiter: ','})

	err := w.WriteAmbiguousTargets([]enrich.AmbiguousTarget{
		{Tid: 10, PrefName: s("Kinase"), ClassL1: s("enzyme|membrane receptor")},
	})
	if err != nil {
		t.Fatalf("WriteAmbiguousTargets() error: %v", err)
	}

	ds := dataset.New(records())
	ds.SizesAll = []dataset.StageSize{{
		Step:  "initial query",
		All:   map[string]int{"parent_molregno": 2},
		Drugs: map[string]int{"parent_molregno": 1},
	}}
	if err := w.WriteSizes(ds); err != nil {
		t.Fatalf("WriteSizes() error: %v", err)
	}

	files := w.Files()
	if len(files) != 3 {
		t.Fatalf("Files() = %v", files)
	}
	if filepath.Base(files[0]) != "ChEMBL35_CTI_all_sources_targets_w_more_than_one_tclass.csv" {
		t.Fatalf("unexpected file %s", files[0])
	}
	content, err := os.ReadFile(files[1])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "initial query,2,0,0,0,0,1,0,0,0,0") {
		t.Fatalf("unexpected sizes table:\n%s", content)
	}
}

func TestFromSizes(t *testing.T) {
	tbl := FromSizes([]dataset.StageSize{{
		Step:  "clean df",
		All:   map[string]int{"parent_molregno": 3, "tid": 2},
		Drugs: map[string]int{"tid": 1},
	}})
	if len(tbl.Header) != 11 || len(tbl.Kinds) != 11 {
		t.Fatalf("header = %v", tbl.Header)
	}
	want := []any{"clean df", int64(3), int64(2), int64(0), int64(0), int64(0), int64(0), int64(1), int64(0), int64(0), int64(0)}
	if !reflect.DeepEqual(tbl.Rows[0], want) {
		t.Fatalf("row = %#v, want %#v", tbl.Rows[0], want)
	}
}
