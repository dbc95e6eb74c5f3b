// Package output writes dataset views and their companion tables as
// delimited text files and verifies every file by reading it back.
package output

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/descriptor"
	"github.com/chembl/compound-target-pairs-dataset/pkg/enrich"
	loadercsv "github.com/chembl/compound-target-pairs-dataset/pkg/loader/csv"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
	"github.com/chembl/compound-target-pairs-dataset/pkg/stats"
)

// DefaultDelimiter separates fields unless configured otherwise.
const DefaultDelimiter = ';'

// ErrRoundTrip is returned when a written file does not read back to the
// values it was written from.
var ErrRoundTrip = errors.New("written file differs from its source table")

// Table is a typed in-memory table. Cells hold nil or a value of the
// column kind.
type Table struct {
	Header []string
	Kinds  []dataset.Kind
	Rows   [][]any
}

// FromColumns materializes records through cols.
func FromColumns(cols []dataset.Column, records []*dataset.Record) *Table {
	t := &Table{
		Header: make([]string, len(cols)),
		Kinds:  make([]dataset.Kind, len(cols)),
		Rows:   make([][]any, 0, len(records)),
	}
	for i, c := range cols {
		t.Header[i] = c.Name
		t.Kinds[i] = c.Kind
	}
	for _, r := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.Get(r)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromStats builds the stats table of a view.
func FromStats(rows []stats.Row) *Table {
	t := &Table{
		Header: stats.Header,
		Kinds:  []dataset.Kind{dataset.KindString, dataset.KindString, dataset.KindString, dataset.KindInt},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Column, r.Description, r.SubsetType, int64(r.Count)})
	}
	return t
}

// FromSizes builds a debug size trace table.
func FromSizes(sizes []dataset.StageSize) *Table {
	header := stats.SizeHeader()
	t := &Table{Header: header, Kinds: make([]dataset.Kind, len(header))}
	for i := range header {
		t.Kinds[i] = dataset.KindInt
	}
	t.Kinds[0] = dataset.KindString
	for _, s := range sizes {
		row := make([]any, 0, len(header))
		row = append(row, s.Step)
		for _, counts := range []map[string]int{s.All, s.Drugs} {
			for _, e := range stats.Entities {
				row = append(row, int64(counts[e.Column]))
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromAmbiguousTargets builds the table of targets with more than one
// target class.
func FromAmbiguousTargets(targets []enrich.AmbiguousTarget) *Table {
	t := &Table{
		Header: []string{"tid", "pref_name", "target_type", "target_class_l1", "target_class_l2"},
		Kinds: []dataset.Kind{
			dataset.KindInt, dataset.KindString, dataset.KindString, dataset.KindString, dataset.KindString,
		},
	}
	opt := func(s *string) any {
		if s == nil || *s == "" {
			return nil
		}
		return *s
	}
	for _, a := range targets {
		t.Rows = append(t.Rows, []any{a.Tid, opt(a.PrefName), opt(a.TargetType), opt(a.ClassL1), opt(a.ClassL2)})
	}
	return t
}

// FromSmiles builds the one column table handed to the descriptor
// calculator.
func FromSmiles(smiles []string) *Table {
	t := &Table{
		Header: []string{descriptor.SmilesColumn},
		Kinds:  []dataset.Kind{dataset.KindString},
		Rows:   make([][]any, 0, len(smiles)),
	}
	for _, s := range smiles {
		t.Rows = append(t.Rows, []any{s})
	}
	return t
}

// FormatCell renders v as text. Nil is the empty string and booleans are
// written as True and False.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// ParseCell reads s back as a value of kind k.
func ParseCell(s string, k dataset.Kind) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch k {
	case dataset.KindInt:
		return strconv.ParseInt(s, 10, 64)
	case dataset.KindFloat:
		return strconv.ParseFloat(s, 64)
	case dataset.KindBool:
		switch s {
		case "True":
			return true, nil
		case "False":
			return false, nil
		}
		return nil, fmt.Errorf("invalid bool %q", s)
	}
	return s, nil
}

// Writer writes tables below one directory and remembers the written files.
type Writer struct {
	dir       string
	prefix    string
	delimiter rune
	files     []string
}

// NewWriterParams configures NewWriter. A zero Delimiter means
// DefaultDelimiter.
type NewWriterParams struct {
	Dir            string
	ChemblVersion  string
	LiteratureOnly bool
	Delimiter      rune
}

// Prefix is the common file name prefix of one dataset build.
func Prefix(chemblVersion string, literatureOnly bool) string {
	flag := "all_sources"
	if literatureOnly {
		flag = "literature_only"
	}
	return fmt.Sprintf("ChEMBL%s_CTI_%s", chemblVersion, flag)
}

// NewWriter returns a Writer whose dataset files are named after the ChEMBL
// version and source flag.
func NewWriter(params NewWriterParams) *Writer {
	delimiter := params.Delimiter
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	return &Writer{
		dir:       params.Dir,
		prefix:    Prefix(params.ChemblVersion, params.LiteratureOnly),
		delimiter: delimiter,
	}
}

// Files returns the paths written so far in write order.
func (w *Writer) Files() []string {
	return append([]string(nil), w.files...)
}

// Path returns the file path of a dataset table named desc.
func (w *Writer) Path(desc string) string {
	return filepath.Join(w.dir, w.prefix+"_"+desc+".csv")
}

// Write stores t as name below the output directory and verifies it.
func (w *Writer) Write(name string, t *Table) (string, error) {
	path := filepath.Join(w.dir, name+".csv")
	if err := w.write(path, t); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Verify(path, t); err != nil {
		return "", err
	}
	w.files = append(w.files, path)
	logger.Debug("[Output] Wrote table", "path", path, "rows", len(t.Rows))
	return path, nil
}

func (w *Writer) write(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	cw := csv.NewWriter(buf)
	cw.Comma = w.delimiter
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	cells := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, v := range row {
			cells[i] = FormatCell(v)
		}
		if err := cw.Write(cells); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Verify reads path back and compares it cell by cell with t.
func (w *Writer) Verify(path string, t *Table) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", path, err)
	}
	read, err := loadercsv.ParseCSV(content, w.delimiter)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", path, err)
	}
	if strings.Join(read.Header, "\x00") != strings.Join(t.Header, "\x00") {
		return fmt.Errorf("%w: %s: header %v, want %v", ErrRoundTrip, path, read.Header, t.Header)
	}
	if len(read.Rows) != len(t.Rows) {
		return fmt.Errorf("%w: %s: %d rows, want %d", ErrRoundTrip, path, len(read.Rows), len(t.Rows))
	}
	for i, row := range read.Rows {
		for j, cell := range row {
			got, err := ParseCell(cell, t.Kinds[j])
			if err != nil {
				return fmt.Errorf("%w: %s: row %d column %s: %v", ErrRoundTrip, path, i, t.Header[j], err)
			}
			if got != normalize(t.Rows[i][j]) {
				return fmt.Errorf("%w: %s: row %d column %s: read %v, want %v",
					ErrRoundTrip, path, i, t.Header[j], got, t.Rows[i][j])
			}
		}
	}
	return nil
}

// normalize maps the empty string to nil, which is how it reads back.
func normalize(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// WriteDataset writes a dataset table named desc together with its stats
// file.
func (w *Writer) WriteDataset(desc string, cols []dataset.Column, records []*dataset.Record) error {
	name := w.prefix + "_" + desc
	if _, err := w.Write(name, FromColumns(cols, records)); err != nil {
		return err
	}

	rows := stats.Compute(records)
	if logger.DebugEnabled() {
		var sb strings.Builder
		stats.Render(&sb, rows)
		logger.Debug("[Output] Stats for "+name, "table", "\n"+sb.String())
	}
	_, err := w.Write(name+"_stats", FromStats(rows))
	return err
}

// WriteAmbiguousTargets writes the targets that carry more than one target
// class.
func (w *Writer) WriteAmbiguousTargets(targets []enrich.AmbiguousTarget) error {
	_, err := w.Write(w.prefix+"_targets_w_more_than_one_tclass", FromAmbiguousTargets(targets))
	return err
}

// WriteSmiles writes the distinct canonical SMILES of the table. The
// descriptor table read by descriptor.CSVProvider is computed from it.
func (w *Writer) WriteSmiles(smiles []string) error {
	_, err := w.Write(w.prefix+"_smiles", FromSmiles(smiles))
	return err
}

// WriteSizes writes the debug size traces of ds.
func (w *Writer) WriteSizes(ds *dataset.Dataset) error {
	if _, err := w.Write("debug_full_df_sizes", FromSizes(ds.SizesAll)); err != nil {
		return err
	}
	_, err := w.Write("debug_pchembl_df_sizes", FromSizes(ds.SizesPchembl))
	return err
}
