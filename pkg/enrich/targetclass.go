package enrich

import (
	"cmp"
	"slices"
	"strings"

	"github.com/chembl/compound-target-pairs-dataset/pkg/chembl"
	"github.com/chembl/compound-target-pairs-dataset/pkg/dataset"
	"github.com/chembl/compound-target-pairs-dataset/pkg/logger"
)

const (
	// ClassSeparator joins the names of a protein class path and several
	// target classes of one target.
	ClassSeparator = "|"

	UnclassifiedProtein = "Unclassified protein"

	rootClassID = 0
)

// ClassLevels splits the hierarchy path of every protein class into its
// level 1 and level 2 names. The root class is skipped.
func ClassLevels(classes []chembl.ProteinClass) (l1, l2 map[int64]string) {
	l1 = make(map[int64]string)
	l2 = make(map[int64]string)
	for _, pc := range classes {
		if pc.ProteinClassID == rootClassID {
			continue
		}
		names := strings.Split(pc.Names, ClassSeparator)
		if len(names) > 1 {
			l1[pc.ProteinClassID] = names[1]
		}
		if len(names) > 2 {
			l2[pc.ProteinClassID] = names[2]
		}
	}
	return l1, l2
}

func join(classes []string) string {
	slices.Sort(classes)
	return strings.Join(classes, ClassSeparator)
}

// TargetClasses maps each of the given targets to its combined level 1 and
// level 2 classes. A level 1 "Unclassified protein" is dropped when the target
// has other level 1 classes.
func TargetClasses(tids map[int64]struct{}, components []chembl.TargetComponentClass, classes []chembl.ProteinClass) (l1, l2 map[int64]string) {
	levels1, levels2 := ClassLevels(classes)

	perTid1 := make(map[int64][]string)
	perTid2 := make(map[int64][]string)
	for _, c := range components {
		if _, ok := tids[c.Tid]; !ok {
			continue
		}
		if name, ok := levels1[c.ProteinClassID]; ok && !slices.Contains(perTid1[c.Tid], name) {
			perTid1[c.Tid] = append(perTid1[c.Tid], name)
		}
		if name, ok := levels2[c.ProteinClassID]; ok && !slices.Contains(perTid2[c.Tid], name) {
			perTid2[c.Tid] = append(perTid2[c.Tid], name)
		}
	}

	l1 = make(map[int64]string, len(perTid1))
	for tid, names := range perTid1 {
		if len(names) > 1 {
			names = slices.DeleteFunc(names, func(n string) bool { return n == UnclassifiedProtein })
		}
		l1[tid] = join(names)
	}
	l2 = make(map[int64]string, len(perTid2))
	for tid, names := range perTid2 {
		l2[tid] = join(names)
	}
	return l1, l2
}

// AddTargetClasses sets target_class_l1 and target_class_l2 on every row.
func AddTargetClasses(ds *dataset.Dataset, t *Tables) {
	l1, l2 := TargetClasses(ds.Tids(), t.ComponentClasses, t.ProteinClasses)
	ds.Lookups.TargetClassL1 = l1
	ds.Lookups.TargetClassL2 = l2
	for _, r := range ds.Records {
		r.TargetClassL1 = strPtr(l1, r.Key.Tid)
		r.TargetClassL2 = strPtr(l2, r.Key.Tid)
	}
	logger.Debug("[Enrich] Target classes added", "targets_l1", len(l1), "targets_l2", len(l2))
}

// AmbiguousTarget is a target with more than one class on a level.
type AmbiguousTarget struct {
	Tid        int64
	PrefName   *string
	TargetType *string
	ClassL1    *string
	ClassL2    *string
}

func ambiguous(v *string) bool {
	return v != nil && strings.Contains(*v, ClassSeparator)
}

// AmbiguousTargetClasses lists the targets of ds with several level 1 or
// level 2 classes, ordered by tid.
func AmbiguousTargetClasses(ds *dataset.Dataset) []AmbiguousTarget {
	seen := make(map[int64]bool)
	var out []AmbiguousTarget
	for _, r := range ds.Records {
		if seen[r.Key.Tid] || !(ambiguous(r.TargetClassL1) || ambiguous(r.TargetClassL2)) {
			continue
		}
		seen[r.Key.Tid] = true
		out = append(out, AmbiguousTarget{
			Tid:        r.Key.Tid,
			PrefName:   r.Target.PrefName,
			TargetType: r.Target.TargetType,
			ClassL1:    r.TargetClassL1,
			ClassL2:    r.TargetClassL2,
		})
	}
	slices.SortFunc(out, func(a, b AmbiguousTarget) int { return cmp.Compare(a.Tid, b.Tid) })
	logger.Debug("[Enrich] Targets with more than one target class", "targets", len(out))
	return out
}
