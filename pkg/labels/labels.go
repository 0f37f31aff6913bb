// Package labels holds the class index to skin condition table the detection
// model was trained with.
package labels

import "sort"

const Unknown = "unknown"

// Table maps a model class index to a condition name. It is immutable once
// built.
type Table struct {
	names map[int]string
}

type Class struct {
	Index   int    `json:"class"`
	Problem string `json:"problem"`
}

var skinConditions = map[int]string{
	0:  "3",
	1:  "Dark Circle",
	2:  "Dark circle",
	3:  "Eyebag",
	4:  "acne scar",
	5:  "blackhead",
	6:  "blackheads",
	7:  "dark spot",
	8:  "darkspot",
	9:  "freckle",
	10: "melasma",
	11: "nodules",
	12: "papules",
	13: "pustules",
	14: "skinredness",
	15: "vascular",
	16: "whitehead",
	17: "whiteheads",
	18: "wrinkle",
}

// Default returns the table for the bundled skin model.
func Default() *Table {
	return New(skinConditions)
}

func New(names map[int]string) *Table {
	copied := make(map[int]string, len(names))
	for k, v := range names {
		copied[k] = v
	}
	return &Table{names: copied}
}

// Resolve returns the condition name for idx, or Unknown.
func (t *Table) Resolve(idx int) string {
	if name, ok := t.names[idx]; ok {
		return name
	}
	return Unknown
}

func (t *Table) Len() int {
	return len(t.names)
}

// Classes lists the table ordered by index.
func (t *Table) Classes() []Class {
	classes := make([]Class, 0, len(t.names))
	for idx, name := range t.names {
		classes = append(classes, Class{Index: idx, Problem: name})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].Index < classes[j].Index })
	return classes
}
