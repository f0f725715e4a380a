package analyzer

import (
	"github.com/mcncl/toonkit/internal/models"
)

// Shape summarizes the structure of a tree.
type Shape struct {
	Kind       models.Kind
	Depth      int      // nesting depth, scalars are 0
	Rows       int      // number of elements when the root is an array
	Columns    []string // uniform field list when the root is tabular
	Tabular    bool     // root is a non-empty array of objects sharing one field list of scalars
	Records    bool     // root is a non-empty array of objects (what CSV can hold)
	Scalars    int
	Containers int
}

// Analyzer inspects trees to decide how they can be laid out.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze walks v and reports its shape.
func (a *Analyzer) Analyze(v models.Value) Shape {
	shape := Shape{Kind: v.Kind()}
	shape.Depth = a.count(v, &shape)
	if v.IsArray() {
		items := v.Items()
		shape.Rows = len(items)
		_, shape.Records = RecordObjects(items)
		shape.Columns, shape.Tabular = TabularFields(items)
	}
	return shape
}

func (a *Analyzer) count(v models.Value, shape *Shape) int {
	depth := 0
	switch v.Kind() {
	case models.KindArray:
		shape.Containers++
		for _, item := range v.Items() {
			depth = max(depth, a.count(item, shape))
		}
		return depth + 1
	case models.KindObject:
		shape.Containers++
		for _, f := range v.Object().Fields() {
			depth = max(depth, a.count(f.Value, shape))
		}
		return depth + 1
	}
	shape.Scalars++
	return 0
}

// TabularFields reports whether items can be written as a table: at least one
// item, every item an object with the same non-empty key sequence, and every
// value a scalar. It returns that key sequence.
func TabularFields(items []models.Value) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	first := items[0].Object()
	if first == nil || first.Len() == 0 {
		return nil, false
	}
	fields := first.Keys()
	for _, item := range items {
		obj := item.Object()
		if obj == nil || obj.Len() != len(fields) {
			return nil, false
		}
		for i, k := range obj.Keys() {
			if k != fields[i] {
				return nil, false
			}
			v, _ := obj.Get(k)
			if !v.IsScalar() {
				return nil, false
			}
		}
	}
	return fields, true
}

// RecordObjects returns items as objects when there is at least one item and
// all of them are objects.
func RecordObjects(items []models.Value) ([]*models.Object, bool) {
	if len(items) == 0 {
		return nil, false
	}
	records := make([]*models.Object, len(items))
	for i, item := range items {
		obj := item.Object()
		if obj == nil {
			return nil, false
		}
		records[i] = obj
	}
	return records, true
}

// AllScalars reports whether every item is a scalar.
func AllScalars(items []models.Value) bool {
	for _, item := range items {
		if !item.IsScalar() {
			return false
		}
	}
	return true
}
