/*
Copyright 2026 The GridSQL Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package querytree

import (
	"fmt"
	"strings"
)

// RTE fetches the range table entry with the given 1-based index. Out of
// range indexes are a bug in the caller.
func (q *Query) RTE(index int) *RangeTableEntry {
	if index < 1 || index > len(q.RangeTable) {
		panic(fmt.Sprintf("BUG: range table index %d out of range (range table has %d entries)", index, len(q.RangeTable)))
	}
	return q.RangeTable[index-1]
}

// AddRangeTableEntry appends rte to the range table and returns its
// 1-based index.
func (q *Query) AddRangeTableEntry(rte *RangeTableEntry) int {
	q.RangeTable = append(q.RangeTable, rte)
	return len(q.RangeTable)
}

// EffectiveName returns the name an entry is visible under: its alias if
// one was given, otherwise the relation, CTE or function name.
func (rte *RangeTableEntry) EffectiveName() string {
	if rte.Alias != "" {
		return rte.Alias
	}
	switch rte.Kind {
	case RTERelation:
		return rte.RelationName
	case RTECTE:
		return rte.CTEName
	case RTEFunction:
		if rte.Function != nil && rte.Function.FuncExpr != nil {
			return rte.Function.FuncExpr.Name
		}
	}
	return ""
}

// NewVar returns a Var referring to column attNo of range table entry
// varNo at the current query level.
func NewVar(varNo, attNo int, t ColumnType) *Var {
	return &Var{VarNo: varNo, AttNo: attNo, Type: t}
}

// NewTargetEntry returns a non-junk target entry.
func NewTargetEntry(expr Expr, resNo int, name string) *TargetEntry {
	return &TargetEntry{Expr: expr, ResNo: resNo, Name: name}
}

// NewStringConst returns a text literal.
func NewStringConst(val string) *Const {
	return &Const{Type: TypeText, Value: val}
}

// NewTextArrayConst returns a text[] literal holding the given elements.
func NewTextArrayConst(vals []string) *Const {
	return &Const{Type: TypeTextArray, Value: "{" + strings.Join(vals, ",") + "}"}
}

// NewBoolConst returns a boolean literal.
func NewBoolConst(val bool) *Const {
	return &Const{Type: TypeBool, Value: fmt.Sprintf("%t", val)}
}

// NewNullConst returns a typed NULL literal.
func NewNullConst(t ColumnType) *Const {
	return &Const{Type: t, IsNull: true}
}

// NonJunkTargetEntries returns the visible output columns of a target
// list, skipping junk entries.
func NonJunkTargetEntries(tl []*TargetEntry) []*TargetEntry {
	out := make([]*TargetEntry, 0, len(tl))
	for _, te := range tl {
		if te.Junk {
			continue
		}
		out = append(out, te)
	}
	return out
}

// TargetColumnNames returns the visible output column names of a target
// list. Anonymous columns get generated "columnN" names, numbered by
// visible position.
func TargetColumnNames(tl []*TargetEntry) []string {
	var names []string
	for _, te := range NonJunkTargetEntries(tl) {
		name := te.Name
		if name == "" {
			name = fmt.Sprintf("column%d", len(names)+1)
		}
		names = append(names, name)
	}
	return names
}
