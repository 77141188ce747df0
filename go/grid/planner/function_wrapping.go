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

package planner

import (
	"gridsql.io/gridsql/go/grid/querytree"
)

// wrapFunctionsInSubqueries rewrites each function RTE joined with other
// range table entries into an equivalent subquery RTE. The later passes
// only reason about subqueries, so this normalization lets a function in
// FROM participate in recursive planning like any other recurring input.
// Lateral and WITH ORDINALITY calls keep their special scoping and are
// left alone, as is a function that is the only FROM item.
func (rp *RecursivePlanner) wrapFunctionsInSubqueries(query *querytree.Query) {
	if len(query.RangeTable) < 2 {
		return
	}
	for _, rte := range query.RangeTable {
		if rte.Kind != querytree.RTEFunction || rte.Lateral || rte.WithOrdinality {
			continue
		}
		rp.wrapFunctionRTE(rte)
	}
}

// wrapFunctionRTE turns one function RTE into SELECT <columns> FROM
// fn(...) nested under a subquery RTE with the same visible shape.
func (rp *RecursivePlanner) wrapFunctionRTE(rte *querytree.RangeTableEntry) {
	inner := querytree.CopyRangeTableEntry(rte)

	names, types := functionColumnShape(inner)
	targetList := make([]*querytree.TargetEntry, len(names))
	for i := range names {
		targetList[i] = querytree.NewTargetEntry(querytree.NewVar(1, i+1, types[i]), i+1, names[i])
	}

	rte.Kind = querytree.RTESubquery
	rte.Subquery = &querytree.Query{
		CommandType: querytree.CommandSelect,
		RangeTable:  []*querytree.RangeTableEntry{inner},
		JoinTree:    &querytree.FromExpr{FromList: []querytree.JoinTreeNode{&querytree.RangeTableRef{Index: 1}}},
		TargetList:  targetList,
	}
	rte.Function = nil
	if len(rte.ColumnNames) == 0 {
		rte.ColumnNames = names
	}
}

// functionColumnShape determines the output columns of a function RTE: a
// column definition list when the call site gave one, otherwise a single
// column named after the entry, typed by the function's return type.
func functionColumnShape(rte *querytree.RangeTableEntry) (names []string, types []querytree.ColumnType) {
	fn := rte.Function
	if len(fn.ColumnNames) > 0 {
		return fn.ColumnNames, fn.ColumnTypes
	}
	if len(rte.ColumnNames) > 0 && len(rte.ColumnTypes) == len(rte.ColumnNames) {
		return rte.ColumnNames, rte.ColumnTypes
	}
	return []string{rte.EffectiveName()}, []querytree.ColumnType{fn.FuncExpr.ReturnType}
}
