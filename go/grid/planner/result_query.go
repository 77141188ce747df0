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

const (
	copyFormatText   = "text"
	copyFormatBinary = "binary"

	// intermediateResultAlias is the range table alias of every reader
	// call, so rewritten fragments stay recognizable in logs and EXPLAIN
	// output.
	intermediateResultAlias = "intermediate_result"
)

// CanUseBinaryCopyFormat reports whether every non-junk output column of
// the target list has a type the binary copy protocol can carry.
func CanUseBinaryCopyFormat(targetList []*querytree.TargetEntry) bool {
	for _, entry := range querytree.NonJunkTargetEntries(targetList) {
		if !querytree.TypeOf(entry.Expr).SupportsBinaryProtocol() {
			return false
		}
	}
	return true
}

// resultColumnShape derives the visible column names and types of a
// materialized result from the target list that produced it. Explicit
// column aliases override the names position by position.
func resultColumnShape(targetList []*querytree.TargetEntry, columnAliases []string) (names []string, types []querytree.ColumnType) {
	entries := querytree.NonJunkTargetEntries(targetList)
	names = querytree.TargetColumnNames(entries)
	for i := range names {
		if i < len(columnAliases) {
			names[i] = columnAliases[i]
		}
	}
	types = make([]querytree.ColumnType, len(entries))
	for i, entry := range entries {
		types[i] = querytree.TypeOf(entry.Expr)
	}
	return names, types
}

// readerResultQuery assembles SELECT <columns> FROM fn(...) AS
// intermediate_result(<columns>) around the given reader call.
func readerResultQuery(funcExpr *querytree.FuncExpr, names []string, types []querytree.ColumnType) *querytree.Query {
	rte := &querytree.RangeTableEntry{
		Kind:        querytree.RTEFunction,
		Alias:       intermediateResultAlias,
		ColumnNames: names,
		Function: &querytree.RangeTableFunction{
			FuncExpr:    funcExpr,
			ColumnNames: names,
			ColumnTypes: types,
		},
	}

	targetList := make([]*querytree.TargetEntry, len(names))
	for i := range names {
		targetList[i] = querytree.NewTargetEntry(querytree.NewVar(1, i+1, types[i]), i+1, names[i])
	}

	return &querytree.Query{
		CommandType: querytree.CommandSelect,
		RangeTable:  []*querytree.RangeTableEntry{rte},
		JoinTree:    &querytree.FromExpr{FromList: []querytree.JoinTreeNode{&querytree.RangeTableRef{Index: 1}}},
		TargetList:  targetList,
	}
}

func copyFormatConst(binary bool) *querytree.Const {
	format := copyFormatText
	if binary {
		format = copyFormatBinary
	}
	return &querytree.Const{Type: querytree.TypeCopyFormat, Value: format}
}

// BuildSubPlanResultQuery builds the replacement query for one extracted
// fragment: SELECT <columns> FROM read_intermediate_result(<resultID>,
// <format>) AS intermediate_result(<columns>). The column shape follows
// the fragment's target list, with columnAliases taking precedence over
// the original output names.
func BuildSubPlanResultQuery(targetList []*querytree.TargetEntry, columnAliases []string, resultID string, enableBinary bool) *querytree.Query {
	names, types := resultColumnShape(targetList, columnAliases)
	binary := enableBinary && CanUseBinaryCopyFormat(targetList)

	funcExpr := &querytree.FuncExpr{
		Name: ReadIntermediateResultFunc,
		Args: []querytree.Expr{
			querytree.NewStringConst(resultID),
			copyFormatConst(binary),
		},
		ReturnType: querytree.ColumnType{Name: "record"},
		ReturnsSet: true,
	}
	return readerResultQuery(funcExpr, names, types)
}

// BuildReadIntermediateResultsArrayQuery is the multi-result variant of
// BuildSubPlanResultQuery: it concatenates the named results as if they
// were one relation.
func BuildReadIntermediateResultsArrayQuery(targetList []*querytree.TargetEntry, columnAliases []string, resultIDs []string, enableBinary bool) *querytree.Query {
	names, types := resultColumnShape(targetList, columnAliases)
	binary := enableBinary && CanUseBinaryCopyFormat(targetList)

	funcExpr := &querytree.FuncExpr{
		Name: ReadIntermediateResultsFunc,
		Args: []querytree.Expr{
			querytree.NewTextArrayConst(resultIDs),
			copyFormatConst(binary),
		},
		ReturnType: querytree.ColumnType{Name: "record"},
		ReturnsSet: true,
	}
	return readerResultQuery(funcExpr, names, types)
}

// BuildEmptyResultQuery builds a query with the column shape of the
// target list that returns no rows: SELECT <columns> FROM (VALUES
// (NULL, ...)) AS <resultID>(<columns>) WHERE false. Used when a fragment
// is known empty before execution.
func BuildEmptyResultQuery(targetList []*querytree.TargetEntry, resultID string) *querytree.Query {
	names, types := resultColumnShape(targetList, nil)

	nullRow := make([]querytree.Expr, len(types))
	for i, t := range types {
		nullRow[i] = querytree.NewNullConst(t)
	}
	rte := &querytree.RangeTableEntry{
		Kind:        querytree.RTEValues,
		Alias:       resultID,
		ColumnNames: names,
		ValuesLists: [][]querytree.Expr{nullRow},
		ColumnTypes: types,
	}

	outTargetList := make([]*querytree.TargetEntry, len(names))
	for i := range names {
		outTargetList[i] = querytree.NewTargetEntry(querytree.NewVar(1, i+1, types[i]), i+1, names[i])
	}

	return &querytree.Query{
		CommandType: querytree.CommandSelect,
		RangeTable:  []*querytree.RangeTableEntry{rte},
		JoinTree: &querytree.FromExpr{
			FromList: []querytree.JoinTreeNode{&querytree.RangeTableRef{Index: 1}},
			Quals:    querytree.NewBoolConst(false),
		},
		TargetList: outTargetList,
	}
}
