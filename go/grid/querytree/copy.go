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
	"slices"
)

// CopyQuery returns a deep copy of q. The copy shares no mutable state
// with the original, so either tree can be rewritten in place without
// affecting the other.
func CopyQuery(q *Query) *Query {
	if q == nil {
		return nil
	}
	out := &Query{
		CommandType:   q.CommandType,
		HasRecursive:  q.HasRecursive,
		JoinTree:      copyFromExpr(q.JoinTree),
		HavingQual:    CopyExpr(q.HavingQual),
		SetOperations: copySetOperation(q.SetOperations),
		LimitCount:    CopyExpr(q.LimitCount),
		LimitOffset:   CopyExpr(q.LimitOffset),
	}
	for _, cte := range q.CTEs {
		out.CTEs = append(out.CTEs, &CommonTableExpr{
			Name:          cte.Name,
			ColumnAliases: slices.Clone(cte.ColumnAliases),
			Query:         CopyQuery(cte.Query),
			RefCount:      cte.RefCount,
		})
	}
	for _, rte := range q.RangeTable {
		out.RangeTable = append(out.RangeTable, CopyRangeTableEntry(rte))
	}
	out.TargetList = copyTargetList(q.TargetList)
	out.ReturningList = copyTargetList(q.ReturningList)
	return out
}

// CopyRangeTableEntry returns a deep copy of rte, preserving its identity.
func CopyRangeTableEntry(rte *RangeTableEntry) *RangeTableEntry {
	if rte == nil {
		return nil
	}
	out := &RangeTableEntry{
		Kind:           rte.Kind,
		Identity:       rte.Identity,
		Alias:          rte.Alias,
		ColumnNames:    slices.Clone(rte.ColumnNames),
		RelationID:     rte.RelationID,
		RelationName:   rte.RelationName,
		RelationKind:   rte.RelationKind,
		Subquery:       CopyQuery(rte.Subquery),
		Lateral:        rte.Lateral,
		WithOrdinality: rte.WithOrdinality,
		ColumnTypes:    slices.Clone(rte.ColumnTypes),
		CTEName:        rte.CTEName,
		CTELevelsUp:    rte.CTELevelsUp,
	}
	if rte.Function != nil {
		out.Function = &RangeTableFunction{
			FuncExpr:    copyFuncExpr(rte.Function.FuncExpr),
			ColumnNames: slices.Clone(rte.Function.ColumnNames),
			ColumnTypes: slices.Clone(rte.Function.ColumnTypes),
		}
	}
	for _, row := range rte.ValuesLists {
		out.ValuesLists = append(out.ValuesLists, copyExprList(row))
	}
	return out
}

// CopyExpr returns a deep copy of an expression.
func CopyExpr(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch expr := e.(type) {
	case *Var:
		out := *expr
		return &out
	case *Const:
		out := *expr
		return &out
	case *FuncExpr:
		return copyFuncExpr(expr)
	case *OpExpr:
		return &OpExpr{Operator: expr.Operator, Args: copyExprList(expr.Args), Type: expr.Type}
	case *BoolExpr:
		return &BoolExpr{Op: expr.Op, Args: copyExprList(expr.Args)}
	case *Aggref:
		return &Aggref{Name: expr.Name, Args: copyExprList(expr.Args), Type: expr.Type, LevelsUp: expr.LevelsUp}
	case *GroupingFunc:
		return &GroupingFunc{Args: copyExprList(expr.Args), LevelsUp: expr.LevelsUp}
	case *PlaceHolderVar:
		return &PlaceHolderVar{Expr: CopyExpr(expr.Expr), LevelsUp: expr.LevelsUp}
	case *SubLink:
		return &SubLink{Type: expr.Type, TestExpr: CopyExpr(expr.TestExpr), Subquery: CopyQuery(expr.Subquery)}
	default:
		panic(fmt.Sprintf("BUG: unexpected expression type %T in copy", e))
	}
}

func copyFuncExpr(f *FuncExpr) *FuncExpr {
	if f == nil {
		return nil
	}
	return &FuncExpr{
		Name:       f.Name,
		Args:       copyExprList(f.Args),
		ReturnType: f.ReturnType,
		ReturnsSet: f.ReturnsSet,
	}
}

func copyExprList(exprs []Expr) []Expr {
	if exprs == nil {
		return nil
	}
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, CopyExpr(e))
	}
	return out
}

func copyTargetList(tl []*TargetEntry) []*TargetEntry {
	if tl == nil {
		return nil
	}
	out := make([]*TargetEntry, 0, len(tl))
	for _, te := range tl {
		out = append(out, &TargetEntry{
			Expr:  CopyExpr(te.Expr),
			ResNo: te.ResNo,
			Name:  te.Name,
			Junk:  te.Junk,
		})
	}
	return out
}

func copyFromExpr(f *FromExpr) *FromExpr {
	if f == nil {
		return nil
	}
	out := &FromExpr{Quals: CopyExpr(f.Quals)}
	for _, item := range f.FromList {
		out.FromList = append(out.FromList, copyJoinTreeNode(item))
	}
	return out
}

func copyJoinTreeNode(node JoinTreeNode) JoinTreeNode {
	switch n := node.(type) {
	case nil:
		return nil
	case *FromExpr:
		return copyFromExpr(n)
	case *JoinExpr:
		return &JoinExpr{
			Type:  n.Type,
			Left:  copyJoinTreeNode(n.Left),
			Right: copyJoinTreeNode(n.Right),
			Quals: CopyExpr(n.Quals),
		}
	case *RangeTableRef:
		return &RangeTableRef{Index: n.Index}
	default:
		panic(fmt.Sprintf("BUG: unexpected join tree node type %T in copy", node))
	}
}

func copySetOperation(op *SetOperation) *SetOperation {
	if op == nil {
		return nil
	}
	return &SetOperation{
		Op:    op.Op,
		All:   op.All,
		Left:  copySetOperationBranch(op.Left),
		Right: copySetOperationBranch(op.Right),
	}
}

func copySetOperationBranch(node Node) Node {
	switch n := node.(type) {
	case nil:
		return nil
	case *SetOperation:
		return copySetOperation(n)
	case *RangeTableRef:
		return &RangeTableRef{Index: n.Index}
	default:
		panic(fmt.Sprintf("BUG: unexpected set operation branch type %T in copy", node))
	}
}
