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

// String renders any node through its Format method.
func String(node Node) string {
	if node == nil {
		return "<nil>"
	}
	buf := new(strings.Builder)
	node.Format(buf)
	return buf.String()
}

func (q *Query) Format(buf *strings.Builder) {
	if len(q.CTEs) > 0 {
		buf.WriteString("WITH ")
		if q.HasRecursive {
			buf.WriteString("RECURSIVE ")
		}
		for i, cte := range q.CTEs {
			if i > 0 {
				buf.WriteString(", ")
			}
			cte.Format(buf)
		}
		buf.WriteString(" ")
	}

	switch q.CommandType {
	case CommandInsert:
		buf.WriteString("INSERT ")
	case CommandUpdate:
		buf.WriteString("UPDATE ")
	case CommandDelete:
		buf.WriteString("DELETE ")
	}

	if q.SetOperations != nil {
		q.formatSetOpBranch(buf, q.SetOperations)
	} else {
		buf.WriteString("SELECT ")
		q.formatTargetList(buf, q.TargetList)
		q.formatJoinTree(buf)
	}

	if q.HavingQual != nil {
		buf.WriteString(" HAVING ")
		q.HavingQual.Format(buf)
	}
	if len(q.ReturningList) > 0 {
		buf.WriteString(" RETURNING ")
		q.formatTargetList(buf, q.ReturningList)
	}
	if q.LimitCount != nil {
		buf.WriteString(" LIMIT ")
		q.LimitCount.Format(buf)
	}
	if q.LimitOffset != nil {
		buf.WriteString(" OFFSET ")
		q.LimitOffset.Format(buf)
	}
}

func (q *Query) formatTargetList(buf *strings.Builder, tl []*TargetEntry) {
	first := true
	for _, te := range tl {
		if te.Junk {
			continue
		}
		if !first {
			buf.WriteString(", ")
		}
		first = false
		te.Format(buf)
	}
	if first {
		buf.WriteString("*")
	}
}

func (q *Query) formatJoinTree(buf *strings.Builder) {
	if q.JoinTree == nil || len(q.JoinTree.FromList) == 0 {
		if q.JoinTree != nil && q.JoinTree.Quals != nil {
			buf.WriteString(" WHERE ")
			q.JoinTree.Quals.Format(buf)
		}
		return
	}
	buf.WriteString(" FROM ")
	for i, item := range q.JoinTree.FromList {
		if i > 0 {
			buf.WriteString(", ")
		}
		q.formatFromItem(buf, item)
	}
	if q.JoinTree.Quals != nil {
		buf.WriteString(" WHERE ")
		q.JoinTree.Quals.Format(buf)
	}
}

func (q *Query) formatFromItem(buf *strings.Builder, node JoinTreeNode) {
	switch n := node.(type) {
	case *RangeTableRef:
		q.formatRTERef(buf, n.Index)
	case *JoinExpr:
		q.formatFromItem(buf, n.Left)
		fmt.Fprintf(buf, " %s ", n.Type)
		q.formatFromItem(buf, n.Right)
		if n.Quals != nil {
			buf.WriteString(" ON ")
			n.Quals.Format(buf)
		}
	case *FromExpr:
		buf.WriteString("(")
		for i, item := range n.FromList {
			if i > 0 {
				buf.WriteString(", ")
			}
			q.formatFromItem(buf, item)
		}
		buf.WriteString(")")
	default:
		fmt.Fprintf(buf, "<%T>", node)
	}
}

func (q *Query) formatRTERef(buf *strings.Builder, index int) {
	if index < 1 || index > len(q.RangeTable) {
		fmt.Fprintf(buf, "<rt %d>", index)
		return
	}
	rte := q.RangeTable[index-1]
	rte.Format(buf)
}

func (q *Query) formatSetOpBranch(buf *strings.Builder, node Node) {
	switch n := node.(type) {
	case *SetOperation:
		q.formatSetOpBranch(buf, n.Left)
		fmt.Fprintf(buf, " %s ", n.Op)
		if n.All {
			buf.WriteString("ALL ")
		}
		q.formatSetOpBranch(buf, n.Right)
	case *RangeTableRef:
		q.formatRTERef(buf, n.Index)
	default:
		fmt.Fprintf(buf, "<%T>", node)
	}
}

func (cte *CommonTableExpr) Format(buf *strings.Builder) {
	buf.WriteString(cte.Name)
	if len(cte.ColumnAliases) > 0 {
		fmt.Fprintf(buf, "(%s)", strings.Join(cte.ColumnAliases, ", "))
	}
	buf.WriteString(" AS (")
	if cte.Query != nil {
		cte.Query.Format(buf)
	}
	buf.WriteString(")")
}

func (rte *RangeTableEntry) Format(buf *strings.Builder) {
	switch rte.Kind {
	case RTERelation:
		buf.WriteString(rte.RelationName)
	case RTESubquery:
		buf.WriteString("(")
		if rte.Subquery != nil {
			rte.Subquery.Format(buf)
		}
		buf.WriteString(")")
	case RTEFunction:
		if rte.Function != nil && rte.Function.FuncExpr != nil {
			rte.Function.FuncExpr.Format(buf)
		} else {
			buf.WriteString("<function>")
		}
	case RTEValues:
		buf.WriteString("(VALUES ")
		for i, row := range rte.ValuesLists {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString("(")
			for j, expr := range row {
				if j > 0 {
					buf.WriteString(", ")
				}
				expr.Format(buf)
			}
			buf.WriteString(")")
		}
		buf.WriteString(")")
	case RTECTE:
		buf.WriteString(rte.CTEName)
	case RTEJoin:
		buf.WriteString("<join>")
	}
	if rte.Alias != "" && rte.Kind != RTECTE {
		buf.WriteString(" ")
		buf.WriteString(rte.Alias)
	}
}

func (f *RangeTableFunction) Format(buf *strings.Builder) {
	if f.FuncExpr != nil {
		f.FuncExpr.Format(buf)
	}
}

func (f *FromExpr) Format(buf *strings.Builder) {
	for i, item := range f.FromList {
		if i > 0 {
			buf.WriteString(", ")
		}
		item.Format(buf)
	}
	if f.Quals != nil {
		buf.WriteString(" WHERE ")
		f.Quals.Format(buf)
	}
}

func (j *JoinExpr) Format(buf *strings.Builder) {
	j.Left.Format(buf)
	fmt.Fprintf(buf, " %s ", j.Type)
	j.Right.Format(buf)
	if j.Quals != nil {
		buf.WriteString(" ON ")
		j.Quals.Format(buf)
	}
}

func (r *RangeTableRef) Format(buf *strings.Builder) {
	fmt.Fprintf(buf, "<rt %d>", r.Index)
}

func (op *SetOperation) Format(buf *strings.Builder) {
	op.Left.Format(buf)
	fmt.Fprintf(buf, " %s ", op.Op)
	if op.All {
		buf.WriteString("ALL ")
	}
	op.Right.Format(buf)
}

func (te *TargetEntry) Format(buf *strings.Builder) {
	te.Expr.Format(buf)
	if te.Name != "" {
		buf.WriteString(" AS ")
		buf.WriteString(te.Name)
	}
}

func (v *Var) Format(buf *strings.Builder) {
	if v.LevelsUp > 0 {
		fmt.Fprintf(buf, "$outer(%d).%d.%d", v.LevelsUp, v.VarNo, v.AttNo)
		return
	}
	fmt.Fprintf(buf, "$%d.%d", v.VarNo, v.AttNo)
}

func (c *Const) Format(buf *strings.Builder) {
	if c.IsNull {
		fmt.Fprintf(buf, "NULL::%s", c.Type.Name)
		return
	}
	switch c.Type.Name {
	case "text", "varchar", "_text", "grid_copy_format":
		fmt.Fprintf(buf, "'%s'", c.Value)
	default:
		buf.WriteString(c.Value)
	}
}

func (f *FuncExpr) Format(buf *strings.Builder) {
	buf.WriteString(f.Name)
	buf.WriteString("(")
	formatExprList(buf, f.Args)
	buf.WriteString(")")
}

func (o *OpExpr) Format(buf *strings.Builder) {
	if len(o.Args) == 2 {
		o.Args[0].Format(buf)
		fmt.Fprintf(buf, " %s ", o.Operator)
		o.Args[1].Format(buf)
		return
	}
	buf.WriteString(o.Operator)
	buf.WriteString("(")
	formatExprList(buf, o.Args)
	buf.WriteString(")")
}

func (b *BoolExpr) Format(buf *strings.Builder) {
	switch b.Op {
	case NotExpr:
		buf.WriteString("NOT ")
		if len(b.Args) > 0 {
			b.Args[0].Format(buf)
		}
	case AndExpr:
		formatBoolArgs(buf, b.Args, " AND ")
	case OrExpr:
		formatBoolArgs(buf, b.Args, " OR ")
	}
}

func formatBoolArgs(buf *strings.Builder, args []Expr, sep string) {
	buf.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			buf.WriteString(sep)
		}
		arg.Format(buf)
	}
	buf.WriteString(")")
}

func (a *Aggref) Format(buf *strings.Builder) {
	buf.WriteString(a.Name)
	buf.WriteString("(")
	formatExprList(buf, a.Args)
	buf.WriteString(")")
}

func (g *GroupingFunc) Format(buf *strings.Builder) {
	buf.WriteString("GROUPING(")
	formatExprList(buf, g.Args)
	buf.WriteString(")")
}

func (p *PlaceHolderVar) Format(buf *strings.Builder) {
	buf.WriteString("PHV(")
	if p.Expr != nil {
		p.Expr.Format(buf)
	}
	buf.WriteString(")")
}

func (s *SubLink) Format(buf *strings.Builder) {
	switch s.Type {
	case ExistsSubLink:
		buf.WriteString("EXISTS (")
	case AnySubLink:
		if s.TestExpr != nil {
			s.TestExpr.Format(buf)
			buf.WriteString(" ")
		}
		buf.WriteString("IN (")
	case AllSubLink:
		if s.TestExpr != nil {
			s.TestExpr.Format(buf)
			buf.WriteString(" ")
		}
		buf.WriteString("ALL (")
	default:
		buf.WriteString("(")
	}
	if s.Subquery != nil {
		s.Subquery.Format(buf)
	}
	buf.WriteString(")")
}

func formatExprList(buf *strings.Builder, exprs []Expr) {
	for i, expr := range exprs {
		if i > 0 {
			buf.WriteString(", ")
		}
		expr.Format(buf)
	}
}
