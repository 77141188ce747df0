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

// Package restriction carries the join and filter metadata the surrounding
// optimizer pass computes once per statement. The recursive planner never
// derives equality information from expressions itself; it asks this
// package whether the distribution columns of the sharded relations in a
// query all fall into one equivalence class.
package restriction

import (
	"gridsql.io/gridsql/go/grid/catalog"
	"gridsql.io/gridsql/go/grid/querytree"
)

// ColumnRef names one column by the stable identity of its range table
// entry and its 1-based attribute number.
type ColumnRef struct {
	RTEIdentity int
	AttNo       int
}

// RelationRestriction records the per-relation metadata the optimizer
// collected for one relation range table entry.
type RelationRestriction struct {
	RelationID  uint64
	RTEIdentity int
}

// Context is the restriction side channel threaded through planning. One
// Context is built for the whole statement; FilterForQuery narrows it to a
// single subquery.
type Context struct {
	// Relations lists every relation RTE the optimizer saw, including
	// those inside subqueries.
	Relations []*RelationRestriction

	// EquivalenceClasses groups columns proven equal by join and filter
	// clauses. Each class is a set of column references; two columns are
	// equal iff some class contains both.
	EquivalenceClasses [][]ColumnRef

	// HasOuterJoin is set when the statement contains any outer join.
	HasOuterJoin bool
}

// FilterForQuery returns a copy of the context narrowed to the range table
// entries reachable from query, including those of nested subqueries.
// Equivalence class members referring to other parts of the statement are
// dropped.
func (ctx *Context) FilterForQuery(query *querytree.Query) *Context {
	identities := collectRTEIdentities(query)

	out := &Context{HasOuterJoin: ctx.HasOuterJoin}
	for _, rel := range ctx.Relations {
		if identities[rel.RTEIdentity] {
			out.Relations = append(out.Relations, rel)
		}
	}
	for _, class := range ctx.EquivalenceClasses {
		var filtered []ColumnRef
		for _, ref := range class {
			if identities[ref.RTEIdentity] {
				filtered = append(filtered, ref)
			}
		}
		if len(filtered) > 0 {
			out.EquivalenceClasses = append(out.EquivalenceClasses, filtered)
		}
	}
	return out
}

// SameClass reports whether two columns fall into one equivalence class.
// A column is trivially in a class with itself.
func (ctx *Context) SameClass(a, b ColumnRef) bool {
	if a == b {
		return true
	}
	for _, class := range ctx.EquivalenceClasses {
		foundA, foundB := false, false
		for _, ref := range class {
			if ref == a {
				foundA = true
			}
			if ref == b {
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}

// AllDistributionKeysEqual reports whether the distribution columns of all
// sharded relations under query are pairwise equal through the context's
// equivalence classes. Queries with at most one sharded relation satisfy
// this trivially.
func (ctx *Context) AllDistributionKeysEqual(query *querytree.Query, resolver catalog.Resolver) bool {
	refs := DistributionColumnRefs(query, resolver)
	return ctx.allInOneClass(refs)
}

func (ctx *Context) allInOneClass(refs []ColumnRef) bool {
	if len(refs) <= 1 {
		return true
	}
	first := refs[0]
	for _, ref := range refs[1:] {
		if !ctx.SameClass(first, ref) {
			return false
		}
	}
	return true
}

// DistributionColumnRefs collects the distribution column reference of
// every sharded relation RTE reachable from query, nested subqueries
// included. Entries without an assigned identity are skipped; the
// optimizer did not see them, so no equality can be proven about them.
func DistributionColumnRefs(query *querytree.Query, resolver catalog.Resolver) []ColumnRef {
	var refs []ColumnRef
	_ = querytree.Walk(func(node querytree.Node) (bool, error) {
		rte, ok := node.(*querytree.RangeTableEntry)
		if !ok {
			return true, nil
		}
		if rte.Kind != querytree.RTERelation || rte.Identity == 0 {
			return true, nil
		}
		if attNo, ok := resolver.DistributionColumn(rte.RelationID); ok {
			refs = append(refs, ColumnRef{RTEIdentity: rte.Identity, AttNo: attNo})
		}
		return true, nil
	}, query)
	return refs
}

func collectRTEIdentities(query *querytree.Query) map[int]bool {
	identities := make(map[int]bool)
	_ = querytree.Walk(func(node querytree.Node) (bool, error) {
		if rte, ok := node.(*querytree.RangeTableEntry); ok && rte.Identity != 0 {
			identities[rte.Identity] = true
		}
		return true, nil
	}, query)
	return identities
}

// SafeToPushdownUnion reports whether a set-operation query can run on the
// shards directly: every operation in the tree is a UNION, and every branch
// exposes the distribution column of some sharded relation at the same
// target list position.
func (ctx *Context) SafeToPushdownUnion(query *querytree.Query, resolver catalog.Resolver) bool {
	if query.SetOperations == nil {
		return false
	}
	position := 0
	return ctx.unionBranchesAligned(query, query.SetOperations, resolver, &position)
}

func (ctx *Context) unionBranchesAligned(query *querytree.Query, node querytree.Node, resolver catalog.Resolver, position *int) bool {
	switch n := node.(type) {
	case *querytree.SetOperation:
		if n.Op != querytree.SetOpUnion {
			return false
		}
		return ctx.unionBranchesAligned(query, n.Left, resolver, position) &&
			ctx.unionBranchesAligned(query, n.Right, resolver, position)
	case *querytree.RangeTableRef:
		branch := query.RTE(n.Index).Subquery
		if branch == nil {
			return false
		}
		pos := distributionColumnPosition(branch, resolver)
		if pos == 0 {
			return false
		}
		if *position == 0 {
			*position = pos
			return true
		}
		return *position == pos
	default:
		return false
	}
}

// distributionColumnPosition returns the 1-based target list position at
// which branch exposes the distribution column of one of its own sharded
// relations, or 0 when it exposes none.
func distributionColumnPosition(branch *querytree.Query, resolver catalog.Resolver) int {
	for _, te := range querytree.NonJunkTargetEntries(branch.TargetList) {
		v, ok := te.Expr.(*querytree.Var)
		if !ok || v.LevelsUp != 0 {
			continue
		}
		if v.VarNo < 1 || v.VarNo > len(branch.RangeTable) {
			continue
		}
		rte := branch.RTE(v.VarNo)
		if rte.Kind != querytree.RTERelation {
			continue
		}
		if attNo, ok := resolver.DistributionColumn(rte.RelationID); ok && attNo == v.AttNo {
			return te.ResNo
		}
	}
	return 0
}
