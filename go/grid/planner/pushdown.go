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
	"gridsql.io/gridsql/go/grid/griderrors"
	"gridsql.io/gridsql/go/grid/planner/restriction"
	"gridsql.io/gridsql/go/grid/querytree"
)

// shouldRecursivelyPlanSubquery decides the fate of one fully planned
// subquery. Subqueries over plain local tables are left alone; the local
// execution path handles them. A pushdown-safe subquery only needs
// extraction when the statement as a whole fails the distribution key
// equality check while the subquery on its own passes it: materializing
// such a subquery removes one source of key inequality. Everything that
// cannot be pushed down is extracted outright.
func (rp *RecursivePlanner) shouldRecursivelyPlanSubquery(subquery *querytree.Query, pctx *planningContext) bool {
	if querytree.RangeTableContains(subquery.RangeTable, rp.isLocalTableOrMatViewRTE) {
		return false
	}
	if rp.canPushdownSubquery(subquery, pctx) {
		return !pctx.allDistributionKeysEqual && !rp.allDistributionKeysInSubqueryAreEqual(subquery, pctx)
	}
	return true
}

// allDistributionKeysInSubqueryAreEqual checks distribution key equality
// considering only the relations under subquery. A subquery that still
// owns CTEs at this point fails the check outright.
func (rp *RecursivePlanner) allDistributionKeysInSubqueryAreEqual(subquery *querytree.Query, pctx *planningContext) bool {
	if len(subquery.CTEs) > 0 {
		return false
	}
	filtered := pctx.restriction.FilterForQuery(subquery)
	return filtered.AllDistributionKeysEqual(subquery, rp.catalog)
}

// canPushdownSubquery reports whether the subquery could run as part of
// its parent's fragment queries, ignoring distribution key equality
// (shouldRecursivelyPlanSubquery layers that on top).
func (rp *RecursivePlanner) canPushdownSubquery(subquery *querytree.Query, pctx *planningContext) bool {
	if !querytree.RangeTableContains(subquery.RangeTable, rp.isShardedTableRTE) {
		// Recurring subqueries produce the same rows on every worker
		// and push down as-is.
		return true
	}
	if subquery.LimitCount != nil || subquery.LimitOffset != nil {
		// LIMIT over a sharded relation needs a global merge step.
		return false
	}
	if subquery.SetOperations != nil {
		if rp.setOperationMixesRecurringAndDistributed(subquery, subquery.SetOperations) {
			return false
		}
		filtered := pctx.restriction.FilterForQuery(subquery)
		if !filtered.SafeToPushdownUnion(subquery, rp.catalog) {
			return false
		}
	}
	if rp.hasRecurringOuterJoinWithDistributedSide(subquery) {
		return false
	}
	return true
}

// containsSubquery reports whether the query joins any sub-SELECT or has
// sublinks in WHERE, which is the precondition for the non-colocated
// subquery pass to have anything to do.
func (rp *RecursivePlanner) containsSubquery(query *querytree.Query) bool {
	for _, rte := range query.RangeTable {
		if rte.Kind == querytree.RTESubquery {
			return true
		}
	}
	if query.JoinTree != nil && len(extractSubLinks(query.JoinTree.Quals)) > 0 {
		return true
	}
	return false
}

// shouldPlanNonColocatedSubqueries gates the pass that repairs joins
// between subqueries on unequal distribution keys. It only applies when
// the statement failed the global key equality check but each subquery
// passes its own, meaning the inequality comes from how the subqueries
// join each other.
func (rp *RecursivePlanner) shouldPlanNonColocatedSubqueries(query *querytree.Query, pctx *planningContext) bool {
	if pctx.allDistributionKeysEqual {
		return false
	}
	if !rp.containsSubquery(query) {
		return false
	}
	if querytree.RangeTableContains(query.RangeTable, rp.isLocalTableOrMatViewRTE) {
		return false
	}
	return !rp.allDistributionKeysInSubqueryAreEqual(query, pctx)
}

// planNonColocatedSubqueries anchors on the first sharded subquery of the
// level and extracts every sibling subquery, in FROM or in WHERE
// sublinks, that does not join the anchor on equal distribution keys.
func (rp *RecursivePlanner) planNonColocatedSubqueries(query *querytree.Query, pctx *planningContext) error {
	checker, ok := restriction.NewColocatedJoinChecker(query, pctx.restriction, rp.catalog)
	if !ok {
		return nil
	}

	if err := rp.planNonColocatedJoinItem(query, query.JoinTree, &checker, pctx); err != nil {
		return err
	}

	if query.JoinTree != nil {
		for _, subLink := range extractSubLinks(query.JoinTree.Quals) {
			if subLink.Subquery == nil {
				continue
			}
			if !checker.Colocated(subLink.Subquery) {
				if _, err := rp.recursivelyPlanSubquery(subLink.Subquery, pctx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (rp *RecursivePlanner) planNonColocatedJoinItem(query *querytree.Query, node querytree.JoinTreeNode, checker *restriction.ColocatedJoinChecker, pctx *planningContext) error {
	switch n := node.(type) {
	case nil:
		return nil
	case *querytree.FromExpr:
		for _, item := range n.FromList {
			if err := rp.planNonColocatedJoinItem(query, item, checker, pctx); err != nil {
				return err
			}
		}
	case *querytree.JoinExpr:
		if err := rp.planNonColocatedJoinItem(query, n.Left, checker, pctx); err != nil {
			return err
		}
		if err := rp.planNonColocatedJoinItem(query, n.Right, checker, pctx); err != nil {
			return err
		}
	case *querytree.RangeTableRef:
		rte := query.RTE(n.Index)
		if rte.Kind != querytree.RTESubquery {
			return nil
		}
		if !checker.Colocated(rte.Subquery) {
			if _, err := rp.recursivelyPlanSubquery(rte.Subquery, pctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// shouldPlanSetOperations reports whether the set operation tree of query
// cannot be pushed down as-is. Only nested UNION trees whose branches keep
// the distribution column in the same output position qualify for
// pushdown.
func (rp *RecursivePlanner) shouldPlanSetOperations(query *querytree.Query, pctx *planningContext) bool {
	if query.SetOperations == nil {
		return false
	}
	if pctx.level == 0 {
		// A top-level set operation cannot run as a fragment query.
		// Planning the leaves turns the statement into a single-node
		// query over intermediate results.
		return true
	}
	if !rp.setOperationIsPureUnion(query.SetOperations) {
		return true
	}
	if rp.setOperationMixesRecurringAndDistributed(query, query.SetOperations) {
		return true
	}
	filtered := pctx.restriction.FilterForQuery(query)
	return !filtered.SafeToPushdownUnion(query, rp.catalog)
}

func (rp *RecursivePlanner) setOperationIsPureUnion(node querytree.Node) bool {
	op, ok := node.(*querytree.SetOperation)
	if !ok {
		return true
	}
	if op.Op != querytree.SetOpUnion {
		return false
	}
	return rp.setOperationIsPureUnion(op.Left) && rp.setOperationIsPureUnion(op.Right)
}

// setOperationMixesRecurringAndDistributed reports whether some leaves of
// the set operation tree read sharded tables while others do not. Such
// trees cannot run in one fragment round: the recurring leaves would be
// duplicated per shard.
func (rp *RecursivePlanner) setOperationMixesRecurringAndDistributed(query *querytree.Query, node querytree.Node) bool {
	sawRecurring, sawDistributed := rp.classifySetOpLeaves(query, node)
	return sawRecurring && sawDistributed
}

func (rp *RecursivePlanner) classifySetOpLeaves(query *querytree.Query, node querytree.Node) (recurring, distributed bool) {
	switch n := node.(type) {
	case *querytree.SetOperation:
		lr, ld := rp.classifySetOpLeaves(query, n.Left)
		rr, rd := rp.classifySetOpLeaves(query, n.Right)
		return lr || rr, ld || rd
	case *querytree.RangeTableRef:
		rte := query.RTE(n.Index)
		if rte.Kind == querytree.RTESubquery &&
			querytree.RangeTableContains(rte.Subquery.RangeTable, rp.isShardedTableRTE) {
			return false, true
		}
		return true, false
	}
	return false, false
}

// planSetOperations extracts every leaf of an unpushable set operation
// tree that reads a sharded table. Recurring leaves stay; they are safe
// in the merged result.
func (rp *RecursivePlanner) planSetOperations(query *querytree.Query, node querytree.Node, pctx *planningContext) error {
	switch n := node.(type) {
	case *querytree.SetOperation:
		if err := rp.planSetOperations(query, n.Left, pctx); err != nil {
			return err
		}
		return rp.planSetOperations(query, n.Right, pctx)
	case *querytree.RangeTableRef:
		rte := query.RTE(n.Index)
		if rte.Kind != querytree.RTESubquery {
			return nil
		}
		if querytree.RangeTableContains(rte.Subquery.RangeTable, rp.isShardedTableRTE) {
			if _, err := rp.recursivelyPlanSubquery(rte.Subquery, pctx); err != nil {
				return err
			}
		}
		return nil
	default:
		return griderrors.Bugf("unexpected node type %T in set operation tree", node)
	}
}
