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
	"gridsql.io/gridsql/go/grid/log"
	"gridsql.io/gridsql/go/grid/querytree"
)

// planRecurringOuterJoins repairs outer joins whose outer side is
// recurring (reference tables, intermediate results, VALUES, functions)
// while the null-extended side is distributed. Pushing such a join down
// would evaluate the recurring side once per shard and return duplicated,
// wrongly extended rows; instead the distributed side is materialized so
// the join runs on recurring input only.
//
// The walker works bottom-up and reports whether its subtree is recurring
// after any repairs, so recurrence propagates correctly through nested
// joins.
func (rp *RecursivePlanner) planRecurringOuterJoins(node querytree.JoinTreeNode, query *querytree.Query, pctx *planningContext) (recurring bool, err error) {
	switch n := node.(type) {
	case nil:
		return false, nil
	case *querytree.FromExpr:
		for _, item := range n.FromList {
			if _, err := rp.planRecurringOuterJoins(item, query, pctx); err != nil {
				return false, err
			}
		}
		return false, nil
	case *querytree.RangeTableRef:
		return rp.rteRefIsRecurring(n, query), nil
	case *querytree.JoinExpr:
		leftRecurring, err := rp.planRecurringOuterJoins(n.Left, query, pctx)
		if err != nil {
			return false, err
		}
		rightRecurring, err := rp.planRecurringOuterJoins(n.Right, query, pctx)
		if err != nil {
			return false, err
		}

		switch n.Type {
		case querytree.JoinInner:
			return leftRecurring && rightRecurring, nil
		case querytree.JoinLeft:
			if leftRecurring && !rightRecurring {
				if log.V(1) {
					log.Infof("recursively planning right side of the left join since the outer side is a recurring rel")
				}
				if err := rp.planDistributedJoinNode(n.Right, query, pctx); err != nil {
					return false, err
				}
			}
			return leftRecurring, nil
		case querytree.JoinRight:
			if rightRecurring && !leftRecurring {
				if log.V(1) {
					log.Infof("recursively planning left side of the right join since the outer side is a recurring rel")
				}
				if err := rp.planDistributedJoinNode(n.Left, query, pctx); err != nil {
					return false, err
				}
			}
			return rightRecurring, nil
		case querytree.JoinFull:
			if leftRecurring != rightRecurring {
				side := n.Right
				sideName := "right"
				if rightRecurring {
					side = n.Left
					sideName = "left"
				}
				if log.V(1) {
					log.Infof("recursively planning %s side of the full join since the other side is a recurring rel", sideName)
				}
				if err := rp.planDistributedJoinNode(side, query, pctx); err != nil {
					return false, err
				}
			}
			return leftRecurring || rightRecurring, nil
		default:
			return false, griderrors.Bugf("unexpected join type %d", n.Type)
		}
	default:
		return false, griderrors.Bugf("unexpected node type %T in join tree", node)
	}
}

// rteRefIsRecurring reports whether a join tree leaf produces the same
// rows on every worker, which holds exactly when no sharded table appears
// anywhere under it.
func (rp *RecursivePlanner) rteRefIsRecurring(ref *querytree.RangeTableRef, query *querytree.Query) bool {
	rte := query.RTE(ref.Index)
	return !querytree.RangeTableContains([]*querytree.RangeTableEntry{rte}, rp.isShardedTableRTE)
}

// planDistributedJoinNode materializes every distributed leaf under the
// given join tree node. Relation leaves are first wrapped into
// subqueries; subquery leaves are extracted directly. Correlated
// subqueries stay, their lateral references keep them tied to the
// recurring side.
func (rp *RecursivePlanner) planDistributedJoinNode(node querytree.JoinTreeNode, query *querytree.Query, pctx *planningContext) error {
	if join, ok := node.(*querytree.JoinExpr); ok {
		if err := rp.planDistributedJoinNode(join.Left, query, pctx); err != nil {
			return err
		}
		return rp.planDistributedJoinNode(join.Right, query, pctx)
	}

	ref, ok := node.(*querytree.RangeTableRef)
	if !ok {
		return griderrors.Bugf("unexpected node type %T under outer join", node)
	}
	if rp.rteRefIsRecurring(ref, query) {
		return nil
	}

	rte := query.RTE(ref.Index)
	switch rte.Kind {
	case querytree.RTERelation:
		if log.V(1) {
			log.Infof("recursively planning distributed relation %q since it is part of a distributed join node that is outer joined with a recurring rel",
				rte.EffectiveName())
		}
		return rp.replaceRelationRTEWithSubquery(rte, pctx)
	case querytree.RTESubquery:
		if log.V(1) {
			log.Infof("recursively planning the distributed subquery since it is part of a distributed join node that is outer joined with a recurring rel")
		}
		_, err := rp.recursivelyPlanSubquery(rte.Subquery, pctx)
		return err
	default:
		return griderrors.Bugf("unexpected RTE kind %s under outer join", rte.Kind)
	}
}

// hasRecurringOuterJoinWithDistributedSide reports whether the join tree
// still contains an outer join pairing a recurring side with a
// distributed null-extended side. Such a query cannot be pushed down
// until the distributed side is materialized.
func (rp *RecursivePlanner) hasRecurringOuterJoinWithDistributedSide(query *querytree.Query) bool {
	found := false
	rp.scanRecurringOuterJoins(query.JoinTree, query, &found)
	return found
}

func (rp *RecursivePlanner) scanRecurringOuterJoins(node querytree.JoinTreeNode, query *querytree.Query, found *bool) (recurring bool) {
	switch n := node.(type) {
	case nil:
		return false
	case *querytree.FromExpr:
		for _, item := range n.FromList {
			rp.scanRecurringOuterJoins(item, query, found)
		}
		return false
	case *querytree.RangeTableRef:
		return rp.rteRefIsRecurring(n, query)
	case *querytree.JoinExpr:
		left := rp.scanRecurringOuterJoins(n.Left, query, found)
		right := rp.scanRecurringOuterJoins(n.Right, query, found)
		switch n.Type {
		case querytree.JoinLeft:
			if left && !right {
				*found = true
			}
			return left
		case querytree.JoinRight:
			if right && !left {
				*found = true
			}
			return right
		case querytree.JoinFull:
			if left != right {
				*found = true
			}
			return left || right
		default:
			return left && right
		}
	}
	return false
}
