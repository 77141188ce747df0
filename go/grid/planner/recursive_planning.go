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

// Package planner implements the recursive subquery and CTE planner of
// the GridSQL coordinator.
//
// A multi-shard statement can only be pushed down to the workers as one
// round of fragment queries when every joined part is colocated: joined
// on equal distribution keys, or recurring (reference tables, VALUES,
// functions) in positions where recurring input is safe. The recursive
// planner repairs every statement that breaks this rule by extracting the
// offending CTEs and subqueries into separate fragments, materializing
// each as an intermediate result, and substituting a
// read_intermediate_result() call for the original subtree. What remains
// is pushdown-safe by construction.
//
// Extraction recurses: each extracted fragment is planned by the full
// planner again, which may extract further fragments of its own. The
// planner tracks this nesting so callers can tell a top-level plan from a
// subplan of one.
package planner

import (
	"gridsql.io/gridsql/go/grid/catalog"
	"gridsql.io/gridsql/go/grid/griderrors"
	"gridsql.io/gridsql/go/grid/log"
	"gridsql.io/gridsql/go/grid/planner/restriction"
	"gridsql.io/gridsql/go/grid/querytree"
)

// RecursivePlanner rewrites statements until they are pushdown-safe. One
// planner instance serves one planning session; it is not safe for
// concurrent use.
type RecursivePlanner struct {
	catalog  catalog.Resolver
	planner  SingleNodePlanner
	settings *Settings

	// depth counts how many recursive planning invocations are on the
	// stack. Non-zero while fragments extracted by an outer invocation
	// are being planned.
	depth int
}

// NewRecursivePlanner returns a planner over the given catalog. A nil
// settings uses DefaultSettings.
func NewRecursivePlanner(resolver catalog.Resolver, single SingleNodePlanner, settings *Settings) *RecursivePlanner {
	if settings == nil {
		settings = DefaultSettings()
	}
	return &RecursivePlanner{
		catalog:  resolver,
		planner:  single,
		settings: settings,
	}
}

// GeneratingSubplans reports whether the planner is currently inside a
// recursive invocation, planning a fragment extracted by an outer one.
func (rp *RecursivePlanner) GeneratingSubplans() bool {
	return rp.depth > 0
}

// planningContext carries the per-statement state threaded through the
// planning passes.
type planningContext struct {
	// planID identifies the statement; it prefixes every result name.
	planID uint64

	// level is the subquery nesting depth of the query currently being
	// planned, starting at 0 for the statement itself.
	level int

	// subPlans collects the extracted fragments in execution order.
	subPlans []*DistributedSubPlan

	// allDistributionKeysEqual is computed once for the whole statement:
	// true when every sharded relation anywhere in it joins on equal
	// distribution keys.
	allDistributionKeysEqual bool

	// restriction is the optimizer side channel for the whole statement.
	restriction *restriction.Context
}

// GenerateSubplansForSubqueriesAndCTEs is the entry point of the
// recursive planner. It rewrites query in place, replacing every CTE and
// every unpushable subquery with a read of a materialized intermediate
// result, and returns the subplans that will produce those results, in
// execution order. Statements that are already pushdown-safe come back
// untouched with no subplans.
func (rp *RecursivePlanner) GenerateSubplansForSubqueriesAndCTEs(planID uint64, query *querytree.Query, rctx *restriction.Context) ([]*DistributedSubPlan, error) {
	rp.depth++
	defer func() { rp.depth-- }()

	pctx := &planningContext{
		planID:                   planID,
		restriction:              rctx,
		allDistributionKeysEqual: rctx.AllDistributionKeysEqual(query, rp.catalog),
	}

	deferred, err := rp.planSubqueriesAndCTEs(query, pctx)
	if err != nil {
		return nil, err
	}
	if deferred != nil {
		return nil, deferred.Raise()
	}

	if len(pctx.subPlans) > 0 && bool(log.V(1)) {
		log.Infof("plan %d query after replacing subqueries and CTEs: %s", planID, querytree.String(query))
	}
	return pctx.subPlans, nil
}

// planSubqueriesAndCTEs runs the planning passes over one query level, in
// order. The order matters: CTEs go first so their references are plain
// subqueries by the time the later passes look at them, nested subqueries
// are finished before their parents, and the correctness passes for set
// operations, non-colocated joins, local joins and recurring outer joins
// run over a tree whose inner levels are already pushdown-safe.
func (rp *RecursivePlanner) planSubqueriesAndCTEs(query *querytree.Query, pctx *planningContext) (*griderrors.DeferredError, error) {
	if deferred, err := rp.planCTEs(query, pctx); deferred != nil || err != nil {
		return deferred, err
	}

	if rp.settings.SubqueryPushdown {
		// The session vouches for colocation; only CTE extraction
		// applies.
		return nil, nil
	}

	rp.wrapFunctionsInSubqueries(query)

	if err := rp.planNestedSubqueries(query, pctx); err != nil {
		return nil, err
	}

	if rp.shouldPlanSetOperations(query, pctx) {
		if err := rp.planSetOperations(query, query.SetOperations, pctx); err != nil {
			return nil, err
		}
	}

	if query.HavingQual != nil {
		if nodeContainsSubqueryReferencingOuterQuery(query.HavingQual) {
			return griderrors.Deferred(griderrors.FeatureNotSupported,
				"Subqueries in HAVING cannot refer to outer query"), nil
		}
		if err := rp.planAllSubqueries(pctx, query.HavingQual); err != nil {
			return nil, err
		}
	}

	if rp.shouldPlanNonColocatedSubqueries(query, pctx) {
		if err := rp.planNonColocatedSubqueries(query, pctx); err != nil {
			return nil, err
		}
	}

	if rp.containsLocalTableShardedTableJoin(query.RangeTable) {
		if err := rp.planLocalTableJoins(query, pctx); err != nil {
			return nil, err
		}
	}

	if pctx.restriction.HasOuterJoin {
		if _, err := rp.planRecurringOuterJoins(query.JoinTree, query, pctx); err != nil {
			return nil, err
		}
	}

	if rp.shouldPlanSubLinks(query) {
		if query.JoinTree != nil {
			if err := rp.planAllSubqueries(pctx, query.JoinTree.Quals); err != nil {
				return nil, err
			}
		}
		targetExprs := make([]querytree.Expr, 0, len(query.TargetList))
		for _, entry := range query.TargetList {
			targetExprs = append(targetExprs, entry.Expr)
		}
		if err := rp.planAllSubqueries(pctx, targetExprs...); err != nil {
			return nil, err
		}
	}

	return nil, nil
}

// planNestedSubqueries descends into every subquery one level below
// query, plans it fully, and then decides whether the finished subquery
// still needs to be extracted into its own fragment.
func (rp *RecursivePlanner) planNestedSubqueries(query *querytree.Query, pctx *planningContext) error {
	return querytree.Walk(func(node querytree.Node) (kontinue bool, err error) {
		subquery, ok := node.(*querytree.Query)
		if !ok || subquery == query {
			return true, nil
		}

		pctx.level++
		deferred, err := rp.planSubqueriesAndCTEs(subquery, pctx)
		pctx.level--
		if err != nil {
			return false, err
		}
		if deferred != nil {
			return false, deferred.Raise()
		}

		if rp.shouldRecursivelyPlanSubquery(subquery, pctx) {
			if _, err := rp.recursivelyPlanSubquery(subquery, pctx); err != nil {
				return false, err
			}
		}
		return false, nil
	}, query)
}

// recursivelyPlanSubquery extracts one subquery into its own fragment and
// replaces it, in place, with a read of the fragment's materialized
// result. Correlated subqueries cannot stand alone and are left for the
// surrounding planner machinery; planned reports whether extraction
// happened.
func (rp *RecursivePlanner) recursivelyPlanSubquery(subquery *querytree.Query, pctx *planningContext) (planned bool, err error) {
	if ContainsReferencesToOuterQuery(subquery) {
		if log.V(2) {
			log.Infof("skipping recursive planning for the subquery since it contains references to outer queries")
		}
		return false, nil
	}

	var debugText string
	if log.V(1) {
		debugText = querytree.String(subquery)
	}

	subPlanID := len(pctx.subPlans) + 1
	if _, err := rp.createDistributedSubPlan(subPlanID, subquery, pctx); err != nil {
		return false, err
	}

	resultID := GenerateResultID(pctx.planID, subPlanID)
	resultQuery := BuildSubPlanResultQuery(subquery.TargetList, nil, resultID, rp.settings.EnableBinaryProtocol)

	if log.V(1) {
		log.Infof("generating subplan %d_%d for subquery %s", pctx.planID, subPlanID, debugText)
	}

	*subquery = *resultQuery
	return true, nil
}

// planAllSubqueries extracts every uncorrelated subquery under the given
// expressions that touches a grid-managed table, without any
// pushdownability reasoning. Used where pushdown is off the table
// entirely, like HAVING clauses and statements whose FROM has no
// distributed relation.
func (rp *RecursivePlanner) planAllSubqueries(pctx *planningContext, exprs ...querytree.Expr) error {
	nodes := make([]querytree.Node, 0, len(exprs))
	for _, expr := range exprs {
		if expr != nil {
			nodes = append(nodes, expr)
		}
	}
	return querytree.Walk(func(node querytree.Node) (kontinue bool, err error) {
		subquery, ok := node.(*querytree.Query)
		if !ok {
			return true, nil
		}
		if querytree.RangeTableContains(subquery.RangeTable, rp.isGridTableRTE) {
			if _, err := rp.recursivelyPlanSubquery(subquery, pctx); err != nil {
				return false, err
			}
		}
		return false, nil
	}, nodes...)
}

// shouldPlanSubLinks applies where the FROM clause has no distributed
// relation at all: the statement executes on the coordinator, so any
// distributed subquery in WHERE or the target list must become an
// intermediate result first.
func (rp *RecursivePlanner) shouldPlanSubLinks(query *querytree.Query) bool {
	return !querytree.RangeTableContains(query.RangeTable, rp.isShardedTableRTE)
}

func (rp *RecursivePlanner) isShardedTableRTE(rte *querytree.RangeTableEntry) bool {
	return rte.Kind == querytree.RTERelation && rp.catalog.TableType(rte.RelationID) == catalog.ShardedTable
}

func (rp *RecursivePlanner) isGridTableRTE(rte *querytree.RangeTableEntry) bool {
	return rte.Kind == querytree.RTERelation && catalog.IsGridTable(rp.catalog, rte.RelationID)
}

func (rp *RecursivePlanner) isDistributedOrReferenceRTE(rte *querytree.RangeTableEntry) bool {
	if rte.Kind != querytree.RTERelation {
		return false
	}
	switch rp.catalog.TableType(rte.RelationID) {
	case catalog.ShardedTable, catalog.ReferenceTable:
		return true
	}
	return false
}

func (rp *RecursivePlanner) isLocalTableOrMatViewRTE(rte *querytree.RangeTableEntry) bool {
	return catalog.IsLocalTableOrMatView(rp.catalog, rte)
}
