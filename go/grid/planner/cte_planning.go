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

// planCTEs extracts every CTE of query into its own subplan and turns
// each reference to it into a subquery reading the materialized result.
// CTEs are always materialized, never inlined; that preserves their
// single-evaluation semantics across shards. The CTE list is cleared when
// the pass succeeds, so later passes see plain subqueries.
func (rp *RecursivePlanner) planCTEs(query *querytree.Query, pctx *planningContext) (*griderrors.DeferredError, error) {
	if len(query.CTEs) == 0 {
		return nil, nil
	}
	if query.HasRecursive {
		return griderrors.Deferred(griderrors.FeatureNotSupported,
			"recursive CTEs are only supported when they contain a filter on the distribution column"), nil
	}

	refs := collectCTEReferences(query)

	for _, cte := range query.CTEs {
		if ContainsReferencesToOuterQuery(cte.Query) {
			return griderrors.Deferred(griderrors.FeatureNotSupported,
				"CTEs that refer to other subqueries are not supported in multi-shard queries"), nil
		}

		if cte.RefCount == 0 && cte.Query.CommandType == querytree.CommandSelect {
			// Unreferenced SELECT CTEs have no side effects; skip the
			// round trip.
			continue
		}

		subPlanID := len(pctx.subPlans) + 1
		if log.V(1) {
			log.Infof("generating subplan %d_%d for CTE %s: %s",
				pctx.planID, subPlanID, cte.Name, querytree.String(cte.Query))
		}

		if _, err := rp.createDistributedSubPlan(subPlanID, cte.Query, pctx); err != nil {
			return nil, err
		}

		// A modifying CTE exposes its RETURNING columns, a SELECT its
		// target list.
		cteTargetList := cte.Query.TargetList
		if len(cte.Query.ReturningList) > 0 {
			cteTargetList = cte.Query.ReturningList
		}

		resultID := GenerateResultID(pctx.planID, subPlanID)
		resultQuery := BuildSubPlanResultQuery(cteTargetList, cte.ColumnAliases, resultID, rp.settings.EnableBinaryProtocol)

		replaced := 0
		for _, rte := range refs {
			if rte.Kind != querytree.RTECTE || rte.CTEName != cte.Name {
				continue
			}
			rte.Kind = querytree.RTESubquery
			rte.CTEName = ""
			rte.CTELevelsUp = 0
			if replaced == 0 {
				rte.Subquery = resultQuery
			} else {
				rte.Subquery = querytree.CopyQuery(resultQuery)
			}
			replaced++
		}
		if replaced != cte.RefCount {
			return nil, griderrors.Bugf("replaced %d references to CTE %s, analysis counted %d",
				replaced, cte.Name, cte.RefCount)
		}
	}

	query.CTEs = nil
	return nil, nil
}

// collectCTEReferences finds every range table entry, at any nesting
// depth under query, that refers to a CTE defined at query's own level.
func collectCTEReferences(query *querytree.Query) []*querytree.RangeTableEntry {
	var refs []*querytree.RangeTableEntry
	collectCTEReferencesAtLevel(query, 0, &refs)
	return refs
}

func collectCTEReferencesAtLevel(query *querytree.Query, level int, refs *[]*querytree.RangeTableEntry) {
	_ = querytree.Walk(func(node querytree.Node) (kontinue bool, err error) {
		switch n := node.(type) {
		case *querytree.Query:
			if n != query {
				collectCTEReferencesAtLevel(n, level+1, refs)
				return false, nil
			}
		case *querytree.RangeTableEntry:
			if n.Kind == querytree.RTECTE && n.CTELevelsUp == level {
				*refs = append(*refs, n)
			}
		}
		return true, nil
	}, query)
}
