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

// containsLocalTableShardedTableJoin reports whether the range table
// joins a plain local relation (or materialized view) with a distributed
// one. Such joins cannot run on either side alone: the local rows live on
// the coordinator, the distributed rows on the workers.
func (rp *RecursivePlanner) containsLocalTableShardedTableJoin(rtes []*querytree.RangeTableEntry) bool {
	sawLocal := false
	sawDistributed := false
	for _, rte := range rtes {
		if rp.isDistributedOrReferenceRTE(rte) {
			sawDistributed = true
			continue
		}
		if rp.isRecursivelyPlannableRelation(rte) && rp.isLocalTableOrMatViewRTE(rte) {
			sawLocal = true
		}
	}
	return sawLocal && sawDistributed
}

// isRecursivelyPlannableRelation reports whether a relation RTE can be
// wrapped into a subquery and materialized. Views disappear during
// rewriting, so only ordinary relations, partitioned tables, foreign
// tables and materialized views qualify.
func (rp *RecursivePlanner) isRecursivelyPlannableRelation(rte *querytree.RangeTableEntry) bool {
	if rte.Kind != querytree.RTERelation {
		return false
	}
	return rte.RelationKind != querytree.RelationView
}

// planLocalTableJoins makes a local/distributed join executable by
// materializing the local side: each local relation is wrapped into a
// subquery which is then extracted into its own subplan, read on the
// coordinator and shipped to the workers as an intermediate result.
func (rp *RecursivePlanner) planLocalTableJoins(query *querytree.Query, pctx *planningContext) error {
	for _, rte := range query.RangeTable {
		if !rp.isRecursivelyPlannableRelation(rte) || !rp.isLocalTableOrMatViewRTE(rte) {
			continue
		}
		if err := rp.replaceRelationRTEWithSubquery(rte, pctx); err != nil {
			return err
		}
	}
	return nil
}

// replaceRelationRTEWithSubquery rewrites one relation RTE into a
// subquery RTE reading the materialized relation contents. The inner
// SELECT over the relation is extracted into its own subplan, then
// wrapped once more so the entry keeps its original column numbering.
// The inner copy keeps the entry's identity, so restriction metadata
// collected for the relation stays valid.
func (rp *RecursivePlanner) replaceRelationRTEWithSubquery(rte *querytree.RangeTableEntry, pctx *planningContext) error {
	inner := querytree.CopyRangeTableEntry(rte)
	names := inner.ColumnNames
	types := relationColumnTypes(inner)

	targetList := make([]*querytree.TargetEntry, len(names))
	for i := range names {
		targetList[i] = querytree.NewTargetEntry(querytree.NewVar(1, i+1, types[i]), i+1, names[i])
	}
	subquery := &querytree.Query{
		CommandType: querytree.CommandSelect,
		RangeTable:  []*querytree.RangeTableEntry{inner},
		JoinTree:    &querytree.FromExpr{FromList: []querytree.JoinTreeNode{&querytree.RangeTableRef{Index: 1}}},
		TargetList:  targetList,
	}

	if log.V(1) {
		log.Infof("wrapping relation %q in a subquery", rte.EffectiveName())
	}

	rte.Kind = querytree.RTESubquery
	rte.Subquery = subquery
	rte.Function = nil

	planned, err := rp.recursivelyPlanSubquery(subquery, pctx)
	if err != nil {
		return err
	}
	if !planned {
		return griderrors.Bugf("relation %s was wrapped but not recursively planned", rte.EffectiveName())
	}

	rte.Subquery = createOuterSubquery(rte, names, types)
	return nil
}

// createOuterSubquery adds an identity wrapper around an already planned
// subquery RTE, restoring the column shape the rest of the query level
// expects.
func createOuterSubquery(rte *querytree.RangeTableEntry, names []string, types []querytree.ColumnType) *querytree.Query {
	inner := &querytree.RangeTableEntry{
		Kind:        querytree.RTESubquery,
		Alias:       rte.Alias,
		ColumnNames: names,
		Subquery:    rte.Subquery,
	}

	targetList := make([]*querytree.TargetEntry, len(names))
	for i := range names {
		targetList[i] = querytree.NewTargetEntry(querytree.NewVar(1, i+1, types[i]), i+1, names[i])
	}

	return &querytree.Query{
		CommandType: querytree.CommandSelect,
		RangeTable:  []*querytree.RangeTableEntry{inner},
		JoinTree:    &querytree.FromExpr{FromList: []querytree.JoinTreeNode{&querytree.RangeTableRef{Index: 1}}},
		TargetList:  targetList,
	}
}

// relationColumnTypes returns the column types of a relation RTE, filling
// in text for entries whose analysis did not record a type.
func relationColumnTypes(rte *querytree.RangeTableEntry) []querytree.ColumnType {
	types := make([]querytree.ColumnType, len(rte.ColumnNames))
	for i := range types {
		if i < len(rte.ColumnTypes) {
			types[i] = rte.ColumnTypes[i]
		} else {
			types[i] = querytree.TypeText
		}
	}
	return types
}
