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

package restriction

import (
	"gridsql.io/gridsql/go/grid/catalog"
	"gridsql.io/gridsql/go/grid/querytree"
)

// ColocatedJoinChecker decides whether candidate subqueries are joined to a
// fixed anchor on equal distribution keys. The checker is built once per
// query level; each non-colocated candidate found with it gets its own
// subplan.
type ColocatedJoinChecker struct {
	anchorRefs []ColumnRef
	ctx        *Context
	resolver   catalog.Resolver
}

// NewColocatedJoinChecker picks an anchor among the subqueries of query and
// returns a checker against it. The anchor is the first subquery RTE that
// contains a sharded relation. ok is false when no subquery qualifies; the
// caller then has nothing to repair at this level.
func NewColocatedJoinChecker(query *querytree.Query, ctx *Context, resolver catalog.Resolver) (ColocatedJoinChecker, bool) {
	for _, rte := range query.RangeTable {
		if rte.Kind != querytree.RTESubquery || rte.Subquery == nil {
			continue
		}
		refs := DistributionColumnRefs(rte.Subquery, resolver)
		if len(refs) == 0 {
			continue
		}
		return ColocatedJoinChecker{anchorRefs: refs, ctx: ctx, resolver: resolver}, true
	}
	return ColocatedJoinChecker{}, false
}

// Colocated reports whether subquery joins the anchor on equal distribution
// keys: the union of the anchor's and the candidate's distribution column
// references must fall into one equivalence class. Subqueries without any
// sharded relation are trivially colocated; materializing them buys
// nothing.
func (c *ColocatedJoinChecker) Colocated(subquery *querytree.Query) bool {
	refs := DistributionColumnRefs(subquery, c.resolver)
	if len(refs) == 0 {
		return true
	}
	combined := make([]ColumnRef, 0, len(c.anchorRefs)+len(refs))
	combined = append(combined, c.anchorRefs...)
	combined = append(combined, refs...)
	return c.ctx.allInOneClass(combined)
}
