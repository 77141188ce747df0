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
	"fmt"

	"gridsql.io/gridsql/go/grid/griderrors"
	"gridsql.io/gridsql/go/grid/querytree"
)

const (
	// ReadIntermediateResultFunc reads one materialized intermediate
	// result on a worker.
	ReadIntermediateResultFunc = "read_intermediate_result"

	// ReadIntermediateResultsFunc reads and concatenates an array of
	// materialized intermediate results.
	ReadIntermediateResultsFunc = "read_intermediate_results"
)

// PhysicalPlan is an executable plan for one fragment. The recursive
// planner never looks inside it; it only stores it on the subplan.
type PhysicalPlan interface {
	// Describe returns a one-line human readable summary.
	Describe() string
}

// CursorOptions carry per-fragment planning hints.
type CursorOptions struct {
	// ForceDistributed requires the fragment to be planned as a
	// distributed query even when it touches no distributed table. Set
	// for fragments reading intermediate results, which only exist on
	// the workers.
	ForceDistributed bool
}

// SingleNodePlanner plans one extracted fragment in isolation. The
// production implementation runs the full distributed planner; tests plug
// in fakes.
type SingleNodePlanner interface {
	Plan(query *querytree.Query, opts CursorOptions) (PhysicalPlan, error)
}

// DistributedSubPlan is one extracted fragment. Subplans execute in the
// order they were generated, each materializing its result before the
// next starts.
type DistributedSubPlan struct {
	// SubPlanID numbers the fragment within its statement, starting
	// at 1.
	SubPlanID int

	Plan PhysicalPlan
}

// GenerateResultID names the materialized result of one subplan. The
// statement-level plan identifier keeps concurrent statements apart.
func GenerateResultID(planID uint64, subPlanID int) string {
	return fmt.Sprintf("%d_%d", planID, subPlanID)
}

// ContainsReadIntermediateResultCall reports whether any expression under
// node calls one of the intermediate result reader functions.
func ContainsReadIntermediateResultCall(node querytree.Node) bool {
	return querytree.ContainsNode(func(n querytree.Node) bool {
		fn, ok := n.(*querytree.FuncExpr)
		if !ok {
			return false
		}
		return fn.Name == ReadIntermediateResultFunc || fn.Name == ReadIntermediateResultsFunc
	}, node)
}

// createDistributedSubPlan plans one extracted fragment and records it.
// The fragment is copied before planning so the later in-place rewrite of
// the original node cannot reach into the stored plan.
func (rp *RecursivePlanner) createDistributedSubPlan(subPlanID int, query *querytree.Query, pctx *planningContext) (*DistributedSubPlan, error) {
	opts := CursorOptions{}
	if ContainsReadIntermediateResultCall(query) {
		opts.ForceDistributed = true
	}

	plan, err := rp.planner.Plan(querytree.CopyQuery(query), opts)
	if err != nil {
		return nil, griderrors.Wrapf(err, "planning subplan %s", GenerateResultID(pctx.planID, subPlanID))
	}

	subPlan := &DistributedSubPlan{SubPlanID: subPlanID, Plan: plan}
	pctx.subPlans = append(pctx.subPlans, subPlan)
	return subPlan, nil
}
