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

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gridsql.io/gridsql/go/grid/griderrors"
	"gridsql.io/gridsql/go/grid/planner"
	"gridsql.io/gridsql/go/grid/querytree"
)

// fragmentPlan is the stub physical plan gridplan attaches to each
// subplan: just the fragment rendered back to SQL.
type fragmentPlan struct {
	text             string
	forceDistributed bool
}

func (p fragmentPlan) Describe() string { return p.text }

// textPlanner is the offline stand-in for the distributed planner.
type textPlanner struct{}

func (textPlanner) Plan(query *querytree.Query, opts planner.CursorOptions) (planner.PhysicalPlan, error) {
	return fragmentPlan{text: querytree.String(query), forceDistributed: opts.ForceDistributed}, nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(queryTreeFile)
	if err != nil {
		return griderrors.Wrapf(err, "reading query tree file %s", queryTreeFile)
	}
	var query querytree.Query
	if err := json.Unmarshal(data, &query); err != nil {
		return griderrors.Wrapf(err, "parsing query tree file %s", queryTreeFile)
	}

	cat, rctx, err := loadMetadata(metadataFile)
	if err != nil {
		return err
	}

	rp := planner.NewRecursivePlanner(cat, textPlanner{}, settings)
	subPlans, err := rp.GenerateSubplansForSubqueriesAndCTEs(planID, &query, rctx)
	if err != nil {
		return err
	}

	renderPlan(cmd.OutOrStdout(), subPlans, &query)
	return nil
}

func renderPlan(w io.Writer, subPlans []*planner.DistributedSubPlan, query *querytree.Query) {
	if len(subPlans) == 0 {
		fmt.Fprintln(w, "No subplans generated; the query is pushdown-safe as written.")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Subplan", "Result", "Fragment"})
		for _, subPlan := range subPlans {
			table.Append([]string{
				fmt.Sprintf("%d", subPlan.SubPlanID),
				planner.GenerateResultID(planID, subPlan.SubPlanID),
				subPlan.Plan.Describe(),
			})
		}
		table.SetRowLine(true)
		table.Render()
	}

	fmt.Fprintf(w, "\nRewritten query:\n%s\n", querytree.String(query))
}
