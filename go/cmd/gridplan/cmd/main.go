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

// Package cmd implements the gridplan command line tool. gridplan replays
// the recursive subquery planner over a query tree saved as JSON, using
// table metadata from a YAML file, and prints the generated subplans and
// the rewritten query. It exists for debugging planner decisions without
// a running cluster.
package cmd

import (
	"github.com/spf13/cobra"

	"gridsql.io/gridsql/go/grid/log"
	"gridsql.io/gridsql/go/grid/planner"
)

var (
	queryTreeFile string
	metadataFile  string
	planID        uint64

	settings = planner.DefaultSettings()
)

func Main() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridplan",
		Short: "Replay the recursive subquery planner over a saved query tree.",
		Long: "gridplan reads an analyzed query tree from a JSON file and table metadata " +
			"from a YAML file, runs the recursive subquery and CTE planner over them, and " +
			"prints the subplans the coordinator would execute along with the rewritten query.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlan,
	}

	rootCmd.Flags().StringVarP(&queryTreeFile, "query-tree", "q", "",
		"JSON file holding the analyzed query tree")
	rootCmd.MarkFlagRequired("query-tree")
	rootCmd.MarkFlagFilename("query-tree")

	rootCmd.Flags().StringVarP(&metadataFile, "metadata", "m", "",
		"YAML file describing tables, equivalence classes and outer join metadata")
	rootCmd.MarkFlagFilename("metadata")

	rootCmd.Flags().Uint64Var(&planID, "plan-id", 1,
		"plan identifier used as the prefix of intermediate result names")

	settings.RegisterFlags(rootCmd.Flags())
	log.RegisterFlags(rootCmd.PersistentFlags())

	return rootCmd
}
