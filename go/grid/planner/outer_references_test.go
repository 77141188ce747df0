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
	"testing"

	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/grid/querytree"
)

func TestContainsReferencesToOuterQuery(t *testing.T) {
	outerVar := func(levelsUp int) querytree.Expr {
		return &querytree.Var{VarNo: 1, AttNo: 1, Type: querytree.TypeInt8, LevelsUp: levelsUp}
	}

	t.Run("uncorrelated", func(t *testing.T) {
		query := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
		require.False(t, ContainsReferencesToOuterQuery(query))
	})

	t.Run("var pointing one level up", func(t *testing.T) {
		query := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
		query.JoinTree.Quals = eq(querytree.NewVar(1, 1, querytree.TypeInt8), outerVar(1))
		require.True(t, ContainsReferencesToOuterQuery(query))
	})

	t.Run("nested var resolving within the query", func(t *testing.T) {
		// The inner level's reference reaches the outer level of the
		// same tree, so the tree as a whole is self contained.
		inner := selectKeyFrom(relationRTE(2, returnsRelID, "returns"))
		inner.JoinTree.Quals = eq(querytree.NewVar(1, 1, querytree.TypeInt8), outerVar(1))
		query := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
		query.JoinTree.Quals = &querytree.SubLink{Type: querytree.ExistsSubLink, Subquery: inner}
		require.False(t, ContainsReferencesToOuterQuery(query))
	})

	t.Run("nested var escaping the query", func(t *testing.T) {
		inner := selectKeyFrom(relationRTE(2, returnsRelID, "returns"))
		inner.JoinTree.Quals = eq(querytree.NewVar(1, 1, querytree.TypeInt8), outerVar(2))
		query := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
		query.JoinTree.Quals = &querytree.SubLink{Type: querytree.ExistsSubLink, Subquery: inner}
		require.True(t, ContainsReferencesToOuterQuery(query))
	})

	t.Run("outer aggregate", func(t *testing.T) {
		query := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
		query.TargetList = append(query.TargetList, querytree.NewTargetEntry(
			&querytree.Aggref{Name: "sum", Args: []querytree.Expr{querytree.NewVar(1, 2, querytree.TypeInt8)}, Type: querytree.TypeInt8, LevelsUp: 1},
			2, "outer_sum"))
		require.True(t, ContainsReferencesToOuterQuery(query))
	})
}

func TestExtractSubLinksStopsAtSubLinks(t *testing.T) {
	innermost := selectKeyFrom(relationRTE(2, returnsRelID, "returns"))
	inner := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
	inner.JoinTree.Quals = &querytree.SubLink{Type: querytree.ExistsSubLink, Subquery: innermost}

	qual := &querytree.BoolExpr{Op: querytree.AndExpr, Args: []querytree.Expr{
		querytree.NewBoolConst(true),
		&querytree.SubLink{Type: querytree.ExistsSubLink, Subquery: inner},
	}}

	subLinks := extractSubLinks(qual)
	require.Len(t, subLinks, 1)
	require.Same(t, inner, subLinks[0].Subquery)
}

func TestNodeContainsSubqueryReferencingOuterQuery(t *testing.T) {
	corr := selectKeyFrom(relationRTE(1, ordersRelID, "orders"))
	corr.JoinTree.Quals = eq(
		querytree.NewVar(1, 1, querytree.TypeInt8),
		&querytree.Var{VarNo: 1, AttNo: 1, Type: querytree.TypeInt8, LevelsUp: 1},
	)
	qual := &querytree.SubLink{Type: querytree.ExprSubLink, Subquery: corr}
	require.True(t, nodeContainsSubqueryReferencingOuterQuery(qual))

	plain := &querytree.SubLink{Type: querytree.ExprSubLink, Subquery: selectKeyFrom(relationRTE(2, returnsRelID, "returns"))}
	require.False(t, nodeContainsSubqueryReferencingOuterQuery(plain))
}
