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

package querytree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// ordersJoinCustomers builds
//
//	SELECT $1.1 AS id FROM orders o JOIN (SELECT $1.2 FROM customers) c
//	ON $1.1 = $2.1 WHERE $1.1 = 5
func ordersJoinCustomers() *Query {
	inner := &Query{
		RangeTable: []*RangeTableEntry{{
			Kind:         RTERelation,
			Identity:     2,
			RelationID:   20,
			RelationName: "customers",
		}},
		JoinTree: &FromExpr{
			FromList: []JoinTreeNode{&RangeTableRef{Index: 1}},
		},
		TargetList: []*TargetEntry{
			NewTargetEntry(NewVar(1, 2, TypeInt8), 1, "customer_id"),
		},
	}
	return &Query{
		RangeTable: []*RangeTableEntry{
			{
				Kind:         RTERelation,
				Identity:     1,
				Alias:        "o",
				RelationID:   10,
				RelationName: "orders",
			},
			{
				Kind:     RTESubquery,
				Alias:    "c",
				Subquery: inner,
			},
		},
		JoinTree: &FromExpr{
			FromList: []JoinTreeNode{&JoinExpr{
				Type:  JoinInner,
				Left:  &RangeTableRef{Index: 1},
				Right: &RangeTableRef{Index: 2},
				Quals: &OpExpr{
					Operator: "=",
					Args:     []Expr{NewVar(1, 1, TypeInt8), NewVar(2, 1, TypeInt8)},
					Type:     TypeBool,
				},
			}},
			Quals: &OpExpr{
				Operator: "=",
				Args:     []Expr{NewVar(1, 1, TypeInt8), &Const{Type: TypeInt8, Value: "5"}},
				Type:     TypeBool,
			},
		},
		TargetList: []*TargetEntry{
			NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "id"),
		},
	}
}

func TestWalkVisitsNestedQueries(t *testing.T) {
	query := ordersJoinCustomers()

	counts := map[string]int{}
	err := Walk(func(node Node) (bool, error) {
		counts[fmt.Sprintf("%T", node)]++
		return true, nil
	}, query)
	require.NoError(t, err)

	require.Equal(t, 2, counts["*querytree.Query"])
	require.Equal(t, 3, counts["*querytree.RangeTableEntry"])
	require.Equal(t, 3, counts["*querytree.RangeTableRef"])
	require.Equal(t, 1, counts["*querytree.JoinExpr"])
	// join qual, where qual
	require.Equal(t, 2, counts["*querytree.OpExpr"])
	// one var per target list plus three in the quals
	require.Equal(t, 5, counts["*querytree.Var"])
	require.Equal(t, 1, counts["*querytree.Const"])
}

func TestWalkPrunesOnFalse(t *testing.T) {
	query := ordersJoinCustomers()

	sawInner := false
	err := Walk(func(node Node) (bool, error) {
		if rte, ok := node.(*RangeTableEntry); ok {
			if rte.Kind == RTESubquery {
				return false, nil
			}
			if rte.RelationName == "customers" {
				sawInner = true
			}
		}
		return true, nil
	}, query)
	require.NoError(t, err)
	require.False(t, sawInner, "pruned subquery RTE should hide its contents")
}

func TestWalkPropagatesError(t *testing.T) {
	query := ordersJoinCustomers()

	sawWhere := false
	err := Walk(func(node Node) (bool, error) {
		if _, ok := node.(*JoinExpr); ok {
			return false, fmt.Errorf("stop here")
		}
		if c, ok := node.(*Const); ok && c.Value == "5" {
			sawWhere = true
		}
		return true, nil
	}, query)
	require.EqualError(t, err, "stop here")
	require.False(t, sawWhere, "walk should abort before reaching the WHERE clause")
}

func TestWalkVisitsRTEBeforeContents(t *testing.T) {
	query := ordersJoinCustomers()

	var order []string
	err := Walk(func(node Node) (bool, error) {
		switch n := node.(type) {
		case *RangeTableEntry:
			order = append(order, "rte:"+n.Kind.String())
		case *Query:
			order = append(order, "query")
		}
		return true, nil
	}, query)
	require.NoError(t, err)
	require.Equal(t, []string{"query", "rte:relation", "rte:subquery", "query", "rte:relation"}, order)
}

func TestContainsNode(t *testing.T) {
	query := ordersJoinCustomers()

	require.True(t, ContainsNode(func(node Node) bool {
		c, ok := node.(*Const)
		return ok && c.Value == "5"
	}, query))

	require.False(t, ContainsNode(func(node Node) bool {
		_, ok := node.(*Aggref)
		return ok
	}, query))
}

func TestRangeTableContains(t *testing.T) {
	query := ordersJoinCustomers()

	// customers is only reachable through the subquery RTE.
	require.True(t, RangeTableContains(query.RangeTable, func(rte *RangeTableEntry) bool {
		return rte.RelationName == "customers"
	}))
	require.False(t, RangeTableContains(query.RangeTable, func(rte *RangeTableEntry) bool {
		return rte.RelationName == "lineitems"
	}))
}
