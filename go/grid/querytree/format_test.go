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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatExprs(t *testing.T) {
	tcases := []struct {
		node Node
		want string
	}{{
		node: NewVar(1, 2, TypeInt8),
		want: "$1.2",
	}, {
		node: &Var{VarNo: 3, AttNo: 1, LevelsUp: 2},
		want: "$outer(2).3.1",
	}, {
		node: NewStringConst("emea"),
		want: "'emea'",
	}, {
		node: &Const{Type: TypeInt4, Value: "42"},
		want: "42",
	}, {
		node: NewNullConst(TypeText),
		want: "NULL::text",
	}, {
		node: NewTextArrayConst([]string{"1_1", "1_2"}),
		want: "'{1_1,1_2}'",
	}, {
		node: &OpExpr{Operator: "=", Args: []Expr{NewVar(1, 1, TypeInt8), &Const{Type: TypeInt8, Value: "5"}}, Type: TypeBool},
		want: "$1.1 = 5",
	}, {
		node: &BoolExpr{Op: AndExpr, Args: []Expr{NewBoolConst(true), NewBoolConst(false)}},
		want: "(true AND false)",
	}, {
		node: &BoolExpr{Op: NotExpr, Args: []Expr{NewBoolConst(false)}},
		want: "NOT false",
	}, {
		node: &FuncExpr{Name: "read_intermediate_result", Args: []Expr{NewStringConst("1_1")}, ReturnType: TypeText},
		want: "read_intermediate_result('1_1')",
	}, {
		node: &Aggref{Name: "count", Args: []Expr{NewVar(1, 1, TypeInt8)}, Type: TypeInt8},
		want: "count($1.1)",
	}, {
		node: &GroupingFunc{Args: []Expr{NewVar(1, 1, TypeInt8)}},
		want: "GROUPING($1.1)",
	}, {
		node: &PlaceHolderVar{Expr: NewVar(1, 1, TypeInt8), LevelsUp: 1},
		want: "PHV($1.1)",
	}, {
		node: &SubLink{Type: ExistsSubLink, Subquery: &Query{
			TargetList: []*TargetEntry{NewTargetEntry(&Const{Type: TypeInt4, Value: "1"}, 1, "")},
			JoinTree:   &FromExpr{},
		}},
		want: "EXISTS (SELECT 1)",
	}}
	for _, tcase := range tcases {
		t.Run(tcase.want, func(t *testing.T) {
			require.Equal(t, tcase.want, String(tcase.node))
		})
	}
}

func TestFormatQuery(t *testing.T) {
	query := ordersJoinCustomers()
	require.Equal(t,
		"SELECT $1.1 AS id FROM orders o JOIN (SELECT $1.2 AS customer_id FROM customers) c ON $1.1 = $2.1 WHERE $1.1 = 5",
		String(query))
}

func TestFormatCTEQuery(t *testing.T) {
	query := &Query{
		CTEs: []*CommonTableExpr{{
			Name:          "regional",
			ColumnAliases: []string{"region"},
			Query: &Query{
				TargetList: []*TargetEntry{NewTargetEntry(NewStringConst("emea"), 1, "")},
				JoinTree:   &FromExpr{},
			},
		}},
		RangeTable: []*RangeTableEntry{{Kind: RTECTE, CTEName: "regional"}},
		JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}},
		TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeText), 1, "")},
	}
	require.Equal(t, "WITH regional(region) AS (SELECT 'emea') SELECT $1.1 FROM regional", String(query))
}

func TestFormatSetOperations(t *testing.T) {
	left := &Query{
		RangeTable: []*RangeTableEntry{{Kind: RTERelation, RelationName: "orders"}},
		JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}},
		TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "")},
	}
	right := &Query{
		RangeTable: []*RangeTableEntry{{Kind: RTERelation, RelationName: "archived_orders"}},
		JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}},
		TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "")},
	}
	query := &Query{
		RangeTable: []*RangeTableEntry{
			{Kind: RTESubquery, Subquery: left},
			{Kind: RTESubquery, Subquery: right},
		},
		SetOperations: &SetOperation{
			Op:    SetOpUnion,
			All:   true,
			Left:  &RangeTableRef{Index: 1},
			Right: &RangeTableRef{Index: 2},
		},
	}
	require.Equal(t,
		"(SELECT $1.1 FROM orders) UNION ALL (SELECT $1.1 FROM archived_orders)",
		String(query))
}

func TestFormatValuesRTE(t *testing.T) {
	query := &Query{
		RangeTable: []*RangeTableEntry{{
			Kind:  RTEValues,
			Alias: "res",
			ValuesLists: [][]Expr{
				{NewNullConst(TypeInt8), NewNullConst(TypeText)},
			},
			ColumnTypes: []ColumnType{TypeInt8, TypeText},
		}},
		JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}, Quals: NewBoolConst(false)},
		TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "")},
	}
	require.Equal(t,
		"SELECT $1.1 FROM (VALUES (NULL::int8, NULL::text)) res WHERE false",
		String(query))
}

func TestFormatNil(t *testing.T) {
	require.Equal(t, "<nil>", String(nil))
}
