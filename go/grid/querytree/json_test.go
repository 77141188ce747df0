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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/test/utils"
)

func TestJSONRoundTrip(t *testing.T) {
	tcases := []struct {
		name  string
		query *Query
	}{{
		name:  "join with subquery",
		query: ordersJoinCustomers(),
	}, {
		name: "cte with sublink",
		query: &Query{
			HasRecursive: false,
			CTEs: []*CommonTableExpr{{
				Name: "regional",
				Query: &Query{
					TargetList: []*TargetEntry{NewTargetEntry(NewStringConst("emea"), 1, "region")},
					JoinTree:   &FromExpr{},
				},
				RefCount: 1,
			}},
			RangeTable: []*RangeTableEntry{{Kind: RTECTE, CTEName: "regional"}},
			JoinTree: &FromExpr{
				FromList: []JoinTreeNode{&RangeTableRef{Index: 1}},
				Quals: &SubLink{
					Type:     AnySubLink,
					TestExpr: NewVar(1, 1, TypeText),
					Subquery: &Query{
						TargetList: []*TargetEntry{NewTargetEntry(NewStringConst("emea"), 1, "")},
						JoinTree:   &FromExpr{},
					},
				},
			},
			TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeText), 1, "")},
		},
	}, {
		name: "union all with limit",
		query: &Query{
			RangeTable: []*RangeTableEntry{
				{Kind: RTESubquery, Subquery: &Query{
					RangeTable: []*RangeTableEntry{{Kind: RTERelation, RelationID: 10, RelationName: "orders"}},
					JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}},
					TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "id")},
				}},
				{Kind: RTESubquery, Subquery: &Query{
					RangeTable: []*RangeTableEntry{{Kind: RTERelation, RelationID: 11, RelationName: "archived_orders"}},
					JoinTree:   &FromExpr{FromList: []JoinTreeNode{&RangeTableRef{Index: 1}}},
					TargetList: []*TargetEntry{NewTargetEntry(NewVar(1, 1, TypeInt8), 1, "id")},
				}},
			},
			SetOperations: &SetOperation{
				Op:    SetOpUnion,
				All:   true,
				Left:  &RangeTableRef{Index: 1},
				Right: &RangeTableRef{Index: 2},
			},
			LimitCount: &Const{Type: TypeInt8, Value: "10"},
		},
	}, {
		name: "values and function rtes",
		query: &Query{
			RangeTable: []*RangeTableEntry{
				{
					Kind:        RTEValues,
					Alias:       "v",
					ValuesLists: [][]Expr{{NewStringConst("a"), NewNullConst(TypeInt4)}},
					ColumnTypes: []ColumnType{TypeText, TypeInt4},
				},
				{
					Kind:  RTEFunction,
					Alias: "s",
					Function: &RangeTableFunction{
						FuncExpr:    &FuncExpr{Name: "generate_series", Args: []Expr{&Const{Type: TypeInt4, Value: "1"}, &Const{Type: TypeInt4, Value: "10"}}, ReturnType: TypeInt4, ReturnsSet: true},
						ColumnNames: []string{"n"},
						ColumnTypes: []ColumnType{TypeInt4},
					},
				},
			},
			JoinTree: &FromExpr{
				FromList: []JoinTreeNode{&RangeTableRef{Index: 1}, &RangeTableRef{Index: 2}},
			},
			TargetList: []*TargetEntry{NewTargetEntry(NewVar(2, 1, TypeInt4), 1, "n")},
		},
	}}
	for _, tcase := range tcases {
		t.Run(tcase.name, func(t *testing.T) {
			data, err := json.Marshal(tcase.query)
			require.NoError(t, err)

			var got Query
			require.NoError(t, json.Unmarshal(data, &got))
			utils.MustMatch(t, tcase.query, &got)
		})
	}
}

func TestJSONExprEnvelopes(t *testing.T) {
	// Interface valued fields carry a Kind tag naming the concrete type.
	query := &Query{
		JoinTree: &FromExpr{
			Quals: &BoolExpr{Op: AndExpr, Args: []Expr{NewBoolConst(true), NewBoolConst(true)}},
		},
		TargetList: []*TargetEntry{NewTargetEntry(&Aggref{Name: "count", Type: TypeInt8}, 1, "cnt")},
		HavingQual: &OpExpr{Operator: ">", Args: []Expr{&Aggref{Name: "count", Type: TypeInt8}, &Const{Type: TypeInt8, Value: "1"}}, Type: TypeBool},
	}
	data, err := json.Marshal(query)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Kind":"bool"`)
	require.Contains(t, string(data), `"Kind":"aggref"`)
	require.Contains(t, string(data), `"Kind":"op"`)

	var got Query
	require.NoError(t, json.Unmarshal(data, &got))
	utils.MustMatch(t, query, &got)
}

func TestJSONUnknownKind(t *testing.T) {
	data := []byte(`{"TargetList":[{"Expr":{"Kind":"mystery","Node":{}},"ResNo":1}]}`)
	var got Query
	err := json.Unmarshal(data, &got)
	require.ErrorContains(t, err, `unknown query tree JSON node kind "mystery"`)
}

func TestJSONNonExprNodeRejected(t *testing.T) {
	data := []byte(`{"TargetList":[{"Expr":{"Kind":"rtref","Node":{"Index":1}},"ResNo":1}]}`)
	var got Query
	err := json.Unmarshal(data, &got)
	require.ErrorContains(t, err, "expected expression node")
}
