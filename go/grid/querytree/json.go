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
	"fmt"

	"github.com/buger/jsonparser"
)

// Query trees serialize to JSON for tooling and golden tests. Interface
// valued fields are wrapped in {"Kind": ..., "Node": ...} envelopes so
// the concrete type survives the round trip.

const (
	kindQuery    = "query"
	kindFrom     = "from"
	kindJoin     = "join"
	kindRTRef    = "rtref"
	kindSetOp    = "setop"
	kindVar      = "var"
	kindConst    = "const"
	kindFunc     = "func"
	kindOp       = "op"
	kindBool     = "bool"
	kindAggref   = "aggref"
	kindGrouping = "grouping"
	kindPHV      = "phv"
	kindSubLink  = "sublink"
)

func nodeKind(n Node) string {
	switch n.(type) {
	case *Query:
		return kindQuery
	case *FromExpr:
		return kindFrom
	case *JoinExpr:
		return kindJoin
	case *RangeTableRef:
		return kindRTRef
	case *SetOperation:
		return kindSetOp
	case *Var:
		return kindVar
	case *Const:
		return kindConst
	case *FuncExpr:
		return kindFunc
	case *OpExpr:
		return kindOp
	case *BoolExpr:
		return kindBool
	case *Aggref:
		return kindAggref
	case *GroupingFunc:
		return kindGrouping
	case *PlaceHolderVar:
		return kindPHV
	case *SubLink:
		return kindSubLink
	default:
		panic(fmt.Sprintf("BUG: unexpected node type %T in JSON encoding", n))
	}
}

type envelope struct {
	Kind string
	Node json.RawMessage
}

func marshalNode(n Node) (json.RawMessage, error) {
	if n == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: nodeKind(n), Node: raw})
}

func unmarshalNode(data []byte) (Node, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	kind, err := jsonparser.GetString(data, "Kind")
	if err != nil {
		return nil, fmt.Errorf("query tree JSON node without Kind: %w", err)
	}
	raw, _, _, err := jsonparser.Get(data, "Node")
	if err != nil {
		return nil, fmt.Errorf("query tree JSON node %q without Node: %w", kind, err)
	}

	var node Node
	switch kind {
	case kindQuery:
		node = &Query{}
	case kindFrom:
		node = &FromExpr{}
	case kindJoin:
		node = &JoinExpr{}
	case kindRTRef:
		node = &RangeTableRef{}
	case kindSetOp:
		node = &SetOperation{}
	case kindVar:
		node = &Var{}
	case kindConst:
		node = &Const{}
	case kindFunc:
		node = &FuncExpr{}
	case kindOp:
		node = &OpExpr{}
	case kindBool:
		node = &BoolExpr{}
	case kindAggref:
		node = &Aggref{}
	case kindGrouping:
		node = &GroupingFunc{}
	case kindPHV:
		node = &PlaceHolderVar{}
	case kindSubLink:
		node = &SubLink{}
	default:
		return nil, fmt.Errorf("unknown query tree JSON node kind %q", kind)
	}
	if err := json.Unmarshal(raw, node); err != nil {
		return nil, err
	}
	return node, nil
}

func unmarshalExpr(data []byte) (Expr, error) {
	node, err := unmarshalNode(data)
	if err != nil || node == nil {
		return nil, err
	}
	expr, ok := node.(Expr)
	if !ok {
		return nil, fmt.Errorf("expected expression node, got %T", node)
	}
	return expr, nil
}

func unmarshalJoinTreeNode(data []byte) (JoinTreeNode, error) {
	node, err := unmarshalNode(data)
	if err != nil || node == nil {
		return nil, err
	}
	jt, ok := node.(JoinTreeNode)
	if !ok {
		return nil, fmt.Errorf("expected join tree node, got %T", node)
	}
	return jt, nil
}

func marshalExprs(exprs []Expr) ([]json.RawMessage, error) {
	if exprs == nil {
		return nil, nil
	}
	out := make([]json.RawMessage, 0, len(exprs))
	for _, e := range exprs {
		raw, err := marshalNode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func unmarshalExprs(raws []json.RawMessage) ([]Expr, error) {
	if raws == nil {
		return nil, nil
	}
	out := make([]Expr, 0, len(raws))
	for _, raw := range raws {
		e, err := unmarshalExpr(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

type queryJSON struct {
	CommandType   CommandType
	HasRecursive  bool               `json:",omitempty"`
	CTEs          []*CommonTableExpr `json:",omitempty"`
	RangeTable    []*RangeTableEntry `json:",omitempty"`
	JoinTree      *FromExpr          `json:",omitempty"`
	TargetList    []*TargetEntry     `json:",omitempty"`
	HavingQual    json.RawMessage    `json:",omitempty"`
	SetOperations *SetOperation      `json:",omitempty"`
	ReturningList []*TargetEntry     `json:",omitempty"`
	LimitCount    json.RawMessage    `json:",omitempty"`
	LimitOffset   json.RawMessage    `json:",omitempty"`
}

func (q *Query) MarshalJSON() ([]byte, error) {
	having, err := marshalNode(q.HavingQual)
	if err != nil {
		return nil, err
	}
	limitCount, err := marshalNode(q.LimitCount)
	if err != nil {
		return nil, err
	}
	limitOffset, err := marshalNode(q.LimitOffset)
	if err != nil {
		return nil, err
	}
	return json.Marshal(queryJSON{
		CommandType:   q.CommandType,
		HasRecursive:  q.HasRecursive,
		CTEs:          q.CTEs,
		RangeTable:    q.RangeTable,
		JoinTree:      q.JoinTree,
		TargetList:    q.TargetList,
		HavingQual:    nullToEmpty(having),
		SetOperations: q.SetOperations,
		ReturningList: q.ReturningList,
		LimitCount:    nullToEmpty(limitCount),
		LimitOffset:   nullToEmpty(limitOffset),
	})
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var in queryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	having, err := unmarshalExpr(in.HavingQual)
	if err != nil {
		return err
	}
	limitCount, err := unmarshalExpr(in.LimitCount)
	if err != nil {
		return err
	}
	limitOffset, err := unmarshalExpr(in.LimitOffset)
	if err != nil {
		return err
	}
	*q = Query{
		CommandType:   in.CommandType,
		HasRecursive:  in.HasRecursive,
		CTEs:          in.CTEs,
		RangeTable:    in.RangeTable,
		JoinTree:      in.JoinTree,
		TargetList:    in.TargetList,
		HavingQual:    having,
		SetOperations: in.SetOperations,
		ReturningList: in.ReturningList,
		LimitCount:    limitCount,
		LimitOffset:   limitOffset,
	}
	return nil
}

type rteJSON struct {
	Kind           RTEKind
	Identity       int                 `json:",omitempty"`
	Alias          string              `json:",omitempty"`
	ColumnNames    []string            `json:",omitempty"`
	RelationID     uint64              `json:",omitempty"`
	RelationName   string              `json:",omitempty"`
	RelationKind   RelationKind        `json:",omitempty"`
	Subquery       *Query              `json:",omitempty"`
	Function       *RangeTableFunction `json:",omitempty"`
	Lateral        bool                `json:",omitempty"`
	WithOrdinality bool                `json:",omitempty"`
	ValuesLists    [][]json.RawMessage `json:",omitempty"`
	ColumnTypes    []ColumnType        `json:",omitempty"`
	CTEName        string              `json:",omitempty"`
	CTELevelsUp    int                 `json:",omitempty"`
}

func (rte *RangeTableEntry) MarshalJSON() ([]byte, error) {
	var values [][]json.RawMessage
	for _, row := range rte.ValuesLists {
		raws, err := marshalExprs(row)
		if err != nil {
			return nil, err
		}
		values = append(values, raws)
	}
	return json.Marshal(rteJSON{
		Kind:           rte.Kind,
		Identity:       rte.Identity,
		Alias:          rte.Alias,
		ColumnNames:    rte.ColumnNames,
		RelationID:     rte.RelationID,
		RelationName:   rte.RelationName,
		RelationKind:   rte.RelationKind,
		Subquery:       rte.Subquery,
		Function:       rte.Function,
		Lateral:        rte.Lateral,
		WithOrdinality: rte.WithOrdinality,
		ValuesLists:    values,
		ColumnTypes:    rte.ColumnTypes,
		CTEName:        rte.CTEName,
		CTELevelsUp:    rte.CTELevelsUp,
	})
}

func (rte *RangeTableEntry) UnmarshalJSON(data []byte) error {
	var in rteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var values [][]Expr
	for _, row := range in.ValuesLists {
		exprs, err := unmarshalExprs(row)
		if err != nil {
			return err
		}
		values = append(values, exprs)
	}
	*rte = RangeTableEntry{
		Kind:           in.Kind,
		Identity:       in.Identity,
		Alias:          in.Alias,
		ColumnNames:    in.ColumnNames,
		RelationID:     in.RelationID,
		RelationName:   in.RelationName,
		RelationKind:   in.RelationKind,
		Subquery:       in.Subquery,
		Function:       in.Function,
		Lateral:        in.Lateral,
		WithOrdinality: in.WithOrdinality,
		ValuesLists:    values,
		ColumnTypes:    in.ColumnTypes,
		CTEName:        in.CTEName,
		CTELevelsUp:    in.CTELevelsUp,
	}
	return nil
}

type fromExprJSON struct {
	FromList []json.RawMessage `json:",omitempty"`
	Quals    json.RawMessage   `json:",omitempty"`
}

func (f *FromExpr) MarshalJSON() ([]byte, error) {
	var items []json.RawMessage
	for _, item := range f.FromList {
		raw, err := marshalNode(item)
		if err != nil {
			return nil, err
		}
		items = append(items, raw)
	}
	quals, err := marshalNode(f.Quals)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fromExprJSON{FromList: items, Quals: nullToEmpty(quals)})
}

func (f *FromExpr) UnmarshalJSON(data []byte) error {
	var in fromExprJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var items []JoinTreeNode
	for _, raw := range in.FromList {
		item, err := unmarshalJoinTreeNode(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	quals, err := unmarshalExpr(in.Quals)
	if err != nil {
		return err
	}
	*f = FromExpr{FromList: items, Quals: quals}
	return nil
}

type joinExprJSON struct {
	Type  JoinType
	Left  json.RawMessage
	Right json.RawMessage
	Quals json.RawMessage `json:",omitempty"`
}

func (j *JoinExpr) MarshalJSON() ([]byte, error) {
	left, err := marshalNode(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := marshalNode(j.Right)
	if err != nil {
		return nil, err
	}
	quals, err := marshalNode(j.Quals)
	if err != nil {
		return nil, err
	}
	return json.Marshal(joinExprJSON{Type: j.Type, Left: left, Right: right, Quals: nullToEmpty(quals)})
}

func (j *JoinExpr) UnmarshalJSON(data []byte) error {
	var in joinExprJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	left, err := unmarshalJoinTreeNode(in.Left)
	if err != nil {
		return err
	}
	right, err := unmarshalJoinTreeNode(in.Right)
	if err != nil {
		return err
	}
	quals, err := unmarshalExpr(in.Quals)
	if err != nil {
		return err
	}
	*j = JoinExpr{Type: in.Type, Left: left, Right: right, Quals: quals}
	return nil
}

type setOperationJSON struct {
	Op    SetOpType
	All   bool `json:",omitempty"`
	Left  json.RawMessage
	Right json.RawMessage
}

func (op *SetOperation) MarshalJSON() ([]byte, error) {
	left, err := marshalNode(op.Left)
	if err != nil {
		return nil, err
	}
	right, err := marshalNode(op.Right)
	if err != nil {
		return nil, err
	}
	return json.Marshal(setOperationJSON{Op: op.Op, All: op.All, Left: left, Right: right})
}

func (op *SetOperation) UnmarshalJSON(data []byte) error {
	var in setOperationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	left, err := unmarshalNode(in.Left)
	if err != nil {
		return err
	}
	right, err := unmarshalNode(in.Right)
	if err != nil {
		return err
	}
	*op = SetOperation{Op: in.Op, All: in.All, Left: left, Right: right}
	return nil
}

type targetEntryJSON struct {
	Expr  json.RawMessage
	ResNo int
	Name  string `json:",omitempty"`
	Junk  bool   `json:",omitempty"`
}

func (te *TargetEntry) MarshalJSON() ([]byte, error) {
	expr, err := marshalNode(te.Expr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(targetEntryJSON{Expr: expr, ResNo: te.ResNo, Name: te.Name, Junk: te.Junk})
}

func (te *TargetEntry) UnmarshalJSON(data []byte) error {
	var in targetEntryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	expr, err := unmarshalExpr(in.Expr)
	if err != nil {
		return err
	}
	*te = TargetEntry{Expr: expr, ResNo: in.ResNo, Name: in.Name, Junk: in.Junk}
	return nil
}

type funcExprJSON struct {
	Name       string
	Args       []json.RawMessage `json:",omitempty"`
	ReturnType ColumnType
	ReturnsSet bool `json:",omitempty"`
}

func (f *FuncExpr) MarshalJSON() ([]byte, error) {
	args, err := marshalExprs(f.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(funcExprJSON{Name: f.Name, Args: args, ReturnType: f.ReturnType, ReturnsSet: f.ReturnsSet})
}

func (f *FuncExpr) UnmarshalJSON(data []byte) error {
	var in funcExprJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	args, err := unmarshalExprs(in.Args)
	if err != nil {
		return err
	}
	*f = FuncExpr{Name: in.Name, Args: args, ReturnType: in.ReturnType, ReturnsSet: in.ReturnsSet}
	return nil
}

type opExprJSON struct {
	Operator string
	Args     []json.RawMessage `json:",omitempty"`
	Type     ColumnType
}

func (o *OpExpr) MarshalJSON() ([]byte, error) {
	args, err := marshalExprs(o.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(opExprJSON{Operator: o.Operator, Args: args, Type: o.Type})
}

func (o *OpExpr) UnmarshalJSON(data []byte) error {
	var in opExprJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	args, err := unmarshalExprs(in.Args)
	if err != nil {
		return err
	}
	*o = OpExpr{Operator: in.Operator, Args: args, Type: in.Type}
	return nil
}

type boolExprJSON struct {
	Op   BoolExprType
	Args []json.RawMessage `json:",omitempty"`
}

func (b *BoolExpr) MarshalJSON() ([]byte, error) {
	args, err := marshalExprs(b.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(boolExprJSON{Op: b.Op, Args: args})
}

func (b *BoolExpr) UnmarshalJSON(data []byte) error {
	var in boolExprJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	args, err := unmarshalExprs(in.Args)
	if err != nil {
		return err
	}
	*b = BoolExpr{Op: in.Op, Args: args}
	return nil
}

type aggrefJSON struct {
	Name     string
	Args     []json.RawMessage `json:",omitempty"`
	Type     ColumnType
	LevelsUp int `json:",omitempty"`
}

func (a *Aggref) MarshalJSON() ([]byte, error) {
	args, err := marshalExprs(a.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(aggrefJSON{Name: a.Name, Args: args, Type: a.Type, LevelsUp: a.LevelsUp})
}

func (a *Aggref) UnmarshalJSON(data []byte) error {
	var in aggrefJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	args, err := unmarshalExprs(in.Args)
	if err != nil {
		return err
	}
	*a = Aggref{Name: in.Name, Args: args, Type: in.Type, LevelsUp: in.LevelsUp}
	return nil
}

type groupingFuncJSON struct {
	Args     []json.RawMessage `json:",omitempty"`
	LevelsUp int               `json:",omitempty"`
}

func (g *GroupingFunc) MarshalJSON() ([]byte, error) {
	args, err := marshalExprs(g.Args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(groupingFuncJSON{Args: args, LevelsUp: g.LevelsUp})
}

func (g *GroupingFunc) UnmarshalJSON(data []byte) error {
	var in groupingFuncJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	args, err := unmarshalExprs(in.Args)
	if err != nil {
		return err
	}
	*g = GroupingFunc{Args: args, LevelsUp: in.LevelsUp}
	return nil
}

type placeHolderVarJSON struct {
	Expr     json.RawMessage
	LevelsUp int `json:",omitempty"`
}

func (p *PlaceHolderVar) MarshalJSON() ([]byte, error) {
	expr, err := marshalNode(p.Expr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(placeHolderVarJSON{Expr: expr, LevelsUp: p.LevelsUp})
}

func (p *PlaceHolderVar) UnmarshalJSON(data []byte) error {
	var in placeHolderVarJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	expr, err := unmarshalExpr(in.Expr)
	if err != nil {
		return err
	}
	*p = PlaceHolderVar{Expr: expr, LevelsUp: in.LevelsUp}
	return nil
}

type subLinkJSON struct {
	Type     SubLinkType
	TestExpr json.RawMessage `json:",omitempty"`
	Subquery *Query
}

func (s *SubLink) MarshalJSON() ([]byte, error) {
	test, err := marshalNode(s.TestExpr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(subLinkJSON{Type: s.Type, TestExpr: nullToEmpty(test), Subquery: s.Subquery})
}

func (s *SubLink) UnmarshalJSON(data []byte) error {
	var in subLinkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	test, err := unmarshalExpr(in.TestExpr)
	if err != nil {
		return err
	}
	*s = SubLink{Type: in.Type, TestExpr: test, Subquery: in.Subquery}
	return nil
}

// nullToEmpty drops JSON null values so omitempty can elide them.
func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
