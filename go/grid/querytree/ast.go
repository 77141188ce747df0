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

// Package querytree defines the analyzed query representation the
// coordinator plans against, together with the visitors and rewriting
// helpers the planner is built on.
//
// A Query owns a range table (the ordered list of relations, subqueries,
// functions and values lists it reads from), a join tree referring into the
// range table by index, a target list describing its output columns, and
// optional CTE and set-operation trees. Queries nest: a range table entry
// may own a full Query, and expressions may contain SubLink nodes wrapping
// one.
//
// The planner mutates trees in place: a rewrite replaces the contents of a
// node through its stable pointer (*q = *replacement) so that range-table
// indexes and references held elsewhere stay valid.
package querytree

import "strings"

// Node is implemented by every query tree node.
type Node interface {
	// Format appends a readable rendition of the node to buf. The output
	// is SQL-shaped but meant for logs and error messages, not for
	// re-parsing.
	Format(buf *strings.Builder)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	iExpr()
}

// JoinTreeNode is implemented by the nodes that may appear in a FROM
// clause join tree: FromExpr, JoinExpr and RangeTableRef.
type JoinTreeNode interface {
	Node
	iJoinTreeNode()
}

// CommandType discriminates the statement kind a Query represents.
type CommandType int8

const (
	CommandSelect CommandType = iota
	CommandInsert
	CommandUpdate
	CommandDelete
)

// Query is one SELECT/INSERT/UPDATE/DELETE statement level.
type Query struct {
	CommandType CommandType

	// HasRecursive is set when the statement was written WITH RECURSIVE.
	HasRecursive bool

	// CTEs are the WITH-clause definitions owned by this level.
	CTEs []*CommonTableExpr

	// RangeTable is the ordered list of range table entries. Join tree and
	// Var nodes refer to entries by their 1-based position.
	RangeTable []*RangeTableEntry

	// JoinTree is the FROM/WHERE clause. Nil for queries without a FROM
	// clause is not allowed; use an empty FromExpr instead.
	JoinTree *FromExpr

	// TargetList holds the output expressions, in output order.
	TargetList []*TargetEntry

	// HavingQual is the HAVING clause, or nil.
	HavingQual Expr

	// SetOperations is the UNION/INTERSECT/EXCEPT tree, or nil. Its leaves
	// are RangeTableRef nodes pointing at subquery range table entries.
	SetOperations *SetOperation

	// ReturningList holds the RETURNING clause of a modifying statement.
	ReturningList []*TargetEntry

	// LimitCount and LimitOffset are the LIMIT/OFFSET expressions, or nil.
	LimitCount  Expr
	LimitOffset Expr
}

// RTEKind discriminates range table entry kinds.
type RTEKind int8

const (
	// RTERelation is a reference to a named relation.
	RTERelation RTEKind = iota
	// RTESubquery is a sub-SELECT in FROM.
	RTESubquery
	// RTEJoin is the join alias entry produced for JOIN syntax.
	RTEJoin
	// RTEFunction is a table-valued function call in FROM.
	RTEFunction
	// RTEValues is a VALUES list in FROM.
	RTEValues
	// RTECTE is a reference to a CTE defined at this level or above.
	RTECTE
)

func (k RTEKind) String() string {
	switch k {
	case RTERelation:
		return "relation"
	case RTESubquery:
		return "subquery"
	case RTEJoin:
		return "join"
	case RTEFunction:
		return "function"
	case RTEValues:
		return "values"
	case RTECTE:
		return "cte"
	default:
		return "unknown"
	}
}

// RelationKind describes what kind of object a relation RTE points to.
type RelationKind int8

const (
	RelationOrdinary RelationKind = iota
	RelationPartitioned
	RelationView
	RelationMaterializedView
	RelationForeign
)

// RangeTableEntry is one entry of a query's range table. Only the fields
// matching Kind are meaningful.
type RangeTableEntry struct {
	Kind RTEKind

	// Identity is a stable identifier assigned by the surrounding planner
	// when the statement is analyzed. It survives rewrites: wrapping an
	// entry in a subquery copies the identity to the copied inner entry.
	// Zero means "not assigned".
	Identity int

	// Alias is the explicit alias, empty when none was given.
	Alias string

	// ColumnNames are the visible output column names of the entry.
	ColumnNames []string

	// Relation RTEs.
	RelationID   uint64
	RelationName string
	RelationKind RelationKind

	// Subquery RTEs.
	Subquery *Query

	// Function RTEs.
	Function       *RangeTableFunction
	Lateral        bool
	WithOrdinality bool

	// Values RTEs.
	ValuesLists [][]Expr
	ColumnTypes []ColumnType

	// CTE reference RTEs.
	CTEName     string
	CTELevelsUp int
}

// RangeTableFunction is the function call of a function RTE, plus the
// column definition list when the call site supplied one.
type RangeTableFunction struct {
	FuncExpr    *FuncExpr
	ColumnNames []string
	ColumnTypes []ColumnType
}

// FromExpr is the top of a query's join tree: a list of FROM items that
// are implicitly cross-joined, plus the WHERE clause.
type FromExpr struct {
	FromList []JoinTreeNode
	Quals    Expr
}

// JoinType discriminates JOIN syntax kinds.
type JoinType int8

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (jt JoinType) String() string {
	switch jt {
	case JoinInner:
		return "JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL JOIN"
	default:
		return "unknown join"
	}
}

// JoinExpr is one explicit JOIN in the join tree.
type JoinExpr struct {
	Type  JoinType
	Left  JoinTreeNode
	Right JoinTreeNode
	Quals Expr
}

// RangeTableRef is a leaf of the join tree (or of a set-operation tree),
// referring to the range table by 1-based index.
type RangeTableRef struct {
	Index int
}

// SetOpType discriminates set operation kinds.
type SetOpType int8

const (
	SetOpUnion SetOpType = iota
	SetOpIntersect
	SetOpExcept
)

func (op SetOpType) String() string {
	switch op {
	case SetOpUnion:
		return "UNION"
	case SetOpIntersect:
		return "INTERSECT"
	case SetOpExcept:
		return "EXCEPT"
	default:
		return "unknown set op"
	}
}

// SetOperation is one node of a set-operation tree. Left and Right are
// either nested *SetOperation nodes or *RangeTableRef leaves pointing at
// subquery range table entries.
type SetOperation struct {
	Op    SetOpType
	All   bool
	Left  Node
	Right Node
}

// TargetEntry is one output column of a query level.
type TargetEntry struct {
	Expr Expr

	// ResNo is the 1-based output position.
	ResNo int

	// Name is the output column name. May be empty for anonymous
	// synthetic columns.
	Name string

	// Junk marks working columns (sort keys and the like) that are not
	// part of the visible output.
	Junk bool
}

// CommonTableExpr is one WITH-clause definition.
type CommonTableExpr struct {
	Name string

	// ColumnAliases is the optional explicit column list, as in
	// WITH c(a, b) AS (...).
	ColumnAliases []string

	Query *Query

	// RefCount is the number of places this CTE is referenced from,
	// counted during analysis.
	RefCount int
}

// Var is a reference to a column of a range table entry. LevelsUp greater
// than zero means the entry belongs to that many query levels above the
// one containing the Var.
type Var struct {
	VarNo    int
	AttNo    int
	Type     ColumnType
	LevelsUp int
}

// Const is a literal value. Value holds the literal in its textual form;
// IsNull marks SQL NULL (Value is then ignored).
type Const struct {
	Type   ColumnType
	Value  string
	IsNull bool
}

// FuncExpr is a function call.
type FuncExpr struct {
	Name       string
	Args       []Expr
	ReturnType ColumnType

	// ReturnsSet marks set-returning functions.
	ReturnsSet bool
}

// OpExpr is an operator invocation such as a = b or x + 1.
type OpExpr struct {
	Operator string
	Args     []Expr
	Type     ColumnType
}

// BoolExprType discriminates boolean connectives.
type BoolExprType int8

const (
	AndExpr BoolExprType = iota
	OrExpr
	NotExpr
)

// BoolExpr is an AND/OR/NOT connective.
type BoolExpr struct {
	Op   BoolExprType
	Args []Expr
}

// Aggref is an aggregate function reference. LevelsUp greater than zero
// means the aggregate belongs to an enclosing query level.
type Aggref struct {
	Name     string
	Args     []Expr
	Type     ColumnType
	LevelsUp int
}

// GroupingFunc is a GROUPING(...) call. Like Aggref it carries a LevelsUp
// count linking it to the query level whose GROUP BY it inspects.
type GroupingFunc struct {
	Args     []Expr
	LevelsUp int
}

// PlaceHolderVar wraps an expression that must be evaluated at a
// particular query level and bubbled up through outer joins. LevelsUp
// works as for Var.
type PlaceHolderVar struct {
	Expr     Expr
	LevelsUp int
}

// SubLinkType discriminates sublink kinds.
type SubLinkType int8

const (
	ExistsSubLink SubLinkType = iota
	AnySubLink
	AllSubLink
	ExprSubLink
)

// SubLink is a subquery appearing in an expression: EXISTS (...), IN
// (...), or a scalar subquery.
type SubLink struct {
	Type SubLinkType

	// TestExpr is the left-hand side of ANY/ALL sublinks, nil otherwise.
	TestExpr Expr

	Subquery *Query
}

func (*Var) iExpr()            {}
func (*Const) iExpr()          {}
func (*FuncExpr) iExpr()       {}
func (*OpExpr) iExpr()         {}
func (*BoolExpr) iExpr()       {}
func (*Aggref) iExpr()         {}
func (*GroupingFunc) iExpr()   {}
func (*PlaceHolderVar) iExpr() {}
func (*SubLink) iExpr()        {}

func (*FromExpr) iJoinTreeNode()      {}
func (*JoinExpr) iJoinTreeNode()      {}
func (*RangeTableRef) iJoinTreeNode() {}
