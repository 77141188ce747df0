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

import "fmt"

// Visit defines the signature of a function that can be used to visit all
// nodes of a query tree. Returning false on kontinue means the children of
// the current node will not be visited. Returning an error aborts the walk
// and the error is returned by Walk.
type Visit func(node Node) (kontinue bool, err error)

// Walk calls visit on every node, depth first. Range table entries are
// visited before their contents, so a visitor sees an RTE node before the
// subquery or function expression it owns.
func Walk(visit Visit, nodes ...Node) error {
	for _, node := range nodes {
		if err := walkNode(node, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkNode(node Node, visit Visit) error {
	if node == nil {
		return nil
	}
	kontinue, err := visit(node)
	if err != nil {
		return err
	}
	if !kontinue {
		return nil
	}

	switch n := node.(type) {
	case *Query:
		return walkQueryChildren(n, visit)
	case *CommonTableExpr:
		if n.Query != nil {
			return walkNode(n.Query, visit)
		}
	case *RangeTableEntry:
		return walkRTEChildren(n, visit)
	case *RangeTableFunction:
		if n.FuncExpr != nil {
			return walkNode(n.FuncExpr, visit)
		}
	case *FromExpr:
		for _, from := range n.FromList {
			if err := walkNode(from, visit); err != nil {
				return err
			}
		}
		if n.Quals != nil {
			return walkNode(n.Quals, visit)
		}
	case *JoinExpr:
		if err := walkNode(n.Left, visit); err != nil {
			return err
		}
		if err := walkNode(n.Right, visit); err != nil {
			return err
		}
		if n.Quals != nil {
			return walkNode(n.Quals, visit)
		}
	case *RangeTableRef:
		// leaf
	case *SetOperation:
		if err := walkNode(n.Left, visit); err != nil {
			return err
		}
		return walkNode(n.Right, visit)
	case *TargetEntry:
		return walkNode(n.Expr, visit)
	case *Var, *Const:
		// leaves
	case *FuncExpr:
		return walkExprs(n.Args, visit)
	case *OpExpr:
		return walkExprs(n.Args, visit)
	case *BoolExpr:
		return walkExprs(n.Args, visit)
	case *Aggref:
		return walkExprs(n.Args, visit)
	case *GroupingFunc:
		return walkExprs(n.Args, visit)
	case *PlaceHolderVar:
		if n.Expr != nil {
			return walkNode(n.Expr, visit)
		}
	case *SubLink:
		if n.TestExpr != nil {
			if err := walkNode(n.TestExpr, visit); err != nil {
				return err
			}
		}
		if n.Subquery != nil {
			return walkNode(n.Subquery, visit)
		}
	default:
		panic(fmt.Sprintf("BUG: unexpected node type %T in walk", node))
	}
	return nil
}

func walkQueryChildren(q *Query, visit Visit) error {
	for _, cte := range q.CTEs {
		if err := walkNode(cte, visit); err != nil {
			return err
		}
	}
	for _, rte := range q.RangeTable {
		if err := walkNode(rte, visit); err != nil {
			return err
		}
	}
	for _, te := range q.TargetList {
		if err := walkNode(te, visit); err != nil {
			return err
		}
	}
	if q.JoinTree != nil {
		if err := walkNode(q.JoinTree, visit); err != nil {
			return err
		}
	}
	if q.HavingQual != nil {
		if err := walkNode(q.HavingQual, visit); err != nil {
			return err
		}
	}
	if q.SetOperations != nil {
		if err := walkNode(q.SetOperations, visit); err != nil {
			return err
		}
	}
	for _, te := range q.ReturningList {
		if err := walkNode(te, visit); err != nil {
			return err
		}
	}
	if q.LimitCount != nil {
		if err := walkNode(q.LimitCount, visit); err != nil {
			return err
		}
	}
	if q.LimitOffset != nil {
		if err := walkNode(q.LimitOffset, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkRTEChildren(rte *RangeTableEntry, visit Visit) error {
	switch rte.Kind {
	case RTESubquery:
		if rte.Subquery != nil {
			return walkNode(rte.Subquery, visit)
		}
	case RTEFunction:
		if rte.Function != nil {
			return walkNode(rte.Function, visit)
		}
	case RTEValues:
		for _, row := range rte.ValuesLists {
			if err := walkExprs(row, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkExprs(exprs []Expr, visit Visit) error {
	for _, expr := range exprs {
		if err := walkNode(expr, visit); err != nil {
			return err
		}
	}
	return nil
}

// ContainsNode reports whether any node under (and including) the given
// roots matches.
func ContainsNode(match func(Node) bool, nodes ...Node) bool {
	found := false
	_ = Walk(func(node Node) (bool, error) {
		if match(node) {
			found = true
			return false, nil
		}
		return !found, nil
	}, nodes...)
	return found
}

// RangeTableContains reports whether any range table entry in the given
// list, or in the range table of any query nested under one, matches. This
// is the shape of check the planner uses to ask questions like "is there a
// sharded table anywhere under this FROM item".
func RangeTableContains(rtes []*RangeTableEntry, match func(*RangeTableEntry) bool) bool {
	for _, rte := range rtes {
		if ContainsNode(func(node Node) bool {
			entry, ok := node.(*RangeTableEntry)
			return ok && match(entry)
		}, rte) {
			return true
		}
	}
	return false
}
