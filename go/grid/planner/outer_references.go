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
	"gridsql.io/gridsql/go/grid/querytree"
)

// ContainsReferencesToOuterQuery reports whether query is correlated:
// some Var, Aggref, GroupingFunc or PlaceHolderVar under it points above
// the query itself. References that stay within nested levels of the
// query do not count.
func ContainsReferencesToOuterQuery(query *querytree.Query) bool {
	return queryLevelHasOuterRefs(query, 0)
}

func queryLevelHasOuterRefs(query *querytree.Query, depth int) bool {
	found := false
	_ = querytree.Walk(func(node querytree.Node) (kontinue bool, err error) {
		if found {
			return false, nil
		}
		switch n := node.(type) {
		case *querytree.Query:
			if n != query {
				if queryLevelHasOuterRefs(n, depth+1) {
					found = true
				}
				return false, nil
			}
		case *querytree.Var:
			if n.LevelsUp > depth {
				found = true
				return false, nil
			}
		case *querytree.Aggref:
			if n.LevelsUp > depth {
				found = true
				return false, nil
			}
		case *querytree.GroupingFunc:
			if n.LevelsUp > depth {
				found = true
				return false, nil
			}
		case *querytree.PlaceHolderVar:
			if n.LevelsUp > depth {
				found = true
				return false, nil
			}
		}
		return true, nil
	}, query)
	return found
}

// extractSubLinks collects the sublinks directly under the given
// expressions, without descending into the sublinks themselves.
func extractSubLinks(exprs ...querytree.Expr) []*querytree.SubLink {
	var subLinks []*querytree.SubLink
	nodes := make([]querytree.Node, 0, len(exprs))
	for _, expr := range exprs {
		if expr != nil {
			nodes = append(nodes, expr)
		}
	}
	_ = querytree.Walk(func(node querytree.Node) (kontinue bool, err error) {
		if sl, ok := node.(*querytree.SubLink); ok {
			subLinks = append(subLinks, sl)
			return false, nil
		}
		return true, nil
	}, nodes...)
	return subLinks
}

// nodeContainsSubqueryReferencingOuterQuery reports whether any sublink
// directly under the expressions hosts a correlated subquery.
func nodeContainsSubqueryReferencingOuterQuery(exprs ...querytree.Expr) bool {
	for _, subLink := range extractSubLinks(exprs...) {
		if subLink.Subquery != nil && ContainsReferencesToOuterQuery(subLink.Subquery) {
			return true
		}
	}
	return false
}
