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

// Package catalog classifies relations for the distributed planner.
//
// The planner never inspects shard placement directly. It only needs to
// know, per relation, whether the relation is managed by GridSQL at all
// and if so whether its rows live on every worker (reference tables) or
// are split across workers by a distribution column (sharded tables).
package catalog

import "gridsql.io/gridsql/go/grid/querytree"

// TableType classifies a relation for planning purposes.
type TableType int8

const (
	// NotDistributed marks relations the coordinator knows nothing
	// about: plain local tables, views, foreign tables.
	NotDistributed TableType = iota

	// ReferenceTable marks relations replicated in full to every worker.
	ReferenceTable

	// ShardedTable marks relations split across workers by a
	// distribution column.
	ShardedTable

	// GridLocalTable marks coordinator-local tables managed by GridSQL
	// so they can participate in distributed queries.
	GridLocalTable
)

func (t TableType) String() string {
	switch t {
	case NotDistributed:
		return "not distributed"
	case ReferenceTable:
		return "reference table"
	case ShardedTable:
		return "sharded table"
	case GridLocalTable:
		return "local table"
	default:
		return "unknown"
	}
}

// Resolver answers classification questions about relations. Implemented
// by the coordinator metadata cache; tests and tooling use MemoryCatalog.
type Resolver interface {
	// TableType classifies the relation with the given identifier.
	// Unknown relations classify as NotDistributed.
	TableType(relationID uint64) TableType

	// DistributionColumn returns the 1-based attribute number of the
	// distribution column of a sharded relation. ok is false for
	// relations without a distribution key (reference tables, local
	// tables, unknown relations).
	DistributionColumn(relationID uint64) (attNo int, ok bool)
}

// IsGridTable reports whether the relation is managed by GridSQL.
func IsGridTable(resolver Resolver, relationID uint64) bool {
	return resolver.TableType(relationID) != NotDistributed
}

// IsLocalTableOrMatView reports whether a range table entry reads rows
// that only exist on the coordinator: a plain local relation, a
// materialized view, or a grid-local table.
func IsLocalTableOrMatView(resolver Resolver, rte *querytree.RangeTableEntry) bool {
	if rte.Kind != querytree.RTERelation {
		return false
	}
	if rte.RelationKind == querytree.RelationMaterializedView {
		return true
	}
	switch resolver.TableType(rte.RelationID) {
	case NotDistributed, GridLocalTable:
		return true
	}
	return false
}

// TableEntry describes one relation held by a MemoryCatalog.
type TableEntry struct {
	Type TableType

	// DistributionAttNo is the 1-based attribute number of the
	// distribution column. Only meaningful for sharded tables.
	DistributionAttNo int
}

// MemoryCatalog is a map-backed Resolver.
type MemoryCatalog struct {
	tables map[uint64]TableEntry
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{tables: make(map[uint64]TableEntry)}
}

// AddSharded registers a sharded table distributed on the given 1-based
// attribute number.
func (c *MemoryCatalog) AddSharded(relationID uint64, distributionAttNo int) {
	c.tables[relationID] = TableEntry{Type: ShardedTable, DistributionAttNo: distributionAttNo}
}

// AddReference registers a reference table.
func (c *MemoryCatalog) AddReference(relationID uint64) {
	c.tables[relationID] = TableEntry{Type: ReferenceTable}
}

// AddGridLocal registers a coordinator-local table managed by GridSQL.
func (c *MemoryCatalog) AddGridLocal(relationID uint64) {
	c.tables[relationID] = TableEntry{Type: GridLocalTable}
}

func (c *MemoryCatalog) TableType(relationID uint64) TableType {
	return c.tables[relationID].Type
}

func (c *MemoryCatalog) DistributionColumn(relationID uint64) (int, bool) {
	entry, ok := c.tables[relationID]
	if !ok || entry.Type != ShardedTable {
		return 0, false
	}
	return entry.DistributionAttNo, true
}
