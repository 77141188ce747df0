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

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/grid/querytree"
)

func TestMemoryCatalog(t *testing.T) {
	c := NewMemoryCatalog()
	c.AddSharded(10, 1)
	c.AddReference(20)
	c.AddGridLocal(30)

	require.Equal(t, ShardedTable, c.TableType(10))
	require.Equal(t, ReferenceTable, c.TableType(20))
	require.Equal(t, GridLocalTable, c.TableType(30))
	require.Equal(t, NotDistributed, c.TableType(999))

	attNo, ok := c.DistributionColumn(10)
	require.True(t, ok)
	require.Equal(t, 1, attNo)

	_, ok = c.DistributionColumn(20)
	require.False(t, ok)
	_, ok = c.DistributionColumn(999)
	require.False(t, ok)
}

func TestIsGridTable(t *testing.T) {
	c := NewMemoryCatalog()
	c.AddSharded(10, 1)
	c.AddReference(20)

	require.True(t, IsGridTable(c, 10))
	require.True(t, IsGridTable(c, 20))
	require.False(t, IsGridTable(c, 999))
}

func TestIsLocalTableOrMatView(t *testing.T) {
	c := NewMemoryCatalog()
	c.AddSharded(10, 1)
	c.AddReference(20)
	c.AddGridLocal(30)

	tcases := []struct {
		name string
		rte  *querytree.RangeTableEntry
		want bool
	}{{
		name: "plain local relation",
		rte:  &querytree.RangeTableEntry{Kind: querytree.RTERelation, RelationID: 999},
		want: true,
	}, {
		name: "sharded relation",
		rte:  &querytree.RangeTableEntry{Kind: querytree.RTERelation, RelationID: 10},
		want: false,
	}, {
		name: "materialized view",
		rte: &querytree.RangeTableEntry{
			Kind:         querytree.RTERelation,
			RelationID:   999,
			RelationKind: querytree.RelationMaterializedView,
		},
		want: true,
	}, {
		name: "reference relation",
		rte:  &querytree.RangeTableEntry{Kind: querytree.RTERelation, RelationID: 20},
		want: false,
	}, {
		name: "grid-local relation",
		rte:  &querytree.RangeTableEntry{Kind: querytree.RTERelation, RelationID: 30},
		want: true,
	}, {
		name: "subquery",
		rte:  &querytree.RangeTableEntry{Kind: querytree.RTESubquery},
		want: false,
	}}
	for _, tcase := range tcases {
		t.Run(tcase.name, func(t *testing.T) {
			require.Equal(t, tcase.want, IsLocalTableOrMatView(c, tcase.rte))
		})
	}
}
