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

package cmd

import (
	"github.com/spf13/viper"

	"gridsql.io/gridsql/go/grid/catalog"
	"gridsql.io/gridsql/go/grid/griderrors"
	"gridsql.io/gridsql/go/grid/planner/restriction"
)

// tableConfig is one relation in the metadata file.
//
//	tables:
//	  - relation_id: 10
//	    type: sharded
//	    distribution_column: 1
type tableConfig struct {
	RelationID         uint64 `mapstructure:"relation_id"`
	Type               string `mapstructure:"type"`
	DistributionColumn int    `mapstructure:"distribution_column"`
}

// columnRefConfig names a column as (range table entry identity,
// attribute number), matching how the restriction context tracks columns.
type columnRefConfig struct {
	RTE       int `mapstructure:"rte"`
	Attribute int `mapstructure:"attribute"`
}

type relationConfig struct {
	RTE        int    `mapstructure:"rte"`
	RelationID uint64 `mapstructure:"relation_id"`
}

type metadataConfig struct {
	Tables             []tableConfig       `mapstructure:"tables"`
	Relations          []relationConfig    `mapstructure:"relations"`
	EquivalenceClasses [][]columnRefConfig `mapstructure:"equivalence_classes"`
	HasOuterJoin       bool                `mapstructure:"has_outer_join"`
}

// loadMetadata reads the metadata file into a catalog and a restriction
// context. An empty path yields an empty catalog, which classifies every
// relation as not distributed.
func loadMetadata(path string) (*catalog.MemoryCatalog, *restriction.Context, error) {
	cat := catalog.NewMemoryCatalog()
	rctx := &restriction.Context{}
	if path == "" {
		return cat, rctx, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, griderrors.Wrapf(err, "reading metadata file %s", path)
	}
	var cfg metadataConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, griderrors.Wrapf(err, "parsing metadata file %s", path)
	}

	for _, table := range cfg.Tables {
		switch table.Type {
		case "sharded":
			cat.AddSharded(table.RelationID, table.DistributionColumn)
		case "reference":
			cat.AddReference(table.RelationID)
		case "grid_local":
			cat.AddGridLocal(table.RelationID)
		case "local", "":
			// Not tracked; the catalog classifies unknown relations as
			// not distributed.
		default:
			return nil, nil, griderrors.Errorf(griderrors.InvalidArgument,
				"unknown table type %q for relation %d", table.Type, table.RelationID)
		}
	}

	for _, rel := range cfg.Relations {
		rctx.Relations = append(rctx.Relations, &restriction.RelationRestriction{
			RelationID:  rel.RelationID,
			RTEIdentity: rel.RTE,
		})
	}
	for _, class := range cfg.EquivalenceClasses {
		refs := make([]restriction.ColumnRef, 0, len(class))
		for _, ref := range class {
			refs = append(refs, restriction.ColumnRef{RTEIdentity: ref.RTE, AttNo: ref.Attribute})
		}
		rctx.EquivalenceClasses = append(rctx.EquivalenceClasses, refs)
	}
	rctx.HasOuterJoin = cfg.HasOuterJoin

	return cat, rctx, nil
}
