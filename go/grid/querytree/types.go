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

// ColumnType identifies a SQL column type by name, with the optional type
// modifier and collation that accompany it through target lists and column
// definition lists.
type ColumnType struct {
	// Name is the engine type name, e.g. "int4" or "text".
	Name string

	// Mod is the type modifier, -1 when not applicable.
	Mod int32

	// Collation is the collation name, empty for non-collatable types.
	Collation string
}

// Common column types.
var (
	TypeBool      = ColumnType{Name: "bool", Mod: -1}
	TypeInt4      = ColumnType{Name: "int4", Mod: -1}
	TypeInt8      = ColumnType{Name: "int8", Mod: -1}
	TypeFloat8    = ColumnType{Name: "float8", Mod: -1}
	TypeText      = ColumnType{Name: "text", Mod: -1}
	TypeTextArray = ColumnType{Name: "_text", Mod: -1}

	// TypeCopyFormat is the enum type naming the wire encoding of a
	// materialized intermediate result.
	TypeCopyFormat = ColumnType{Name: "grid_copy_format", Mod: -1}
)

// binaryProtocolTypes lists the type names whose values can be transferred
// in the binary result encoding. Anything else falls back to text.
var binaryProtocolTypes = map[string]bool{
	"bool":        true,
	"bytea":       true,
	"int2":        true,
	"int4":        true,
	"int8":        true,
	"float4":      true,
	"float8":      true,
	"numeric":     true,
	"text":        true,
	"varchar":     true,
	"date":        true,
	"time":        true,
	"timestamp":   true,
	"timestamptz": true,
	"interval":    true,
	"uuid":        true,
	"jsonb":       true,
}

// SupportsBinaryProtocol reports whether values of this type can use the
// binary result encoding.
func (t ColumnType) SupportsBinaryProtocol() bool {
	return binaryProtocolTypes[t.Name]
}

// TypeOf returns the result type of an expression. Expressions without a
// determinable type report the empty ColumnType.
func TypeOf(e Expr) ColumnType {
	switch expr := e.(type) {
	case *Var:
		return expr.Type
	case *Const:
		return expr.Type
	case *FuncExpr:
		return expr.ReturnType
	case *OpExpr:
		return expr.Type
	case *BoolExpr:
		return TypeBool
	case *Aggref:
		return expr.Type
	case *GroupingFunc:
		return TypeInt4
	case *PlaceHolderVar:
		return TypeOf(expr.Expr)
	case *SubLink:
		if expr.Type == ExistsSubLink {
			return TypeBool
		}
		if expr.Subquery != nil && len(expr.Subquery.TargetList) > 0 {
			return TypeOf(expr.Subquery.TargetList[0].Expr)
		}
		return ColumnType{}
	default:
		return ColumnType{}
	}
}
