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
	"github.com/spf13/pflag"
)

// Settings are the tunables of the recursive planner. A zero Settings is
// usable; DefaultSettings matches the coordinator defaults.
type Settings struct {
	// SubqueryPushdown forces every subquery to be treated as
	// pushdown-safe, skipping extraction entirely below the CTE pass.
	// This is an escape hatch for workloads that guarantee colocation
	// out of band.
	SubqueryPushdown bool

	// EnableBinaryProtocol lets intermediate results travel in binary
	// copy format when every column type supports it.
	EnableBinaryProtocol bool
}

// DefaultSettings returns the coordinator defaults.
func DefaultSettings() *Settings {
	return &Settings{
		EnableBinaryProtocol: true,
	}
}

// RegisterFlags installs the planner flags on fs.
func (s *Settings) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.SubqueryPushdown, "grid-subquery-pushdown", s.SubqueryPushdown,
		"Assume subqueries are safe to push down unchanged and skip recursive planning below the CTE pass.")
	fs.BoolVar(&s.EnableBinaryProtocol, "grid-enable-binary-protocol", s.EnableBinaryProtocol,
		"Transfer intermediate results in binary copy format when all column types support it.")
}
