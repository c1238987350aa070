// Copyright 2026 The Graphcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package graphdoc defines the read-only, already-parsed document shape
// that graphcache operates on. It stands in for a real query-language
// parser/AST package, which is outside the scope of this module: callers
// are expected to translate whatever they parse (or construct
// programmatically) into these types before calling into graphcache.
package graphdoc
