// Copyright 2026 Revisia Labs
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


// Package assemble renders ranked findings into a token-budgeted context
// block for the language-model prompting layer.
//
// The builder iterates candidates in rank order, renders a fixed-format
// text block per finding, and stops before exceeding the budget's
// candidate and token caps. Token counts come from a pluggable
// TokenEstimator; the default is a cheap characters-per-token heuristic,
// with an exact tiktoken-based counter available as an opt-in.
package assemble
