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


// Package search implements the ranking stages of the retrieval engine.
//
// Three strategies are available:
//   - Keyword: a pure, deterministic weighted-rule scorer over the
//     structured filters
//   - Semantic: cosine similarity between the query embedding and each
//     finding's embedding, with keyword fallback when embeddings are
//     unavailable
//   - Hybrid: keyword filtering, then semantic ranking, then weighted
//     score fusion
//
// The strategy is selected per request from the query text and filter set.
// All rankings are deterministic for identical inputs: ties are broken by
// finding ID ascending.
package search
