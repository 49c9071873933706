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


// Package embed provides the embedding cache and the provider adapter that
// wraps the external embedding service.
//
// The Provider exposes get-or-compute semantics keyed by content
// fingerprint: a cache hit returns the stored vector, a miss calls the
// embedding service and stores the result with a TTL. Concurrent requests
// for the same uncached text are deduplicated with a single-flight group,
// outbound calls are rate limited, and batch requests fan out over a
// bounded worker pool with partial-success semantics.
//
// External failures never surface as errors. Every lookup yields a Result
// that is either available or unavailable; callers branch on availability
// and fall back to keyword scoring when the service is down.
package embed
