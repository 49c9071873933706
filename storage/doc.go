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


// Package storage provides the storage abstraction layer for auditctx.
//
// It defines the repository interface that decouples the retrieval engine
// from the storage backend, plus serialization helpers shared by backend
// implementations. The BadgerDB implementation lives in storage/badger.
//
// Public constructors return the storage.FindingRepository interface so
// consumers never couple to backend specifics; in tests, use
// badger.NewMemoryRepository for an in-memory store.
//
// All repository implementations must be safe for concurrent use and
// accept context.Context for cancellation.
package storage
