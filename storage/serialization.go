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


package storage

import (
	"github.com/revisia/auditctx/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalFinding serializes a Finding to bytes.
func MarshalFinding(finding *core.Finding) []byte {
	buf := make([]byte, core.FindingMUS.Size(*finding))
	core.FindingMUS.Marshal(*finding, buf)
	return buf
}

// UnmarshalFinding deserializes a Finding from bytes.
func UnmarshalFinding(data []byte) (*core.Finding, error) {
	finding, _, err := core.FindingMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &finding, nil
}

// MarshalEmbeddingVector serializes an EmbeddingVector to bytes.
func MarshalEmbeddingVector(vec *core.EmbeddingVector) []byte {
	buf := make([]byte, core.EmbeddingVectorMUS.Size(*vec))
	core.EmbeddingVectorMUS.Marshal(*vec, buf)
	return buf
}

// UnmarshalEmbeddingVector deserializes an EmbeddingVector from bytes.
func UnmarshalEmbeddingVector(data []byte) (*core.EmbeddingVector, error) {
	vec, _, err := core.EmbeddingVectorMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &vec, nil
}
