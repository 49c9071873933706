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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidFilters indicates malformed caller-supplied query filters.
	// This is the only error class the engine surfaces as a hard failure.
	ErrInvalidFilters = errors.New("invalid query filters")

	// ErrInvalidFinding indicates a Finding failed validation.
	ErrInvalidFinding = errors.New("invalid finding")

	// ErrEmptyDescription indicates the Description field is empty.
	ErrEmptyDescription = errors.New("description cannot be empty")

	// ErrInvalidSeverity indicates a severity outside the 0-10 range.
	ErrInvalidSeverity = errors.New("severity must be between 0 and 10")

	// ErrInvalidFindingKind indicates an invalid FindingKind value.
	ErrInvalidFindingKind = errors.New("invalid finding kind")

	// ErrInvalidPeriod indicates a reporting period that is not a year or
	// year-quarter token.
	ErrInvalidPeriod = errors.New("period must be YYYY or YYYY-Qn")
)
