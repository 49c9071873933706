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

import (
	"fmt"
	"strings"
)

// ValidateFinding validates a Finding according to domain rules.
//
// Validation rules:
//   - Description must not be empty
//   - Severity must be in [0,10]
//   - Kind must be a known FindingKind
//   - Period, when set, must be a year or year-quarter token
//
// NOT validated:
//   - ID (0 is valid; stores may assign content-based IDs)
//   - Title, Unit, Project (optional attributes)
func ValidateFinding(finding *Finding) error {
	if finding == nil {
		return fmt.Errorf("%w: finding is nil", ErrInvalidFinding)
	}

	if finding.Description == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFinding, ErrEmptyDescription)
	}

	if finding.Severity < 0 || finding.Severity > 10 {
		return fmt.Errorf("%w: %w", ErrInvalidFinding, ErrInvalidSeverity)
	}

	if err := ValidateFindingKind(finding.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFinding, err)
	}

	if finding.Period != "" && !isValidPeriod(finding.Period) {
		return fmt.Errorf("%w: %w", ErrInvalidFinding, ErrInvalidPeriod)
	}

	return nil
}

// ValidateFindingKind checks that a FindingKind is one of the known values.
func ValidateFindingKind(kind FindingKind) error {
	switch kind {
	case KindFinding, KindObservation, KindNote:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFindingKind, kind)
	}
}

// ValidateFilters validates caller-supplied query filters. A validation
// failure here is a contract violation by the caller and is the only hard
// error the retrieval engine propagates.
//
// Validation rules:
//   - MinSeverity must be in [0,10]
//   - Keywords must not contain blank entries
//   - Period, when set, must be a year or year-quarter token
func ValidateFilters(filters *QueryFilters) error {
	if filters == nil {
		return fmt.Errorf("%w: filters are nil", ErrInvalidFilters)
	}

	if filters.MinSeverity < 0 || filters.MinSeverity > 10 {
		return fmt.Errorf("%w: %w", ErrInvalidFilters, ErrInvalidSeverity)
	}

	for _, kw := range filters.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: blank keyword", ErrInvalidFilters)
		}
	}

	if filters.Period != "" && !isValidPeriod(filters.Period) {
		return fmt.Errorf("%w: %w", ErrInvalidFilters, ErrInvalidPeriod)
	}

	return nil
}

// isValidPeriod accepts "YYYY" or "YYYY-Qn" with n in 1-4.
func isValidPeriod(period string) bool {
	if len(period) != 4 && len(period) != 7 {
		return false
	}
	for i := 0; i < 4; i++ {
		if period[i] < '0' || period[i] > '9' {
			return false
		}
	}
	if len(period) == 4 {
		return true
	}
	return period[4] == '-' && period[5] == 'Q' && period[6] >= '1' && period[6] <= '4'
}
