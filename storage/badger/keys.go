package badger

import (
	"fmt"

	"github.com/revisia/auditctx/core"
)

// Key prefixes for different data types
const (
	findingRecordPrefix   = "audfnd"
	embeddingRecordPrefix = "audemb"
)

// makeFindingKey generates a key for a finding by ID.
func makeFindingKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", findingRecordPrefix, id))
}

// makeEmbeddingKey generates a key for a cached embedding by fingerprint.
func makeEmbeddingKey(fp core.Fingerprint) []byte {
	return []byte(fmt.Sprintf("%s:%s", embeddingRecordPrefix, fp))
}
