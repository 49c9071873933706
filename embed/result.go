package embed

import "github.com/revisia/auditctx/core"

// Result is the outcome of an embedding lookup. It is either available,
// carrying a vector, or unavailable, carrying the reason. Transient service
// failures are reported through unavailable results rather than errors so
// the fallback branch in ranking code stays visible.
type Result struct {
	embedding *core.EmbeddingVector
	err       error
}

// Ok wraps a computed embedding in an available Result.
func Ok(embedding *core.EmbeddingVector) Result {
	return Result{embedding: embedding}
}

// Unavailable marks an embedding as unobtainable for this request.
func Unavailable(err error) Result {
	return Result{err: err}
}

// Available reports whether the embedding was obtained.
func (r Result) Available() bool {
	return r.err == nil && r.embedding != nil
}

// Embedding returns the vector. Only valid when Available() is true.
func (r Result) Embedding() *core.EmbeddingVector {
	return r.embedding
}

// Reason returns why the embedding is unavailable, or nil.
func (r Result) Reason() error {
	return r.err
}
