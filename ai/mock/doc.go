// Package mock provides test double implementations of the ai interfaces.
//
// The mock embedder allows tests to run without an external embedding
// service and enables controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Default deterministic behavior
//	embedder := mock.NewMockEmbedder()
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	// Call-count assertions
//	count := embedder.CallCount()
//
// By default the mock returns deterministic vectors derived from a hash of
// the input text, so identical texts always embed identically.
package mock
