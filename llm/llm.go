package llm

// Client abstracts an LLM provider used for complaint extraction.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// AnalyzeComplaint takes optional evidence image bytes and the free-text
	// complaint, and returns a single JSON string per the extraction schema.
	AnalyzeComplaint(evidence []byte, complaint string) (string, error)
	// SourceName returns a short provider label to persist in the database
	// (e.g., "ChatGPT", "Gemini", "Keyword").
	SourceName() string
}
