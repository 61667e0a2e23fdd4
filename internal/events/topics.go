package events

// Topic constants for domain events emitted by the pipeline.
const (
	TopicQuoteComputed = "quote.computed"
	TopicFeesChanged   = "engine.fees_changed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicQuoteComputed,
		TopicFeesChanged,
	}
}
