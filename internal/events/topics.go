package events

// Topic constants for domain events emitted by the platform.
const (
	TopicListCreated = "list.created"
	TopicListLocked  = "list.locked"
	TopicBillCreated = "bill.created"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicListCreated,
		TopicListLocked,
		TopicBillCreated,
	}
}
