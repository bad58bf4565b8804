package events

// Topic constants for storefront activity events.
const (
	TopicCartItemAdded       = "cart.item_added"
	TopicCartItemRemoved     = "cart.item_removed"
	TopicCartQuantityUpdated = "cart.quantity_updated"
	TopicCartPanelOpened     = "cart.panel_opened"
)

// DefaultQueue is the asynq queue activity tasks are enqueued on.
const DefaultQueue = "storefront"

// DefaultTopics returns every activity topic.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemRemoved,
		TopicCartQuantityUpdated,
		TopicCartPanelOpened,
	}
}

// KnownTopic reports whether topic is one of DefaultTopics.
func KnownTopic(topic string) bool {
	for _, t := range DefaultTopics() {
		if t == topic {
			return true
		}
	}
	return false
}
