package bus

// MessageBus is the minimal contract of the message center for consumers that
// only need to subscribe to and publish named topics.
//
// Subscribers take no arguments and are invoked synchronously in the order
// they were registered. Publishing a topic nobody subscribed to is a no-op.
type MessageBus interface {
	Subscribe(topic string, callback func())
	Publish(topic string)
}
