/*
Package rabbitmq relays message center topics to RabbitMQ.
Each topic is published to a topic exchange with the topic as routing key,
through an auto-reconnecting publisher, with optional header propagation via a
bus.HeaderPropagator.
*/
package rabbitmq
