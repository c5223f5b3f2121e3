// Package publish forwards committed guild events to message brokers.
//
// A Relay registers as an EventBus listener, buffers events and delivers
// them to each configured Publisher on its own goroutine, so a slow broker
// never blocks a guild operation. Two publishers are provided:
//
//   - KafkaPublisher writes JSON events keyed by guild id
//   - AMQPPublisher publishes to a topic exchange with "guild.<event>" routing keys
//
// Delivery is best effort. Failures are logged and not retried.
package publish
