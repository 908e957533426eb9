// Package broadcaster publishes execution events from the exit WAL to
// Kafka, through either sarama or kafka-go.
package broadcaster
