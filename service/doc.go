// Package service is the single write entry point of the engine. It
// sequences commands, journals them to the entry WAL, applies them to
// the book, records execution events in the outbox and feeds market
// data to subscribers. The gRPC and HTTP transports sit on
// top of it.
package service
