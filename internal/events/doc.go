// Package events fans controller state changes out to in-process subscribers
// and, optionally, to MQTT and NATS brokers.
//
// Publish never blocks: a subscriber whose buffer is full misses the event.
// Sinks consume a subscription in their own goroutine via Forward.
package events
