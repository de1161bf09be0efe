// Package audit carries session lifecycle events from the client to a Sink
// without making lifecycle calls wait on sink I/O.
//
// The root Client decides which events exist and fills them in. This package
// only queues and delivers them. A [Dispatcher] runs one delivery goroutine;
// with DropIfFull a full queue discards the event, otherwise Emit waits for
// space until its context ends. A sink that panics loses that event and the
// dispatcher keeps going. Dropped and Delivered report both outcomes.
//
// Sinks shipped here: [ChannelSink] for in-process consumers and tests,
// [JSONWriterSink] for line-delimited JSON, [SlogSink] for structured logs,
// and [NoOpSink].
//
// Events never carry bearer tokens, and session ids arrive already redacted.
package audit
