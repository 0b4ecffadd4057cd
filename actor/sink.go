package actor

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives every message the logger actor drains.
type Sink interface {
	Record(msg FizzBuzzMessage)
}

// LogSink writes each message to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record implements Sink.
func (s *LogSink) Record(msg FizzBuzzMessage) {
	s.logger.Info("fizzbuzz", zap.Stringer("msg", msg), zap.Stringer("kind", msg.Kind()))
}

// MemorySink keeps every message in memory.
type MemorySink struct {
	mu       sync.Mutex
	messages []FizzBuzzMessage
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink.
func (s *MemorySink) Record(msg FizzBuzzMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
}

// Messages returns a copy of the recorded messages.
func (s *MemorySink) Messages() []FizzBuzzMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FizzBuzzMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of recorded messages.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// MultiSink fans every message out to several sinks.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(msg FizzBuzzMessage) {
	for _, s := range m {
		s.Record(msg)
	}
}
