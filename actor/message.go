package actor

import (
	"strconv"
)

// Kind identifies the variant of a FizzBuzzMessage.
type Kind uint8

const (
	// KindValue carries the number itself
	KindValue Kind = iota

	// KindFizz is a multiple of 3 only
	KindFizz

	// KindBuzz is a multiple of 5 only
	KindBuzz

	// KindFizzBuzz is a multiple of 15
	KindFizzBuzz
)

// String returns the lower-case kind name used as a metric label.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFizz:
		return "fizz"
	case KindBuzz:
		return "buzz"
	case KindFizzBuzz:
		return "fizzbuzz"
	default:
		return "unknown"
	}
}

// Packed codes of the named variants.
const (
	packedFizz     uint64 = 3
	packedBuzz     uint64 = 5
	packedFizzBuzz uint64 = 15
)

// FizzBuzzMessage is the classification of one generated value.
type FizzBuzzMessage struct {
	kind  Kind
	value uint64
}

var (
	// FizzBuzz classifies multiples of 15.
	FizzBuzz = FizzBuzzMessage{kind: KindFizzBuzz}

	// Fizz classifies multiples of 3 that are not multiples of 5.
	Fizz = FizzBuzzMessage{kind: KindFizz}

	// Buzz classifies multiples of 5 that are not multiples of 3.
	Buzz = FizzBuzzMessage{kind: KindBuzz}
)

// Value wraps a number that is neither a multiple of 3 nor of 5.
func Value(v uint64) FizzBuzzMessage {
	return FizzBuzzMessage{kind: KindValue, value: v}
}

// Classify maps v to its FizzBuzz variant.
func Classify(v uint64) FizzBuzzMessage {
	switch {
	case v%15 == 0:
		return FizzBuzz
	case v%3 == 0:
		return Fizz
	case v%5 == 0:
		return Buzz
	default:
		return Value(v)
	}
}

// Kind returns the variant.
func (m FizzBuzzMessage) Kind() Kind {
	return m.kind
}

// Number returns the carried value for KindValue messages.
func (m FizzBuzzMessage) Number() (uint64, bool) {
	return m.value, m.kind == KindValue
}

// Pack encodes the message into a single word. Named variants use their
// divisor as code; values are stored as is, which never collides because
// 3, 5 and 15 always classify as named variants.
func (m FizzBuzzMessage) Pack() uint64 {
	switch m.kind {
	case KindFizz:
		return packedFizz
	case KindBuzz:
		return packedBuzz
	case KindFizzBuzz:
		return packedFizzBuzz
	default:
		return m.value
	}
}

// UnpackFizzBuzz decodes a word produced by Pack.
func UnpackFizzBuzz(w uint64) FizzBuzzMessage {
	switch w {
	case packedFizz:
		return Fizz
	case packedBuzz:
		return Buzz
	case packedFizzBuzz:
		return FizzBuzz
	default:
		return Value(w)
	}
}

// String renders the message the way the logger prints it.
func (m FizzBuzzMessage) String() string {
	switch m.kind {
	case KindFizz:
		return "Fizz"
	case KindBuzz:
		return "Buzz"
	case KindFizzBuzz:
		return "FizzBuzz"
	default:
		return strconv.FormatUint(m.value, 10)
	}
}
