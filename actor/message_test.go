package actor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	for v := uint64(0); v < 3000; v++ {
		msg := Classify(v)
		switch {
		case v%15 == 0:
			assert.Equal(t, FizzBuzz, msg, "value %d", v)
		case v%3 == 0:
			assert.Equal(t, Fizz, msg, "value %d", v)
		case v%5 == 0:
			assert.Equal(t, Buzz, msg, "value %d", v)
		default:
			n, ok := msg.Number()
			assert.True(t, ok)
			assert.Equal(t, v, n)
		}
	}
}

func TestClassifyFirstValues(t *testing.T) {
	var got []string
	for v := uint64(0); v <= 5; v++ {
		got = append(got, Classify(v).String())
	}
	assert.Equal(t, []string{"FizzBuzz", "1", "2", "Fizz", "4", "Buzz"}, got)
}

func TestPackIsLossless(t *testing.T) {
	for _, v := range []uint64{0, 1, 3, 5, 7, 15, 98, 100, math.MaxUint64} {
		msg := Classify(v)
		assert.Equal(t, msg, UnpackFizzBuzz(msg.Pack()), "value %d", v)
	}
	assert.Equal(t, uint64(15), FizzBuzz.Pack())
	assert.Equal(t, uint64(3), Fizz.Pack())
	assert.Equal(t, uint64(5), Buzz.Pack())
	assert.Equal(t, uint64(7), Value(7).Pack())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "fizzbuzz", FizzBuzz.Kind().String())
	assert.Equal(t, "fizz", Fizz.Kind().String())
	assert.Equal(t, "buzz", Buzz.Kind().String())
	assert.Equal(t, "value", Value(1).Kind().String())
	assert.Equal(t, "unknown", Kind(42).String())
}
