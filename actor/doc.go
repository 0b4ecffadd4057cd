// Package actor contains the four actors of the FizzBuzz pipeline:
// Heartbeat, Generator, Worker and Logger, plus the FizzBuzzMessage
// they exchange.
package actor
