// Package channel provides the bounded FIFO used between actors.
//
// A channel is created as a producer half (Tx) and a consumer half (Rx).
// Non-blocking TrySend/TryTake never suspend; WaitVacant and WaitAvail
// suspend until enough room or data exists without consuming anything,
// which lets an actor combine several readiness conditions before doing
// a batch of work.
//
// Closing is one-way and idempotent. Items sent before MarkClosed stay
// takeable until the consumer drains them, and IsClosedAndEmpty is the
// consumer's signal that no more data will ever arrive.
package channel
