// Package core implements the cooperative actor runtime for steady.
//
// A Graph owns a set of named actors. Each actor is a Behavior that loops
// on Context.IsRunning and suspends only in explicit waits: a Periodic
// schedule, room in an outgoing channel, data in an incoming channel, or
// any combination through WaitForAll and WaitForAny.
//
// Shutdown is negotiated. RequestStop (or any actor via RequestShutdown)
// raises a shared ShutdownSignal; every actor then runs its OnShutdown
// close actions on each IsRunning call and keeps looping until its veto
// predicate agrees to stop, which lets in-flight data drain downstream
// before the pipeline ends. BlockUntilStopped bounds that negotiation
// with a teardown timeout.
//
// Per-actor state lives in the graph's StateArena and survives a panic:
// the supervisor recovers, waits RestartBackoff and invokes the behavior
// again, which locks the same State slot.
package core
