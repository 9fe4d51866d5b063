// Package player implements the playback core: the Engine state machine
// that owns the queue, transport state and shuffle/repeat policy, and the
// Facade that surfaces a consistent snapshot of engine, like-store and
// listening-time state to consumers.
//
// The Engine is the single source of truth. Adapter callbacks carry the
// generation token of the load they belong to; the Engine discards any
// callback whose token does not match its current generation, so state from
// a superseded load can never overwrite the active track.
package player
