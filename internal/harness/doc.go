// Package harness runs participation scenarios end to end.
//
// A scenario seeds users and events, executes a list of service operations
// against a fresh in-memory store and checks each step's outcome. Every step
// is recorded in a trace that can be compared against a golden file.
//
// # Scenario Format
//
//	name: batch_overflow
//	description: "Approve more requests than the event can hold"
//	users:
//	  - { id: 1, name: alice }
//	events:
//	  - { id: 10, initiator: 1, limit: 2, moderation: true, state: PUBLISHED }
//	steps:
//	  - op: create
//	    requester: 2
//	    event: 10
//	    expect: { status: PENDING }
//	  - op: moderate
//	    initiator: 1
//	    event: 10
//	    requests: [1, 2, 3]
//	    disposition: APPROVE
//	    expect: { confirmed: [1], rejected: [2, 3] }
//	assertions:
//	  - { type: confirmed_count, event: 10, count: 2 }
//
// Documents are decoded with unknown-field rejection and then checked
// against the embedded CUE schema (schema.cue) before anything runs.
//
// # Deterministic Testing
//
// Runs use a fresh in-memory SQLite database, a stepping clock for
// createdAt and sequential request ids, so the same scenario always produces
// a byte-identical canonical trace.
package harness
