// Package participation holds the domain model for participation requests
// against capacity-bounded events.
//
// It is deliberately free of persistence and transport concerns:
//
//   - types.go: Request, EventSnapshot and the collaborator interfaces
//   - lifecycle.go: the status state machine
//   - admission.go: single-request and batch admission decisions
//   - errors.go: the NotFound / Conflict / Validation taxonomy
//
// Decisions take the confirmed count as an argument. Callers must read that
// count inside the same event scope that persists the outcome, otherwise two
// concurrent admissions can both observe free capacity.
package participation
