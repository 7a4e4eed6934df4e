// Package service orchestrates participation requests.
//
// Service is the public contract of the module. It checks identities and
// event state through the collaborator interfaces, then runs every
// capacity-sensitive read-decide-write sequence inside a store event scope:
//
//	CreateRequest: user -> event -> initiator -> published -> live request
//	               -> scope{live re-check, count, Decide, insert}
//	BatchUpdate:   initiator -> scope{load, ValidateBatch, count, Partition, Apply, save}
//
// CancelRequest is a single-row update and does not enter the event scope.
// Errors are participation.Error values for domain failures and wrapped
// errors for everything else.
package service
