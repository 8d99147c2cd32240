// Package repository provides typed CRUD over the document store.
//
// Every operation resolves the live store through a Source on each call,
// so a storage switch is picked up without rebuilding the repository.
// Lookups that miss return a nil record and a nil error. Inputs are
// validated before the store is touched; validation failures wrap
// ErrInvalidInput.
package repository
