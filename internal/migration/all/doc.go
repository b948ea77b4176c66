// Package all is the canonical list of store migrations.
//
// Every file numbered 00NN_*.go defines the step that upgrades a document from
// version NN-1 to version NN. Migrations lists them in order; Registry validates the
// list and is what the application boots with.
//
// Adding a migration means adding a numbered file and appending its variable to
// Migrations. Existing steps must never change once released: persisted documents
// record only the number of the last step they went through.
package all
