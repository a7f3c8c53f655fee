// Package repositories implements SQLite persistence for the console's local state.
//
// The only local state is the signed-in admin: [SessionRepository] stores it in a single-row
// sessions table (slot = 1) created by the embedded migrations in package shared.
// It satisfies session.Store.
package repositories
