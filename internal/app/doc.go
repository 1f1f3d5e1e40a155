// Package app provides the application service layer.
//
// Orchestrates use cases: pending-session lookup-or-create, item add/remove, session start
// and deletion. Sits between HTTP handlers and the domain repository. Depends on domain
// interfaces, not concrete implementations.
package app
