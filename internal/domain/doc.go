// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (session.go, item.go, errors.go) hold shared types and the
// repository contract implemented by the storage adapters. No implementation code
// beyond small value helpers.
package domain
