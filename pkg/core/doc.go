// Package core defines the shared language of the h5pup system.
//
// This package contains:
//   - Domain values (Version, Library, Field)
//   - Collaborator interfaces (LibraryLoader, Hook, HookSource, DiagnosticSink, Store)
//   - Typed errors reported by the upgrade engine
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
