// Package core defines the shared language of the mdtables system.
//
// This package contains:
//   - Table snapshots exchanged between the model, the serializer and the surface
//     (TableData, Metadata, Alignment)
//   - Source boundaries (Boundary) and validation results
//   - The error taxonomy shared by every layer (ParseError, ValidationError,
//     PositionError, PersistenceError, ProtocolError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
