// Package diag turns the errors produced while building, validating and
// materializing a module into uniform diagnostics.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: Info, Warning or Error, defined in severity.go.
//   - Code: compact numeric identifier (see codes.go) with a stable string form.
//   - Message: human oriented text; keep it short and actionable.
//   - Location: module, function, block and instruction index.
//   - Notes: optional extra context such as the expected and actual types of
//     an operand mismatch.
//
// # Producers
//
// FromError unpacks *ir.BuildError, ir.ValidationErrorList,
// *materialize.Error and *layout.LayoutError. Anything else becomes a single
// diagnostic with UnknownCode.
//
// # Consumers
//
// Bag collects diagnostics with a limit, sorts them by location and removes
// duplicates. Package diagfmt renders them for terminals and tools.
package diag
