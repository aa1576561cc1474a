// Package logging builds the zerolog logger the session engine and its
// transports write to.
//
// The engine takes any zerolog.Logger; this package only assembles a
// sensible one: leveled JSON by default, an optional human console
// format, and optional size-rotated file output. Nothing here is
// required — embedders with their own zerolog setup pass it straight
// to the engine builder.
//
// # What this package must NOT do
//
//   - Touch zerolog globals; every call builds an isolated logger.
//   - Log token values anywhere. Engine call sites log fingerprints;
//     this package has no say in the matter but the rule is stated
//     where loggers are born.
package logging
