// Package core provides the business logic for CSV import operations.
//
// The package holds the whole import pipeline independent of any transport
// layer. It is used by the HTTP server, the gleeimport CLI and tests without
// modification.
//
// # Pipeline
//
// An import runs through a fixed sequence of stages. Every stage except the
// last is pure and synchronous:
//
//  1. [Tokenize] turns raw bytes into [RawRow] values tagged with line numbers.
//  2. [Bind] matches the header row against a [Schema] and fails fast with a
//     [SchemaMismatchError] when required columns are absent.
//  3. [FieldSpec.Coerce] converts each cell into a typed [Value], producing a
//     [Problem] for anything it had to repair or could not accept.
//  4. [RowValidator] assembles a [ParsedRecord] per row, collects every issue
//     and flags duplicate natural keys.
//  5. [NewPlan] partitions records into admitted and rejected sets.
//  6. [Committer] writes admitted records one at a time through a [Store],
//     applying the freshness rule for kinds that need it.
//
// # Import Kinds
//
// Kinds are registered at init time using [Register]. Each [TableDefinition]
// carries the schema, commit mode, sample template row and a decoder that
// turns coerced values into a typed [Entity]:
//
//	core.Register(core.TableDefinition{
//	    Info:   core.TableInfo{Key: "wardrobe", Label: "Wardrobe", KeyLabel: "Item"},
//	    Schema: wardrobeSchema,
//	    Mode:   core.ModeInsert,
//	    Decode: decodeWardrobeItem,
//	})
//
// # Sessions
//
// Interactive imports are tracked by [Session], a small state machine that
// moves upload -> validate -> confirm -> importing -> upload. Sessions are kept
// in a [SessionStore]; [MemorySessionStore] is the in-process implementation.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL006: Validation errors (formats, missing columns)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - IMP001-IMP005: Import session errors (blocked, busy, expired)
package core
