// Package record converts between loosely-typed record values and the
// native SQLite storage classes.
//
// A Record is a string-keyed map of dynamic values. On write:
//   - nil stays NULL
//   - booleans become INTEGER 1/0
//   - integers become INTEGER, finite floats become REAL
//   - NaN and infinities become INTEGER 0
//   - strings stay TEXT, times become RFC 3339 TEXT
//   - anything else is stored as its JSON text
//
// On read there is no reverse inference: 0/1 stay integers, JSON text stays
// text, and BLOB columns surface as the BlobPlaceholder string.
package record
