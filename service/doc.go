// Package service is the matching engine: it owns the order book, applies
// commands one at a time, writes the output protocol and fans accepted
// commands and trades out to the journal and the trade outbox.
//
// The engine is single-writer. Run reads commands and applies each to
// completion before reading the next; nothing else touches the book.
package service
