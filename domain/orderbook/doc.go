// Package orderbook implements the single-instrument limit order book and
// its price-time-priority matching. Each side is a red-black tree of price
// levels; each level is a FIFO deque of resting orders. An id index gives
// O(1) lookups for cancel and modify.
//
// The book is single-writer and deterministic: the same command sequence
// always yields the same trades and the same resting state.
package orderbook
