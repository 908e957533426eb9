// Package orderbook implements the in-memory matching engine for
// market, limit, stop and stop-limit orders. It keeps four AVL price
// indexes (buys, sells, stop buys, stop sells) whose nodes are FIFO
// price levels, and fires triggered stops in a cascade after every
// operation until the book is quiet again.
//
// The book is a single-writer system. Orders and levels live in arenas
// and link to each other by handle; callers only receive copies.
package orderbook
