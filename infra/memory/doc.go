// Package memory provides the slab storage used by the order book.
// Orders and price levels live in typed arenas and refer to each
// other through stable integer handles instead of pointers, so tree
// rotations and queue splices only ever rewrite handle fields.
//
// Arena is not safe for concurrent use; the single book writer owns
// every arena it creates. Ring is the one concurrent type here.
package memory
