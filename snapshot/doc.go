// Package snapshot persists the resting orders of the book with the
// journal sequence they reflect. Loading a snapshot and replaying the
// entry WAL after that sequence rebuilds the book.
//
// Orders are stored limits first (each side best level first, arrival
// order inside a level) and stops after them, so re-submitting them in
// file order reproduces every queue.
package snapshot
