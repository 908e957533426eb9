// Package entry is the command journal written in front of the book.
// Records are CRC-framed and appended to numbered segment files; replay
// walks the segments in order and tolerates a torn final record.
package entry
