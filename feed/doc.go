// Package feed reads and writes the textual command format, replays a
// command file against a book while timing every command, and
// generates random command streams for load runs.
//
// One command per line, fields separated by whitespace:
//
//	Market <id> <side> <qty>
//	AddLimit <id> <side> <qty> <price>
//	AddLimitMarket <id> <side> <qty> <price>
//	CancelLimit <id>
//	ModifyLimit <id> <qty> <price>
//	AddStop <id> <side> <qty> <stop>
//	CancelStop <id>
//	ModifyStop <id> <qty> <stop>
//	AddStopLimit <id> <side> <qty> <limit> <stop>
//	CancelStopLimit <id>
//	ModifyStopLimit <id> <qty> <limit> <stop>
//
// Side is 1 for buy and 0 for sell.
package feed
