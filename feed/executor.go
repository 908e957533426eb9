package feed

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"matchbook/domain/orderbook"
)

// Executor replays a command file against a book and reports the
// latency of every command.
type Executor struct {
	book *orderbook.OrderBook
	log  zerolog.Logger
}

func NewExecutor(book *orderbook.OrderBook, log zerolog.Logger) *Executor {
	return &Executor{book: book, log: log}
}

// Summary totals one Run.
type Summary struct {
	Lines    int
	Applied  int
	Rejected int
	Skipped  int
	Executed int
	Trades   int
	Elapsed  time.Duration
}

// Run applies every line of r in order. For each parsed line it writes
// "directive,nanos,executed" to report, where executed is the running
// count of orders filled or partially filled. Lines that do not parse
// are logged and skipped; book rejections count as applied work.
func (e *Executor) Run(r io.Reader, report io.Writer) (Summary, error) {
	var sum Summary
	out := csv.NewWriter(report)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	start := time.Now()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sum.Lines++

		cmd, err := Parse(line)
		if err != nil {
			e.log.Warn().Err(err).Int("line", sum.Lines).Msg("skipping line")
			sum.Skipped++
			continue
		}

		t0 := time.Now()
		res, err := cmd.Apply(e.book)
		took := time.Since(t0)

		if err != nil {
			sum.Rejected++
		} else {
			sum.Applied++
		}
		sum.Executed += res.Executed()
		sum.Trades += len(res.Trades)

		rec := []string{cmd.Op.String(), strconv.FormatInt(took.Nanoseconds(), 10), strconv.Itoa(sum.Executed)}
		if err := out.Write(rec); err != nil {
			return sum, err
		}
	}
	sum.Elapsed = time.Since(start)

	out.Flush()
	if err := out.Error(); err != nil {
		return sum, err
	}
	return sum, sc.Err()
}
