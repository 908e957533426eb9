// Command replay generates random command files and replays them
// against an in-memory book, reporting the latency of every command.
//
//	replay generate -initial 10000 -orders 1000000 -out orders.txt
//	replay run -in orders.txt -report perf.csv
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"matchbook/domain/orderbook"
	"matchbook/feed"
	"matchbook/infra/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	log := logging.New(os.Stderr, os.Getenv("MATCHBOOK_LOG_LEVEL"), true)

	switch os.Args[1] {
	case "generate":
		fs := flag.NewFlagSet("generate", flag.ExitOnError)
		initial := fs.Int("initial", 10000, "seeding limit orders")
		orders := fs.Int("orders", 1000000, "random commands after seeding")
		centre := fs.Int64("centre", 500, "price around which the book is seeded")
		seed := fs.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
		out := fs.String("out", "orders.txt", "output file")
		modify := fs.Float64("modify", 0, "weight of ModifyLimit commands")
		stop := fs.Float64("stop", 0, "weight of AddStop commands")
		stopLimit := fs.Float64("stop-limit", 0, "weight of AddStopLimit commands")
		_ = fs.Parse(os.Args[2:])

		w := feed.DefaultWeights
		w.Modify, w.Stop, w.StopLimit = *modify, *stop, *stopLimit

		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("create output")
		}
		defer f.Close()

		g := feed.NewGenerator(orderbook.NewOrderBook(), rand.New(rand.NewPCG(*seed, *seed>>1)), w)
		if err := g.WriteInitial(f, *initial, *centre); err != nil {
			log.Fatal().Err(err).Msg("write initial orders")
		}
		if err := g.WriteRandom(f, *orders); err != nil {
			log.Fatal().Err(err).Msg("write orders")
		}
		log.Info().Str("out", *out).Int("initial", *initial).Int("orders", *orders).Uint64("seed", *seed).Msg("orders generated")

	case "run":
		fs := flag.NewFlagSet("run", flag.ExitOnError)
		in := fs.String("in", "orders.txt", "command file")
		report := fs.String("report", "performance.csv", "per-command latency report")
		_ = fs.Parse(os.Args[2:])

		src, err := os.Open(*in)
		if err != nil {
			log.Fatal().Err(err).Msg("open input")
		}
		defer src.Close()
		dst, err := os.Create(*report)
		if err != nil {
			log.Fatal().Err(err).Msg("create report")
		}
		defer dst.Close()

		book := orderbook.NewOrderBook()
		sum, err := feed.NewExecutor(book, log).Run(src, dst)
		if err != nil {
			log.Fatal().Err(err).Msg("replay failed")
		}
		if err := book.CheckInvariants(); err != nil {
			log.Fatal().Err(err).Msg("book inconsistent after replay")
		}
		log.Info().
			Int("lines", sum.Lines).
			Int("rejected", sum.Rejected).
			Int("skipped", sum.Skipped).
			Int("executed", sum.Executed).
			Int("trades", sum.Trades).
			Int("resting", book.Len()).
			Dur("elapsed", sum.Elapsed).
			Msg("replay complete")

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: replay generate|run [flags]")
	os.Exit(2)
}
