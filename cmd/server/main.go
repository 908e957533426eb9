package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"matchbook/api/grpcserver"
	"matchbook/api/httpserver"
	"matchbook/api/ws"
	"matchbook/config"
	"matchbook/domain/orderbook"
	"matchbook/infra/kafka"
	"matchbook/infra/logging"
	"matchbook/infra/metrics"
	"matchbook/infra/sequence"
	entrywal "matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
	"matchbook/jobs/broadcaster"
	"matchbook/service"
	"matchbook/snapshot"
)

const marketDataInterval = 50 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	log := logging.NewLogger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	reg := metrics.Init(log)

	// ---------------- Domain ----------------

	book := orderbook.NewOrderBook(
		orderbook.WithCapacity(cfg.Book.OrderCapacity, cfg.Book.LevelCapacity),
		orderbook.WithSampleMinimum(orderbook.KindLimit, cfg.Book.LimitSampleMin),
		orderbook.WithSampleMinimum(orderbook.KindStop, cfg.Book.StopSampleMin),
		orderbook.WithSampleMinimum(orderbook.KindStopLimit, cfg.Book.StopLimitSampleMin),
	)
	seqGen := sequence.New(0)

	// ---------------- Snapshot + WAL replay ----------------

	snapWriter := &snapshot.Writer{Dir: cfg.Snapshot.Dir}
	snapSeq, err := snapshot.Load(snapWriter.Path(), book)
	if err != nil {
		log.Fatal().Err(err).Str("path", snapWriter.Path()).Msg("snapshot load failed")
	}
	if _, err := service.ReplayFromWAL(cfg.WAL.EntryDir, book, seqGen, snapSeq, logging.Component(log, "replay")); err != nil {
		log.Fatal().Err(err).Msg("WAL replay failed")
	}
	if err := book.CheckInvariants(); err != nil {
		log.Fatal().Err(err).Msg("recovered book is inconsistent")
	}

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             cfg.WAL.EntryDir,
		SegmentSize:     cfg.WAL.SegmentSize,
		SegmentDuration: cfg.WAL.SegmentDuration,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("entry WAL init failed")
	}
	defer entryWAL.Close()

	// ---------------- Exit WAL + broadcaster ----------------

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var wg sync.WaitGroup

	var exitWAL *exitwal.ExitWAL
	if cfg.Kafka.Enabled {
		exitWAL, err = exitwal.Open(cfg.WAL.ExitDir)
		if err != nil {
			log.Fatal().Err(err).Msg("exit WAL init failed")
		}
		defer exitWAL.Close()

		pub, err := newPublisher(cfg)
		if err != nil {
			log.Fatal().Err(err).Str("client", cfg.Kafka.Client).Msg("kafka publisher init failed")
		}
		bc := broadcaster.New(exitWAL, pub, broadcaster.Config{
			Interval:   cfg.Kafka.Interval,
			MaxRetries: cfg.Kafka.MaxRetries,
		}, logging.Component(log, "broadcaster"))
		defer bc.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			bc.Run(ctx)
		}()
	}

	// ---------------- Service ----------------

	svc := service.NewOrderService(book, seqGen, entryWAL, exitWAL, logging.Component(log, "service"))

	hub := ws.NewHub(logging.Component(log, "ws"))
	defer hub.Close()

	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.RunMarketData(ctx, hub, marketDataInterval)
	}()
	go func() {
		defer wg.Done()
		svc.RunSnapshotJob(ctx, snapWriter, cfg.Snapshot.Interval)
	}()

	// ---------------- gRPC ----------------

	var grpcSrv *grpc.Server
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.GRPC.Addr).Msg("listen failed")
		}
		grpcSrv = grpcserver.NewServer(svc, logging.Component(log, "grpc")).Register()
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error().Err(err).Msg("gRPC server exited")
				stop()
			}
		}()
	}

	// ---------------- HTTP ----------------

	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		httpSrv = &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      httpserver.NewServer(svc, hub, metrics.Handler(reg), cfg.Book.TickScale, logging.Component(log, "http")).Router(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server exited")
				stop()
			}
		}()
	}

	log.Info().
		Str("grpc", cfg.GRPC.Addr).
		Str("http", cfg.HTTP.Addr).
		Uint64("seq", seqGen.Current()).
		Int("orders", book.Len()).
		Msg("matchbook engine running")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if httpSrv != nil {
		_ = httpSrv.Shutdown(shutdownCtx)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	wg.Wait()

	if _, err := svc.SnapshotNow(snapWriter); err != nil {
		log.Error().Err(err).Msg("final snapshot failed")
	}
	if err := entryWAL.Sync(); err != nil {
		log.Error().Err(err).Msg("entry WAL sync failed")
	}
}

func newPublisher(cfg config.Config) (broadcaster.Publisher, error) {
	if cfg.Kafka.Client == config.ClientKafkaGo {
		return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil
	}
	return broadcaster.NewSaramaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

