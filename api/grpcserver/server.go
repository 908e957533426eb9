package grpcserver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"matchbook/domain/command"
	"matchbook/domain/orderbook"
	"matchbook/service"
)

// Server adapts OrderService to gRPC.
type Server struct {
	svc *service.OrderService
	log zerolog.Logger
}

var _ OrderServiceServer = (*Server)(nil)

func NewServer(svc *service.OrderService, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Register creates a grpc.Server with the order service on it.
func (s *Server) Register(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	RegisterOrderServiceServer(gs, s)
	return gs
}

// -------------------- Commands --------------------

func (s *Server) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*ExecutionReply, error) {
	side, err := toSide(req.Side)
	if err != nil {
		return nil, err
	}

	cmd := command.Command{ID: req.ID, Side: side, Qty: req.Qty}
	switch req.Type {
	case TypeMarket:
		cmd.Op = command.OpMarket
	case TypeLimit:
		cmd.Op, cmd.Price = command.OpAddLimit, req.Price
	case TypeStop:
		cmd.Op, cmd.StopPrice = command.OpAddStop, req.StopPrice
	case TypeStopLimit:
		cmd.Op, cmd.Price, cmd.StopPrice = command.OpAddStopLimit, req.Price, req.StopPrice
	default:
		return nil, status.Errorf(codes.InvalidArgument, "invalid order type %q", req.Type)
	}
	return s.execute(ctx, cmd)
}

func (s *Server) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*ExecutionReply, error) {
	cmd := command.Command{ID: req.ID}
	switch req.Type {
	case "", TypeLimit:
		cmd.Op = command.OpCancelLimit
	case TypeStop:
		cmd.Op = command.OpCancelStop
	case TypeStopLimit:
		cmd.Op = command.OpCancelStopLimit
	default:
		return nil, status.Errorf(codes.InvalidArgument, "invalid order type %q", req.Type)
	}
	return s.execute(ctx, cmd)
}

func (s *Server) ModifyOrder(ctx context.Context, req *ModifyOrderRequest) (*ExecutionReply, error) {
	cmd := command.Command{ID: req.ID, Qty: req.Qty}
	switch req.Type {
	case "", TypeLimit:
		cmd.Op, cmd.Price = command.OpModifyLimit, req.Price
	case TypeStop:
		cmd.Op, cmd.StopPrice = command.OpModifyStop, req.StopPrice
	case TypeStopLimit:
		cmd.Op, cmd.Price, cmd.StopPrice = command.OpModifyStopLimit, req.Price, req.StopPrice
	default:
		return nil, status.Errorf(codes.InvalidArgument, "invalid order type %q", req.Type)
	}
	return s.execute(ctx, cmd)
}

func (s *Server) execute(ctx context.Context, cmd command.Command) (*ExecutionReply, error) {
	r, err := s.svc.Execute(ctx, cmd)
	if err != nil {
		s.log.Debug().Err(err).Str("op", cmd.Op.String()).Uint64("id", cmd.ID).Msg("command failed")
		return nil, toStatus(err)
	}
	s.log.Debug().Str("op", cmd.Op.String()).Uint64("id", cmd.ID).Uint64("seq", r.Seq).Int("trades", len(r.Result.Trades)).Msg("command executed")

	reply := &ExecutionReply{
		Seq:       r.Seq,
		Filled:    r.Result.Filled,
		Partials:  r.Result.Partials,
		Triggered: r.Result.Triggered,
		Dropped:   r.Result.Dropped,
	}
	for _, tr := range r.Result.Trades {
		reply.Fills = append(reply.Fills, Fill{Maker: tr.Maker, Price: tr.Price, Shares: tr.Shares})
	}
	return reply, nil
}

// -------------------- Queries --------------------

func (s *Server) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderReply, error) {
	o, ok := s.svc.Order(req.ID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "order %d not found", req.ID)
	}
	return &OrderReply{
		ID:         o.ID,
		Side:       o.Side.String(),
		Type:       fromKind(o.Kind),
		Shares:     o.Shares,
		LimitPrice: o.LimitPrice,
		StopPrice:  o.StopPrice,
	}, nil
}

func (s *Server) GetBook(ctx context.Context, req *GetBookRequest) (*BookReply, error) {
	if req.Depth < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "negative depth %d", req.Depth)
	}
	view := s.svc.Book(req.Depth)
	return &BookReply{
		Seq:  view.Seq,
		Bids: levels(view.Bids),
		Asks: levels(view.Asks),
	}, nil
}

// -------------------- Converters --------------------

func toSide(s string) (orderbook.Side, error) {
	switch s {
	case "buy":
		return orderbook.Buy, nil
	case "sell":
		return orderbook.Sell, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "invalid order side %q", s)
	}
}

func fromKind(k orderbook.Kind) string {
	switch k {
	case orderbook.KindStop:
		return TypeStop
	case orderbook.KindStopLimit:
		return TypeStopLimit
	default:
		return TypeLimit
	}
}

func levels(in []orderbook.LevelView) []Level {
	out := make([]Level, len(in))
	for i, l := range in {
		out[i] = Level{Price: l.Price, Volume: l.TotalVolume, Orders: l.OrderCount}
	}
	return out
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, orderbook.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, orderbook.ErrDuplicateOrder):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, orderbook.ErrInvalidSide),
		errors.Is(err, orderbook.ErrInvalidQuantity),
		errors.Is(err, orderbook.ErrInvalidPrice),
		errors.Is(err, command.ErrUnknownOp):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "execute: %v", err)
	}
}
