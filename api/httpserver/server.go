// Package httpserver is the read-only HTTP surface: book queries,
// Prometheus metrics and the market-data WebSocket.
package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"matchbook/domain/orderbook"
	"matchbook/service"
)

type Server struct {
	svc     *service.OrderService
	ws      http.Handler
	metrics http.Handler
	scale   int32
	log     zerolog.Logger
}

// NewServer builds the query server. scale is the number of decimal
// places one price tick represents.
func NewServer(svc *service.OrderService, ws, metrics http.Handler, scale int32, log zerolog.Logger) *Server {
	return &Server{svc: svc, ws: ws, metrics: metrics, scale: scale, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// Health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.svc.CheckInvariants(); err != nil {
			jsonErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		json200(w, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// WebSocket
	if s.ws != nil {
		r.Method(http.MethodGet, "/v1/ws", s.ws)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		r.Get("/v1/book", s.getBook)
		r.Get("/v1/orders/{id}", s.getOrder)
		r.Get("/v1/trees/{tree}", s.getTree)
		r.Get("/v1/stats", s.getStats)
	})
	return r
}

// ── Handlers ─────────────────────────────────────────

type levelJSON struct {
	Price  string   `json:"price"`
	Volume int64    `json:"volume"`
	Orders int      `json:"orders"`
	IDs    []uint64 `json:"ids,omitempty"`
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	depth := 10
	if q := r.URL.Query().Get("depth"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			jsonErr(w, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = n
	}
	withIDs := r.URL.Query().Get("orders") == "true"

	view := s.svc.Book(depth)
	json200(w, map[string]any{
		"seq":  view.Seq,
		"bids": s.levels(view.Bids, withIDs),
		"asks": s.levels(view.Asks, withIDs),
	})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, ok := s.svc.Order(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "order not found")
		return
	}

	resp := map[string]any{
		"id":     o.ID,
		"side":   o.Side.String(),
		"kind":   o.Kind.String(),
		"shares": o.Shares,
	}
	if o.LimitPrice != orderbook.NoPrice {
		resp["limit_price"] = s.price(o.LimitPrice)
	}
	if o.StopPrice != orderbook.NoPrice {
		resp["stop_price"] = s.price(o.StopPrice)
	}
	json200(w, resp)
}

func (s *Server) getTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := orderbook.ParseTree(chi.URLParam(r, "tree"))
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown tree")
		return
	}
	view := s.svc.Tree(tree)
	prices := make([]string, len(view.Prices))
	for i, p := range view.Prices {
		prices[i] = s.price(p)
	}
	json200(w, map[string]any{
		"tree":   view.Tree.String(),
		"height": view.Height,
		"prices": prices,
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Stats()
	top := s.svc.Top()

	resp := map[string]any{
		"seq":        st.Seq,
		"orders":     st.Orders,
		"limit":      st.Limits,
		"stop":       st.Stops,
		"stop_limit": st.StopLimits,
		"levels":     st.Levels,
		"heights":    st.Heights,
		"bid_volume": top.BidVolume,
		"ask_volume": top.AskVolume,
	}
	if top.BidPrice != orderbook.NoPrice {
		resp["bid"] = s.price(top.BidPrice)
	}
	if top.AskPrice != orderbook.NoPrice {
		resp["ask"] = s.price(top.AskPrice)
	}
	json200(w, resp)
}

// ── Helpers ──────────────────────────────────────────

func (s *Server) price(ticks int64) string {
	return decimal.New(ticks, -s.scale).StringFixed(s.scale)
}

func (s *Server) levels(in []orderbook.LevelView, withIDs bool) []levelJSON {
	out := make([]levelJSON, len(in))
	for i, l := range in {
		out[i] = levelJSON{Price: s.price(l.Price), Volume: l.TotalVolume, Orders: l.OrderCount}
		if withIDs {
			out[i].IDs = l.OrderIDs
		}
	}
	return out
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func json200(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
