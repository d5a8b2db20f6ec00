package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/common/expfmt"

	"github.com/obsidianstack/csbounds/exporter/internal/compute"
	"github.com/obsidianstack/csbounds/exporter/internal/config"
	"github.com/obsidianstack/csbounds/exporter/internal/expo"
	"github.com/obsidianstack/csbounds/internal/round"
	"github.com/obsidianstack/csbounds/pkg/martingale"
)

// Handler is the HTTP handler for /api/v1/* and the metrics endpoint.
// It reads bound schedules from the compute engine.
type Handler struct {
	engine *compute.Engine
	mux    *http.ServeMux
}

// New creates a Handler wired to engine and registers all routes. The
// Prometheus exposition is served at metricsPath.
func New(engine *compute.Engine, metricsPath string) http.Handler {
	h := &Handler{engine: engine, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/bounds", h.listBounds)
	h.mux.HandleFunc("/api/v1/bounds/", h.getBound) // subtree, extracts {name}
	h.mux.HandleFunc("/api/v1/threshold", h.threshold)
	h.mux.HandleFunc("/api/v1/quantile", h.quantile)
	h.mux.HandleFunc(metricsPath, h.metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	mask := martingale.CheckConstants()
	resp := HealthResponse{
		Status:        "ok",
		ConstantsMask: mask,
		BoundCount:    h.engine.Len(),
	}
	if mask != 0 {
		resp.Status = "degraded"
	}
	jsonResp(w, http.StatusOK, resp)
}

// listBounds returns GET /api/v1/bounds.
func (h *Handler) listBounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, BuildBounds(h.engine))
}

// getBound returns GET /api/v1/bounds/{name}.
func (h *Handler) getBound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/bounds/")
	if name == "" {
		h.listBounds(w, r)
		return
	}

	t, ok := h.engine.Table(name)
	if !ok {
		jsonErr(w, http.StatusNotFound, "bound not found")
		return
	}
	jsonResp(w, http.StatusOK, toBoundResponse(t))
}

// threshold returns GET /api/v1/threshold. Without span or lo/hi the width
// is for unit steps; span and lo/hi are mutually exclusive.
func (h *Handler) threshold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	n, minCount, logEps, err := commonParams(q)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	twoSided, err := boolParam(q, "two_sided")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if twoSided {
		logEps = round.AddDown(logEps, martingale.EQ)
	}

	resp := ThresholdResponse{N: n, MinCount: minCount, LogEps: Float(logEps)}

	hasSpan := q.Has("span")
	hasRange := q.Has("lo") || q.Has("hi")
	switch {
	case hasSpan && hasRange:
		jsonErr(w, http.StatusBadRequest, "span and lo/hi are mutually exclusive")
		return

	case hasSpan:
		span, err := floatParam(q, "span")
		if err == nil && span < 0 {
			err = errors.New("span must be >= 0")
		}
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Scale = "span"
		resp.Width = Float(martingale.ThresholdSpan(n, minCount, span, logEps))

	case hasRange:
		lo, err := floatParam(q, "lo")
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		hi, err := floatParam(q, "hi")
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if lo > hi {
			jsonErr(w, http.StatusBadRequest, "lo must be <= hi")
			return
		}
		resp.Scale = "range"
		resp.Width = Float(martingale.ThresholdRange(n, minCount, lo, hi, logEps))

	default:
		resp.Scale = "unit"
		resp.Width = Float(martingale.Threshold(n, minCount, logEps))
	}
	jsonResp(w, http.StatusOK, resp)
}

// quantile returns GET /api/v1/quantile.
func (h *Handler) quantile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	n, minCount, logEps, err := commonParams(q)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	quant, err := floatParam(q, "q")
	if err == nil && (quant < 0 || quant > 1) {
		err = errors.New("q must be in [0, 1]")
	}
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	lo, hi := martingale.QuantileRanks(quant, n, minCount, logEps)
	jsonResp(w, http.StatusOK, QuantileResponse{
		Quantile: Float(quant),
		N:        n,
		MinCount: minCount,
		LogEps:   Float(logEps),
		Slop:     Float(martingale.QuantileSlop(quant, n, minCount, logEps)),
		SlopHi:   Float(martingale.QuantileSlopHi(quant, n, minCount, logEps)),
		SlopLo:   Float(martingale.QuantileSlopLo(quant, n, minCount, logEps)),
		RankLo:   Float(lo),
		RankHi:   Float(hi),
	})
}

// metrics serves the Prometheus exposition in the negotiated format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families := expo.Families(h.engine.Tables(), martingale.CheckConstants())
	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))
	if err := expo.Write(w, format, families); err != nil {
		slog.Warn("api: write metrics", "err", err)
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// commonParams reads n, min_count and the false positive rate shared by the
// ad hoc endpoints. Exactly one of eps and log_eps must be given.
func commonParams(q url.Values) (n, minCount uint64, logEps float64, err error) {
	if !q.Has("n") {
		return 0, 0, 0, errors.New("n is required")
	}
	if n, err = strconv.ParseUint(q.Get("n"), 10, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("n: %w", err)
	}

	minCount = martingale.MinCount
	if q.Has("min_count") {
		if minCount, err = strconv.ParseUint(q.Get("min_count"), 10, 64); err != nil {
			return 0, 0, 0, fmt.Errorf("min_count: %w", err)
		}
	}

	switch {
	case q.Has("eps") && q.Has("log_eps"):
		return 0, 0, 0, errors.New("eps and log_eps are mutually exclusive")
	case q.Has("eps"):
		eps, err := floatParam(q, "eps")
		if err != nil {
			return 0, 0, 0, err
		}
		if !(eps > 0 && eps <= 1) {
			return 0, 0, 0, errors.New("eps must be in (0, 1]")
		}
		logEps = martingale.LogEps(eps)
	case q.Has("log_eps"):
		if logEps, err = floatParam(q, "log_eps"); err != nil {
			return 0, 0, 0, err
		}
		if logEps > 0 {
			return 0, 0, 0, errors.New("log_eps must be <= 0")
		}
	default:
		return 0, 0, 0, errors.New("one of eps or log_eps is required")
	}
	return n, minCount, logEps, nil
}

// floatParam parses a finite float query parameter.
func floatParam(q url.Values, key string) (float64, error) {
	if !q.Has(key) {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(q.Get(key), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%s must be finite", key)
	}
	return v, nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(q url.Values, key string) (bool, error) {
	if !q.Has(key) {
		return false, nil
	}
	v, err := strconv.ParseBool(q.Get(key))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// BuildBounds evaluates every configured bound and returns the payload of
// GET /api/v1/bounds. The WebSocket hub reuses it for its broadcasts.
func BuildBounds(engine *compute.Engine) []BoundResponse {
	tables := engine.Tables()
	out := make([]BoundResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, toBoundResponse(t))
	}
	return out
}

// toBoundResponse maps a compute.Table to its JSON representation.
func toBoundResponse(t compute.Table) BoundResponse {
	b := t.Bound
	resp := BoundResponse{
		Name:     b.Name,
		Kind:     b.Kind,
		MinCount: b.MinCount,
		LogEps:   Float(t.LogEps),
		TwoSided: b.TwoSided,
		Rows:     make([]RowResponse, 0, len(t.Rows)),
	}
	switch {
	case b.Kind == config.KindSpan:
		resp.Span = floatPtr(b.Span)
	case b.Kind == config.KindRange:
		resp.Lo, resp.Hi = floatPtr(b.Lo), floatPtr(b.Hi)
	case b.IsQuantile():
		resp.Quantile = floatPtr(b.Quantile)
	}

	for _, row := range t.Rows {
		rr := RowResponse{N: row.N, Width: Float(row.Width)}
		if b.IsQuantile() {
			rr.RankLo, rr.RankHi = floatPtr(row.RankLo), floatPtr(row.RankHi)
		}
		resp.Rows = append(resp.Rows, rr)
	}
	return resp
}

func floatPtr(v float64) *Float {
	f := Float(v)
	return &f
}
