package api

import (
	"math"
	"strconv"
)

// Float is a float64 that marshals infinities and NaN as JSON strings.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"` // "ok" | "degraded"
	ConstantsMask int    `json:"constants_mask"`
	BoundCount    int    `json:"bound_count"`
}

// BoundResponse is one bound in GET /api/v1/bounds or
// GET /api/v1/bounds/{name}.
type BoundResponse struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`
	MinCount uint64        `json:"min_count"`
	LogEps   Float         `json:"log_eps"`
	TwoSided bool          `json:"two_sided,omitempty"`
	Span     *Float        `json:"span,omitempty"`
	Lo       *Float        `json:"lo,omitempty"`
	Hi       *Float        `json:"hi,omitempty"`
	Quantile *Float        `json:"quantile,omitempty"`
	Rows     []RowResponse `json:"rows"`
}

// RowResponse is one checkpoint of a bound schedule.
type RowResponse struct {
	N      uint64 `json:"n"`
	Width  Float  `json:"width"`
	RankLo *Float `json:"rank_lo,omitempty"`
	RankHi *Float `json:"rank_hi,omitempty"`
}

// ThresholdResponse is the payload for GET /api/v1/threshold.
type ThresholdResponse struct {
	N        uint64 `json:"n"`
	MinCount uint64 `json:"min_count"`
	LogEps   Float  `json:"log_eps"`
	Scale    string `json:"scale"` // "unit" | "span" | "range"
	Width    Float  `json:"width"`
}

// QuantileResponse is the payload for GET /api/v1/quantile.
type QuantileResponse struct {
	Quantile Float  `json:"quantile"`
	N        uint64 `json:"n"`
	MinCount uint64 `json:"min_count"`
	LogEps   Float  `json:"log_eps"`
	Slop     Float  `json:"slop"`
	SlopHi   Float  `json:"slop_hi"`
	SlopLo   Float  `json:"slop_lo"`
	RankLo   Float  `json:"rank_lo"`
	RankHi   Float  `json:"rank_hi"`
}

type errorResponse struct {
	Error string `json:"error"`
}
