package expo

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/obsidianstack/csbounds/exporter/internal/compute"
)

// Metric family names.
const (
	NameWidth       = "martingale_cs_width"
	NameRankLower   = "martingale_cs_rank_lower"
	NameRankUpper   = "martingale_cs_rank_upper"
	NameMinCount    = "martingale_cs_min_count"
	NameLogEps      = "martingale_cs_log_eps"
	NameConstantsOK = "martingale_cs_constants_ok"
)

var help = map[string]string{
	NameWidth:       "Confidence sequence width (threshold or rank slop) at n observations.",
	NameRankLower:   "Lowest sorted-sample rank the quantile can sit at after n observations.",
	NameRankUpper:   "Highest sorted-sample rank the quantile can sit at after n observations.",
	NameMinCount:    "Sample count at which the bound is first checked.",
	NameLogEps:      "Natural log of the false positive rate passed to the engine.",
	NameConstantsOK: "1 when the engine constants match their reference bit patterns.",
}

// Families converts tables into metric families sorted by name.
// constantsMask is the result of martingale.CheckConstants.
func Families(tables []compute.Table, constantsMask int) []*dto.MetricFamily {
	byName := map[string]*dto.MetricFamily{}
	add := func(name string, value float64, labels ...string) {
		mf, ok := byName[name]
		if !ok {
			mf = &dto.MetricFamily{
				Name: proto.String(name),
				Help: proto.String(help[name]),
				Type: dto.MetricType_GAUGE.Enum(),
			}
			byName[name] = mf
		}
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: labelPairs(labels...),
			Gauge: &dto.Gauge{Value: proto.Float64(value)},
		})
	}

	ok := 0.0
	if constantsMask == 0 {
		ok = 1
	}
	add(NameConstantsOK, ok)

	for _, tbl := range tables {
		name := tbl.Bound.Name
		add(NameMinCount, float64(tbl.Bound.MinCount), "bound", name)
		add(NameLogEps, tbl.LogEps, "bound", name)

		for _, row := range tbl.Rows {
			n := strconv.FormatUint(row.N, 10)
			add(NameWidth, row.Width, "bound", name, "kind", tbl.Bound.Kind, "n", n)
			if tbl.Bound.IsQuantile() {
				add(NameRankLower, row.RankLo, "bound", name, "n", n)
				add(NameRankUpper, row.RankHi, "bound", name, "n", n)
			}
		}
	}

	out := make([]*dto.MetricFamily, 0, len(byName))
	for _, mf := range byName {
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// labelPairs turns alternating name/value strings into label pairs.
func labelPairs(kv ...string) []*dto.LabelPair {
	if len(kv) == 0 {
		return nil
	}
	pairs := make([]*dto.LabelPair, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, &dto.LabelPair{
			Name:  proto.String(kv[i]),
			Value: proto.String(kv[i+1]),
		})
	}
	return pairs
}

// Write encodes families to w in the given exposition format.
func Write(w io.Writer, format expfmt.Format, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("expo: encode %s: %w", mf.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("expo: close encoder: %w", err)
		}
	}
	return nil
}
