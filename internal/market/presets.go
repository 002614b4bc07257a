package market

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/pcdogyu/tradesession/internal/session"
)

var presets = map[string]func() *session.TradeSession{
	"stock":           session.NewStockSession,
	"stock_index":     session.NewStockIndexSession,
	"bond":            session.NewBondSession,
	"commodity":       session.NewCommoditySession,
	"commodity_night": session.NewCommodityNightSession,
	"full":            session.NewFullSession,
}

// Preset builds a fresh session for a named schedule.
func Preset(name string) (*session.TradeSession, error) {
	mk, ok := presets[name]
	if !ok {
		return nil, errors.Errorf("unknown session preset %q", name)
	}
	return mk(), nil
}

// PresetNames lists the known presets, sorted.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PresetTable builds a session per product from a product -> preset name table.
func PresetTable(table map[string]string) (map[string]*session.TradeSession, error) {
	out := make(map[string]*session.TradeSession, len(table))
	for product, name := range table {
		ts, err := Preset(name)
		if err != nil {
			return nil, errors.Wrapf(err, "product %q", product)
		}
		out[product] = ts
	}
	return out, nil
}
