// Package zerodha pulls the live holdings table from the Kite Connect API
// as an alternative to the CSV export.
package zerodha

import (
	"context"
	"errors"
	"fmt"
	"os"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/kdeep17/portfolio-ai/internal/holdings"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// Broker is the holdings source contract the command layer consumes.
type Broker interface {
	// GetHoldings returns the canonical holdings table with weights recomputed.
	GetHoldings(ctx context.Context) ([]types.Holding, float64, error)
}

type kiteBroker struct {
	kc *kiteconnect.Client
}

var _ Broker = (*kiteBroker)(nil)

// New builds a Kite-backed broker from KITE_API_KEY / KITE_ACCESS_TOKEN.
func New() (Broker, error) {
	apiKey := os.Getenv("KITE_API_KEY")
	accessToken := os.Getenv("KITE_ACCESS_TOKEN")
	if apiKey == "" || accessToken == "" {
		return nil, errors.New("KITE_API_KEY or KITE_ACCESS_TOKEN missing")
	}

	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &kiteBroker{kc: kc}, nil
}

func (b *kiteBroker) GetHoldings(ctx context.Context) ([]types.Holding, float64, error) {
	raw, err := b.kc.GetHoldings()
	if err != nil {
		return nil, 0, fmt.Errorf("kite holdings: %w", err)
	}

	rows := make([]types.Holding, 0, len(raw))
	for _, kh := range raw {
		qty := float64(kh.Quantity + kh.T1Quantity)
		if qty <= 0 {
			continue
		}
		h := types.Holding{
			Symbol:       kh.Tradingsymbol,
			Type:         holdings.ClassifyInstrument(kh.Tradingsymbol),
			Quantity:     qty,
			AvgPrice:     kh.AveragePrice,
			LastPrice:    kh.LastPrice,
			Invested:     kh.AveragePrice * qty,
			CurrentValue: kh.LastPrice * qty,
			PnL:          kh.PnL,
		}
		rows = append(rows, h)
	}

	total, err := holdings.RecomputeWeights(rows)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
