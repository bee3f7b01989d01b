package brokerobs

import (
	"context"

	"github.com/kdeep17/portfolio-ai/internal/broker/zerodha"
	"github.com/kdeep17/portfolio-ai/internal/logger"
	"github.com/kdeep17/portfolio-ai/internal/trace"
	"github.com/kdeep17/portfolio-ai/internal/types"
)

// observableBroker wraps a Broker with logging and tracing.
type observableBroker struct {
	broker zerodha.Broker
}

var _ zerodha.Broker = (*observableBroker)(nil)

func Wrap(broker zerodha.Broker) zerodha.Broker {
	return &observableBroker{
		broker: broker,
	}
}

func (ob *observableBroker) GetHoldings(ctx context.Context) ([]types.Holding, float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetHoldings")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching holdings from broker")

	rows, total, err := ob.broker.GetHoldings(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err)
		return nil, 0, err
	}

	logger.InfoSkip(ctx, 1, "Holdings fetched",
		"count", len(rows),
		"total_value", total,
	)
	return rows, total, nil
}
