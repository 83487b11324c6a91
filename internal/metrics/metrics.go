package metrics

import (
	"context"

	"github.com/benbeisheim/checkers-backend/internal/checkers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/benbeisheim/checkers-backend/internal/metrics"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Recorder counts game activity. It uses the global OTel meter, so it is a
// no-op unless the process installs a meter provider.
type Recorder struct {
	games      metric.Int64Counter
	moves      metric.Int64Counter
	captures   metric.Int64Counter
	promotions metric.Int64Counter
	ignored    metric.Int64Counter
}

func NewRecorder() (*Recorder, error) {
	m := meter()
	r := &Recorder{}
	var err error

	if r.games, err = m.Int64Counter("checkers.games.created",
		metric.WithDescription("Games created")); err != nil {
		return nil, err
	}
	if r.moves, err = m.Int64Counter("checkers.moves",
		metric.WithDescription("Completed moves")); err != nil {
		return nil, err
	}
	if r.captures, err = m.Int64Counter("checkers.captures",
		metric.WithDescription("Pieces captured by jumps")); err != nil {
		return nil, err
	}
	if r.promotions, err = m.Int64Counter("checkers.promotions",
		metric.WithDescription("Men crowned king")); err != nil {
		return nil, err
	}
	if r.ignored, err = m.Int64Counter("checkers.clicks.ignored",
		metric.WithDescription("Clicks that did not change a game")); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) GameCreated(ctx context.Context, mode string) {
	r.games.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

func (r *Recorder) Ply(ctx context.Context, ply checkers.Ply) {
	attrs := metric.WithAttributes(attribute.String("player", ply.Player.String()))
	r.moves.Add(ctx, 1, attrs)
	if ply.Jump {
		r.captures.Add(ctx, 1, attrs)
	}
	if ply.Promoted {
		r.promotions.Add(ctx, 1, attrs)
	}
}

func (r *Recorder) Ignored(ctx context.Context) {
	r.ignored.Add(ctx, 1)
}
