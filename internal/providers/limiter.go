package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited paces calls to a at most rps per second. Waiting honours ctx; a
// canceled wait returns without calling a.
func Limited(a Analyzer, rps float64) Analyzer {
	return &limited{next: a, lim: rate.NewLimiter(rate.Limit(rps), 1)}
}

type limited struct {
	next Analyzer
	lim  *rate.Limiter
}

func (l *limited) Name() string { return l.next.Name() }

func (l *limited) Analyze(ctx context.Context, req Request) (Response, error) {
	if err := l.lim.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return l.next.Analyze(ctx, req)
}
