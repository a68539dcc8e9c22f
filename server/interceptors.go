package server

import (
	"context"
	"errors"
	"math"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/tailored-agentic-units/dotstore/observability"
)

// ErrRateLimited is reported with CodeResourceExhausted when the server's
// request budget is spent.
var ErrRateLimited = errors.New("rate limit exceeded")

// Server event types. EventRequest is emitted once per handled call.
const (
	EventListen  observability.EventType = "server.listen"
	EventRequest observability.EventType = "server.request"
)

// newLimiter allows requestsPerSecond with a burst of one second's worth.
// Zero or negative disables limiting.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := max(1, int(math.Ceil(requestsPerSecond)))
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func rateLimitInterceptor(limiter *rate.Limiter) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if !limiter.Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}

func observerInterceptor(observer observability.Observer) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			level := observability.LevelInfo
			code := "ok"
			if err != nil {
				level = observability.LevelWarning
				code = connect.CodeOf(err).String()
			}
			observability.Emit(ctx, observer, EventRequest, level, "server", map[string]any{
				"procedure": req.Spec().Procedure,
				"code":      code,
				"duration":  time.Since(start),
			})
			return res, err
		}
	}
}
