package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	platformredis "claimcheck/internal/platform/redis"
	"claimcheck/pkg/platform/httputil"
)

const healthTimeout = 2 * time.Second

// healthChecker pings the configured backends in parallel. Backends that
// are not configured are simply not checked: running on in-memory stores
// is a healthy state, not a degraded one.
type healthChecker struct {
	db    *sql.DB
	redis *platformredis.Client
}

func (h *healthChecker) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if h.db != nil {
		g.Go(func() error { return h.db.PingContext(gctx) })
	}
	if h.redis != nil {
		g.Go(func() error { return h.redis.Health(gctx) })
	}

	if err := g.Wait(); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
