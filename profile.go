/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/spyboard/games/codenames"
)

var namedProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// roomStats describes one room with live sockets, for /pprof/rooms.
type roomStats struct {
	Code      string          `json:"code"`
	Phase     codenames.Phase `json:"game_state"`
	Players   int             `json:"players"`
	Sockets   int             `json:"sockets"`
	StateSize string          `json:"state_size"`
}

func registerProfileHandlers(cfg *Config, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	for _, name := range namedProfiles {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	mux.HandlerFunc("GET", cfg.prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/trace", pprof.Trace)

	mux.GET(cfg.prefix+"/pprof/rooms", serveRoomStats(cfg, gm, errs))

	logf(cfg, "START: Registered profiling handlers under %s/pprof", cfg.prefix)
}

func serveRoomStats(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		body, err := json.Marshal(gm.stats(r.Context()))
		if err != nil {
			errs <- err

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		written, err := w.Write(body)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room stats (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// stats reports every room that currently has a hub, sorted by code.
func (gm *GameManager) stats(ctx context.Context) []roomStats {
	gm.mu.Lock()
	hubs := make([]*Hub, 0, len(gm.hubs))
	for _, h := range gm.hubs {
		hubs = append(hubs, h)
	}
	gm.mu.Unlock()

	stats := make([]roomStats, 0, len(hubs))

	for _, h := range hubs {
		room, err := gm.svc.Room(ctx, h.code)
		if err != nil {
			continue
		}

		state, err := json.Marshal(room)
		if err != nil {
			continue
		}

		h.mu.Lock()
		sockets := len(h.clients)
		h.mu.Unlock()

		stats = append(stats, roomStats{
			Code:      room.Code,
			Phase:     room.Phase,
			Players:   len(room.Players),
			Sockets:   sockets,
			StateSize: humanReadableSize(int64(len(state))),
		})
	}

	slices.SortFunc(stats, func(a, b roomStats) int { return cmp.Compare(a.Code, b.Code) })

	return stats
}
