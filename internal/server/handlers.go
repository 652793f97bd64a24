package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rickgao/deribit-index/internal/model"
	"github.com/rickgao/deribit-index/internal/poller"
	"github.com/rickgao/deribit-index/internal/store"
	"github.com/rickgao/deribit-index/internal/version"
)

const (
	detailAllNotFound    = "Prices not found for the specified ticker"
	detailLatestNotFound = "Latest price not found for the specified ticker"
	detailDateNotFound   = "Prices not found for the specified ticker and date range"
	detailBadDate        = "Invalid start date format. Use YYYY-MM-DD."
	detailInternal       = "internal server error"

	dateLayout = "2006-01-02"
)

func tickerParam(r *http.Request) string {
	return model.NormalizeTicker(mux.Vars(r)["ticker"])
}

func (s *Server) handleAllPrices(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)

	rows, err := s.store.ListByTicker(r.Context(), ticker)
	if err != nil {
		s.queryFailed(w, r, err, detailAllNotFound)
		return
	}

	resp := make([]priceResponse, len(rows))
	for i, row := range rows {
		resp[i] = toResponse(row)
	}
	s.setResponse(w, http.StatusOK, resp)
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.Latest(r.Context(), tickerParam(r))
	if err != nil {
		s.queryFailed(w, r, err, detailLatestNotFound)
		return
	}
	s.setResponse(w, http.StatusOK, toResponse(row))
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	ticker := tickerParam(r)
	date := r.URL.Query().Get("date")

	if date == "" {
		row, err := s.store.Latest(r.Context(), ticker)
		if err != nil {
			s.queryFailed(w, r, err, detailDateNotFound)
			return
		}
		s.setResponse(w, http.StatusOK, toResponse(row))
		return
	}

	from, to, err := dayBounds(date, s.cfg.Location)
	if err != nil {
		s.setErrorResponse(w, http.StatusBadRequest, detailBadDate)
		return
	}

	row, err := s.store.FirstBetween(r.Context(), ticker, from, to)
	if err != nil {
		s.queryFailed(w, r, err, detailDateNotFound)
		return
	}
	s.setResponse(w, http.StatusOK, toResponse(row))
}

// dayBounds returns the first and last Unix second of date in loc.
func dayBounds(date string, loc *time.Location) (int64, int64, error) {
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return 0, 0, err
	}
	return day.Unix(), day.AddDate(0, 0, 1).Unix() - 1, nil
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		s.setErrorResponse(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("query failed",
		"path", r.URL.Path,
		"error", err,
	)
	s.setErrorResponse(w, http.StatusInternalServerError, detailInternal)
}

type healthResponse struct {
	Status   string             `json:"status"`
	Database string             `json:"database"`
	LastTick *poller.TickStatus `json:"last_tick,omitempty"`
	Build    version.Info       `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Build:    version.Get(),
	}
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			s.logger.Warn("health check ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}
	} else {
		resp.Database = "unknown"
	}

	if s.ticks != nil {
		resp.LastTick = s.ticks.LastTick()
	}

	s.setResponse(w, code, resp)
}

// instrument records request metrics keyed by route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.ObserveRequest(route, rec.status)
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
