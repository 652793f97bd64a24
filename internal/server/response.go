package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/rickgao/deribit-index/internal/model"
)

// priceResponse is the wire form of one observation.
type priceResponse struct {
	Ticker    string      `json:"ticker"`
	Price     json.Number `json:"price"`
	CreatedAt int64       `json:"created_at"`
}

func toResponse(o model.PriceObservation) priceResponse {
	return priceResponse{
		Ticker:    o.Ticker,
		Price:     json.Number(o.Price.String()),
		CreatedAt: o.CreatedAt,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) setResponse(w http.ResponseWriter, statusCode int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) setErrorResponse(w http.ResponseWriter, statusCode int, detail string) {
	s.setResponse(w, statusCode, errorResponse{Detail: detail})
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
