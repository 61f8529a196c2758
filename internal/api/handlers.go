package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/star/sattracker/internal/doppler"
	"github.com/star/sattracker/internal/propagation"
	"github.com/star/sattracker/internal/transform"
	"github.com/star/sattracker/internal/tracker"
)

// maxPoints bounds the pass table size a single request may ask for.
const maxPoints = 1000

type targetResponse struct {
	Target    propagation.Target   `json:"target"`
	Observer  propagation.Observer `json:"observer"`
	CarrierHz float64              `json:"carrier_hz"`
}

type trackResponse struct {
	Target     propagation.Target           `json:"target"`
	State      propagation.ObservationState `json:"state"`
	CarrierHz  float64                      `json:"carrier_hz"`
	DopplerHz  float64                      `json:"doppler_hz"`
	ObservedHz float64                      `json:"observed_hz"`
	ECEF       transform.ECEFPoint          `json:"ecef_m"`
}

type passResponse struct {
	Target          propagation.Target `json:"target"`
	Points          int                `json:"points"`
	DurationSeconds float64            `json:"duration_seconds"`
	tracker.PassTable
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := targetResponse{
		Target:    s.trk.Target(),
		Observer:  s.trk.Observer(),
		CarrierHz: s.trk.CarrierHz(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleTrack serves the state at ?at=<RFC3339> (default now). An optional
// ?carrier_hz overrides the configured carrier for the Doppler figures.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var at time.Time
	if v := q.Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be an RFC3339 timestamp")
			return
		}
		at = t
	}

	s.mu.Lock()
	carrier := s.trk.CarrierHz()
	s.mu.Unlock()
	if v := q.Get("carrier_hz"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil || c <= 0 {
			writeError(w, http.StatusBadRequest, "carrier_hz must be a positive number")
			return
		}
		carrier = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if at.IsZero() {
		err = s.trk.SetEpochNow()
	} else {
		err = s.trk.SetEpoch(at)
	}
	if err != nil {
		s.logger.Warn("track failed", "component", "api", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	state, err := s.trk.State()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	shift, err := s.trk.DopplerFor(carrier)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	ecef, err := s.trk.ECEF()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, trackResponse{
		Target:     s.trk.Target(),
		State:      state,
		CarrierHz:  carrier,
		DopplerHz:  shift,
		ObservedHz: doppler.ObservedFrequency(state.RangeRateMps, carrier),
		ECEF:       ecef,
	})
}

// handleNextPass serves the next pass table, sampled at ?points=<n>.
func (s *Server) handleNextPass(w http.ResponseWriter, r *http.Request) {
	points := s.defaultPoints
	if v := r.URL.Query().Get("points"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPoints {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "points must be an integer between 1 and 1000",
				"max_points": maxPoints,
			})
			return
		}
		points = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.trk.NextPassTable(points)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, passResponse{
		Target:          s.trk.Target(),
		Points:          table.Len(),
		DurationSeconds: table.Window.Duration().Seconds(),
		PassTable:       table,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidPointCount):
		return http.StatusBadRequest
	case errors.Is(err, propagation.ErrNoPass):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrDegenerateWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, propagation.ErrPropagation), errors.Is(err, propagation.ErrInvalidElements):
		return http.StatusUnprocessableEntity
	case errors.Is(err, tracker.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
