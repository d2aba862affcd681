// Package roster exposes the forecasting and roster operations over HTTP.
// The handlers are transport-thin: date parsing and status mapping only, all
// scheduling logic stays in core.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lucasmnd/hkroster/core/forecast"
	"github.com/lucasmnd/hkroster/core/model"
	"github.com/lucasmnd/hkroster/core/roster"
	"github.com/lucasmnd/hkroster/core/store"
)

// Forecaster produces weekly demand/capacity reports.
type Forecaster interface {
	Forecast(ctx context.Context, start time.Time) (forecast.Week, error)
}

// Generator regenerates the weekly roster.
type Generator interface {
	Generate(ctx context.Context, start time.Time) (roster.Result, error)
}

// startDate extracts and parses the start_date query or form value.
func startDate(r *http.Request) (time.Time, error) {
	s := r.URL.Query().Get("start_date")
	if s == "" {
		return time.Time{}, roster.ErrMissingDate
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, roster.ErrMissingDate
	}
	return t, nil
}

// NewForecastHandler serves GET /api/roster/forecast?start_date=YYYY-MM-DD.
func NewForecastHandler(f Forecaster) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		start, err := startDate(r)
		if err != nil {
			http.Error(w, "start_date required", http.StatusBadRequest)
			return
		}
		week, err := f.Forecast(r.Context(), start)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, week)
	})
}

// NewWeekHandler serves GET /api/roster/week?start_date=...&staff_id=...,
// listing raw shifts for the seven day window.
func NewWeekHandler(shifts store.ShiftStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		start, err := startDate(r)
		if err != nil {
			http.Error(w, "start_date required", http.StatusBadRequest)
			return
		}
		list, err := roster.WeekShifts(r.Context(), shifts, start, r.URL.Query().Get("staff_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)
	})
}

type generateRequest struct {
	StartDate string `json:"start_date"`
}

type generateResponse struct {
	Message string        `json:"message"`
	Shifts  []model.Shift `json:"shifts"`
	Alerts  []string      `json:"alerts"`
}

// NewGenerateHandler serves POST /api/roster/generate with a JSON body
// carrying start_date. A missing or unparseable date is rejected before the
// generator runs.
func NewGenerateHandler(g Generator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartDate == "" {
			http.Error(w, "start_date required", http.StatusBadRequest)
			return
		}
		start, err := model.ParseDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date required", http.StatusBadRequest)
			return
		}
		res, err := g.Generate(r.Context(), start)
		if err != nil {
			if errors.Is(err, roster.ErrMissingDate) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, generateResponse{Message: "roster generated", Shifts: res.Shifts, Alerts: res.Alerts})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
