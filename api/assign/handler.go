// Package assign exposes the daily dispatcher over HTTP.
package assign

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lucasmnd/hkroster/core/dispatch"
	"github.com/lucasmnd/hkroster/core/dispatch/logging"
)

// Runner executes dispatcher operations.
type Runner interface {
	AssignDaily(ctx context.Context) (dispatch.Result, error)
	RepairTeams(ctx context.Context) (int, error)
}

// NewAssignHandler serves POST /api/assign/daily. A day without scheduled
// shifts is a precondition failure: the caller should generate a roster
// first.
func NewAssignHandler(runner Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		res, err := runner.AssignDaily(r.Context())
		if err != nil {
			if errors.Is(err, dispatch.ErrNoStaffScheduled) {
				http.Error(w, "no staff shifts found for today, generate roster first", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, res)
	})
}

type repairResponse struct {
	Updated int `json:"updated"`
}

// NewRepairHandler serves POST /api/assign/repair-teams, re-syncing room
// team labels with their assigned staff's team.
func NewRepairHandler(runner Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		updated, err := runner.RepairTeams(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, repairResponse{Updated: updated})
	})
}

// NewRunsHandler serves GET /api/assign/runs, the dispatcher run history.
// Requests must include "Bearer <token>" when token is non-empty.
func NewRunsHandler(store logging.RunStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := logging.RunQuery{StaffID: r.URL.Query().Get("staff_id")}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
