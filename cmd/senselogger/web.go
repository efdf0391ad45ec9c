package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/mtraver/sensehat/cache"
	"github.com/mtraver/sensehat/measurement"
)

type server struct {
	deviceID string
	sinks    []string
	cache    *cache.Cache[measurement.Reading]

	// now is swapped out in tests.
	now func() time.Time
}

func (s server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/latest", s.handleLatest).Methods("GET")
	return r
}

func (s server) latest() (measurement.Reading, bool) {
	return s.cache.Get(measurement.CacheKeyLatest(s.deviceID))
}

func (s server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "device: %s\n", s.deviceID)
	if len(s.sinks) == 0 {
		fmt.Fprintln(w, "sinks: none")
	} else {
		fmt.Fprintf(w, "sinks: %s\n", strings.Join(s.sinks, ", "))
	}

	m, ok := s.latest()
	if !ok {
		fmt.Fprintln(w, "latest: none")
		return
	}
	fmt.Fprintf(w, "latest: %s (%s)\n", m.Line(), timeAgoString(m.Timestamp, s.now()))
}

func (s server) handleLatest(w http.ResponseWriter, r *http.Request) {
	m, ok := s.latest()
	if !ok {
		http.Error(w, "no recent reading", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func round(x, unit float64) float64 {
	return float64(int64(x/unit+0.5)) * unit
}

func divmod(a, b int64) (int64, int64) {
	return a / b, a % b
}

// timeAgoString turns a time into a friendly string like "just now" or "10 min ago".
func timeAgoString(t, now time.Time) string {
	d := now.UTC().Sub(t)

	if d < time.Second*5 {
		return "just now"
	}

	if d < time.Second*60 {
		return fmt.Sprintf("%d s ago", int(round(d.Seconds(), 5)))
	}

	if d < time.Hour {
		return fmt.Sprintf("%d min ago", int(round(d.Minutes(), 1)))
	}

	if d < time.Hour*24 {
		h, m := divmod(int64(d.Minutes()), 60)
		if m == 0 {
			return fmt.Sprintf("%d hr ago", h)
		}

		return fmt.Sprintf("%d hr %d min ago", h, m)
	}

	return "> 24 hr ago"
}
