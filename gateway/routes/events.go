package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"crowdsale/storage/eventlog"
)

type eventPage struct {
	Events []eventView `json:"events"`
	Next   uint64      `json:"next,omitempty"`
}

func queryUint(r *http.Request, key string) (uint64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an unsigned integer", errDecode, key)
	}
	return value, nil
}

// listEvents pages through the persisted log. Without a configured log it
// serves the node's in-memory tail.
func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.recentEvents(w, r)
		return
	}
	after, err := queryUint(r, "after")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := queryUint(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if limit > 1000 {
		limit = 1000
	}
	entries, err := h.events.List(r.Context(), after, int(limit), r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page := eventPage{Events: make([]eventView, 0, len(entries))}
	for _, entry := range entries {
		view, err := entryView(entry)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		page.Events = append(page.Events, view)
		page.Next = entry.Seq
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *handler) recentEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := queryUint(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if limit == 0 || limit > uint64(eventlog.DefaultListLimit) {
		limit = uint64(eventlog.DefaultListLimit)
	}
	evts := h.backend.RecentEvents(r.URL.Query().Get("type"), int(limit))
	page := eventPage{Events: make([]eventView, 0, len(evts))}
	for _, evt := range evts {
		page.Events = append(page.Events, newEventView(evt))
	}
	writeJSON(w, http.StatusOK, page)
}

func entryView(entry eventlog.Entry) (eventView, error) {
	evt, err := entry.Event()
	if err != nil {
		return eventView{}, err
	}
	view := newEventView(evt)
	view.Seq = entry.Seq
	view.ID = entry.ID.String()
	view.RecordedAt = entry.RecordedAt.Unix()
	return view, nil
}
