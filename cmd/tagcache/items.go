package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jonwraymond/tagcache/observe"
	"github.com/jonwraymond/tagcache/repository"
	"github.com/jonwraymond/tagcache/resilience"
)

// Item is the demo entity served under /items.
type Item struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i Item) EntityID() string { return i.ID }

// matchItem supports the "owner" filter.
func matchItem(row Item, q repository.Query) bool {
	owner, ok := q.Filter["owner"].(string)
	return !ok || row.Owner == owner
}

func (a *app) registerItems(mux *http.ServeMux) {
	mux.HandleFunc("GET /items", a.findItems)
	mux.HandleFunc("POST /items", a.createItem)
	mux.HandleFunc("GET /items/{id}", a.getItem)
	mux.HandleFunc("PUT /items/{id}", a.updateItem)
	mux.HandleFunc("DELETE /items/{id}", a.deleteItem)
	mux.HandleFunc("POST /items/{id}/invalidate", a.invalidateItem)
}

func (a *app) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := a.items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *app) findItems(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	items, err := a.items.Find(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *app) createItem(w http.ResponseWriter, r *http.Request) {
	var in Item
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item: " + err.Error()})
		return
	}
	in.UpdatedAt = time.Now().UTC()
	created, err := a.items.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *app) updateItem(w http.ResponseWriter, r *http.Request) {
	var in Item
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item: " + err.Error()})
		return
	}
	id := r.PathValue("id")
	if in.ID == "" {
		in.ID = id
	}
	in.UpdatedAt = time.Now().UTC()
	updated, err := a.items.Update(r.Context(), id, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *app) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := a.items.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) invalidateItem(w http.ResponseWriter, r *http.Request) {
	if err := a.items.Invalidate(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseQuery(r *http.Request) (repository.Query, error) {
	v := r.URL.Query()
	q := repository.Query{IDs: v["id"], Sort: v.Get("sort")}
	if owner := v.Get("owner"); owner != "" {
		q.Filter = map[string]any{"owner": owner}
	}
	for name, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		s := v.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, errors.New(name + " must be a non-negative integer")
		}
		*dst = n
	}
	return q, nil
}

// statusOf maps repository and guard errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, resilience.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), "item request failed",
			observe.Field{Key: "method", Value: r.Method},
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
