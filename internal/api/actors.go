package api

import (
	"net/http"

	"movie-service/internal/store"
)

// ListActors актёры и режиссёры в кратком виде.
func (h *Handler) ListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.store.ListActors(r.Context())
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve actors")
		return
	}
	h.respondJSON(w, r, http.StatusOK, actors)
}

func (h *Handler) GetActor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, r, http.StatusNotFound, store.ErrActorNotFound.Error())
		return
	}
	actor, err := h.store.GetActor(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve actor")
		return
	}
	h.respondJSON(w, r, http.StatusOK, actor)
}

// Health проверка доступности хранилища.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.respondError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
