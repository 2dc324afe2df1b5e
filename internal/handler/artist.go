package handler

import (
	"net/http"

	"github.com/koopa0/artshop/internal/artshop"
)

func (h *Handler) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artists.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artists)
}

func (h *Handler) getArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	artist, err := h.artists.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artist)
}

func (h *Handler) artistsByArt(w http.ResponseWriter, r *http.Request) {
	title, err := requiredQuery(r, "artTitle")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	artists, err := h.artists.ByArtTitle(r.Context(), title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artists)
}

// searchArtists 兩個參數都可省略；都省略時返回空列表
func (h *Handler) searchArtists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artists, err := h.artists.Search(r.Context(), q.Get("firstName"), q.Get("lastName"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artists)
}

func (h *Handler) createArtistsBulk(w http.ResponseWriter, r *http.Request) {
	var in []artshop.Artist
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.artists.CreateBulk(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var in artshop.Artist
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	artist, err := h.artists.Update(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artist)
}

func (h *Handler) createArtist(w http.ResponseWriter, r *http.Request) {
	var in artshop.Artist
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	artist, err := h.artists.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artist)
}

func (h *Handler) deleteArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.artists.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) patchArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var patch artshop.ArtistPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}

	artist, err := h.artists.Patch(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, artist)
}

func (h *Handler) artistCacheInfo(w http.ResponseWriter, r *http.Request) {
	h.respondText(w, h.artists.CacheInfo())
}
