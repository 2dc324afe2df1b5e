package handler

import (
	"net/http"

	"github.com/koopa0/artshop/internal/artshop"
)

func (h *Handler) listArts(w http.ResponseWriter, r *http.Request) {
	arts, err := h.arts.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, arts)
}

func (h *Handler) addArtsBulk(w http.ResponseWriter, r *http.Request) {
	var in []artshop.Art
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.arts.AddBulk(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) getArtByTitle(w http.ResponseWriter, r *http.Request) {
	title, err := requiredQuery(r, "title")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	art, err := h.arts.GetByTitle(r.Context(), title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, art)
}

func (h *Handler) getArt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	art, err := h.arts.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, art)
}

func (h *Handler) artsByArtist(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "artistName")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	arts, err := h.arts.ByArtistName(r.Context(), name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, arts)
}

func (h *Handler) artsByClassificationID(w http.ResponseWriter, r *http.Request) {
	id, err := queryInt(r, "classificationId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	arts, err := h.arts.ByClassificationID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, arts)
}

func (h *Handler) artsByClassificationName(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "classificationName")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	arts, err := h.arts.ByClassificationName(r.Context(), name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, arts)
}

func (h *Handler) patchArt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var patch artshop.ArtPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}

	art, err := h.arts.Patch(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, art)
}

func (h *Handler) updateArt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var in artshop.Art
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	art, err := h.arts.Update(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, art)
}

func (h *Handler) addArt(w http.ResponseWriter, r *http.Request) {
	var in artshop.Art
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	art, err := h.arts.Add(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, art)
}

func (h *Handler) deleteArt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.arts.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) artCacheInfo(w http.ResponseWriter, r *http.Request) {
	h.respondText(w, h.arts.CacheInfo())
}
