package handler

import (
	"net/http"

	"github.com/koopa0/artshop/internal/artshop"
)

func (h *Handler) listClassifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.classifications.List(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.classifications.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *Handler) classificationsByName(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "name")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.classifications.ByName(r.Context(), name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) classificationsByArt(w http.ResponseWriter, r *http.Request) {
	title, err := requiredQuery(r, "artTitle")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	list, err := h.classifications.ByArtTitle(r.Context(), title)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) createClassificationsBulk(w http.ResponseWriter, r *http.Request) {
	var in []artshop.Classification
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.classifications.CreateBulk(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) createClassification(w http.ResponseWriter, r *http.Request) {
	var in artshop.Classification
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.classifications.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *Handler) patchClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var patch artshop.ClassificationPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.classifications.Patch(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.classifications.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateClassification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var in artshop.Classification
	if err := decodeJSON(r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}

	c, err := h.classifications.Update(r.Context(), id, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, c)
}

func (h *Handler) classificationCacheInfo(w http.ResponseWriter, r *http.Request) {
	h.respondText(w, h.classifications.CacheInfo())
}
