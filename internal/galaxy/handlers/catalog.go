package handlers

import (
	"log/slog"
	"net/http"

	"starconquest-server/internal/galaxy"
	"starconquest-server/internal/shared/errors"
	"starconquest-server/internal/shared/response"
)

const maxDocumentBytes = 16 << 20

type CatalogHandler struct {
	service *galaxy.Service
}

func NewCatalogHandler(service *galaxy.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_galaxy_maps")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	entries, err := h.service.List(ctx)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, entries)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_galaxy_map")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	name := r.PathValue("name")
	if name == "" {
		response.Error(w, r, logger, errors.Validation("galaxy map name is required"))
		return
	}

	doc, err := h.service.Get(ctx, name)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, doc)
}

func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "import_galaxy_map")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	name := r.PathValue("name")
	if name == "" {
		response.Error(w, r, logger, errors.Validation("galaxy map name is required"))
		return
	}

	doc, err := galaxy.Parse(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	entry, err := h.service.Import(ctx, name, doc)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, entry)
}
