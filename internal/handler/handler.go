// Package handler exposes the asset subsystem as a JSON API: batch
// upload, access URL issuance, listing, soft delete and restore. The
// requester's identity and role arrive in headers resolved by the
// upstream auth layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/assetvault/pkg/assets"
)

// maxUploadMemory bounds the multipart parse buffer; larger file parts
// spill to temp files.
const maxUploadMemory = 32 << 20

type Handler struct {
	store    assets.Store
	uploader *assets.Uploader
	signer   *assets.Signer
	health   func(context.Context) error
	log      *slog.Logger
}

// New creates the API handler. A nil logger discards output; a nil
// health function makes /healthz always report ok.
func New(store assets.Store, uploader *assets.Uploader, signer *assets.Signer, health func(context.Context) error, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		store:    store,
		uploader: uploader,
		signer:   signer,
		health:   health,
		log:      log,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.healthz)

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", h.upload)
		r.Get("/", h.list)
		r.Delete("/{id}", h.softDelete)
		r.Post("/{id}/restore", h.restore)

		r.Route("/access", func(r chi.Router) {
			r.Post("/generate", h.generate)
			r.Post("/bulk-generate", h.bulkGenerate)
			r.Post("/download", h.download)
		})
	})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.ErrorContext(r.Context(), "healthcheck failed", slog.Any("error", err))
			respondError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	respondOK(w, map[string]string{"status": "ok"})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	ownerID, err := uuid.Parse(r.FormValue("ownerId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "ownerId must be a valid uuid")
		return
	}

	params := assets.UploadParams{
		OwnerID:    ownerID,
		EntityType: r.FormValue("entityType"),
		EntityID:   r.FormValue("entityId"),
		Subfolder:  r.FormValue("subfolder"),
		Type:       assets.Type(r.FormValue("type")),
		Visibility: assets.Visibility(r.FormValue("visibility")),
		UploadedBy: r.FormValue("uploadedBy"),
	}
	if params.Visibility == "" {
		params.Visibility = assets.VisibilityPrivate
	}
	if raw := r.FormValue("relatedId"); raw != "" {
		relID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "relatedId must be a valid uuid")
			return
		}
		params.RelatedID = &relID
	}

	headers := r.MultipartForm.File["files"]
	files := make([]assets.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		defer f.Close()
		files = append(files, assets.UploadFile{
			Filename: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		})
	}
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files in request")
		return
	}

	decisions, err := h.uploader.UploadBatch(r.Context(), params, files)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var accepted int
	for _, d := range decisions {
		if d.Accepted {
			accepted++
		}
	}
	respondOK(w, map[string]any{
		"files":    decisions,
		"accepted": accepted,
		"total":    len(decisions),
	})
}

type generateRequest struct {
	AssetID    uuid.UUID `json:"assetId"`
	TTLSeconds int       `json:"ttlSeconds"`
}

type grantResponse struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Filename  string     `json:"filename,omitempty"`
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	who := requesterFrom(r)

	grant, err := h.signer.IssueSingle(r.Context(), req.AssetID, who.ID, who.Role, ttlFromSeconds(req.TTLSeconds))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, grantResponse{URL: grant.URL, ExpiresAt: grant.ExpiresAt})
}

type bulkGenerateRequest struct {
	AssetIDs   []uuid.UUID `json:"assetIds"`
	TTLSeconds int         `json:"ttlSeconds"`
}

type bulkItemResponse struct {
	AssetID   uuid.UUID  `json:"assetId"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (h *Handler) bulkGenerate(w http.ResponseWriter, r *http.Request) {
	var req bulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.AssetIDs) == 0 {
		respondError(w, http.StatusBadRequest, "assetIds must not be empty")
		return
	}
	who := requesterFrom(r)

	res := h.signer.IssueBulk(r.Context(), req.AssetIDs, who.ID, who.Role, ttlFromSeconds(req.TTLSeconds))

	items := make([]bulkItemResponse, len(res.Results))
	for i, item := range res.Results {
		items[i] = bulkItemResponse{AssetID: item.AssetID}
		if item.Err != nil {
			items[i].Error = errorCode(item.Err)
			continue
		}
		items[i].URL = item.Grant.URL
		items[i].ExpiresAt = item.Grant.ExpiresAt
	}

	respondOK(w, map[string]any{
		"results": items,
		"summary": map[string]int{
			"successful": res.Successful,
			"total":      res.Total,
		},
	})
}

type downloadRequest struct {
	AssetID          uuid.UUID `json:"assetId"`
	DownloadFilename string    `json:"downloadFilename"`
	TTLSeconds       int       `json:"ttlSeconds"`
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	who := requesterFrom(r)

	grant, err := h.signer.IssueDownload(r.Context(), req.AssetID, who.ID, who.Role, req.DownloadFilename, ttlFromSeconds(req.TTLSeconds))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, grantResponse{
		URL:       grant.URL,
		ExpiresAt: grant.ExpiresAt,
		Filename:  req.DownloadFilename,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f assets.Filter

	if raw := q.Get("owner"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "owner must be a valid uuid")
			return
		}
		f.OwnerID = &id
	}
	if raw := q.Get("relatedId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "relatedId must be a valid uuid")
			return
		}
		f.RelatedID = &id
	}
	if raw := q.Get("type"); raw != "" {
		t := assets.Type(raw)
		f.Type = &t
	}
	if raw := q.Get("visibility"); raw != "" {
		v := assets.Visibility(raw)
		f.Visibility = &v
	}
	f.IncludeDeleted = q.Get("includeDeleted") == "true"
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	if sort := q.Get("sort"); sort != "" {
		f.SortDesc = strings.HasPrefix(sort, "-")
		f.SortBy = assets.SortField(strings.TrimPrefix(sort, "-"))
	}

	items, total, err := h.store.Query(r.Context(), f)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, map[string]any{
		"items": items,
		"total": total,
	})
}

func (h *Handler) softDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be a valid uuid")
		return
	}
	if err := h.store.SoftDelete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, map[string]string{"status": "deleted"})
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "id must be a valid uuid")
		return
	}
	if err := h.store.Restore(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondOK(w, map[string]string{"status": "restored"})
}

func ttlFromSeconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// errorCode maps a per-item error to a stable machine-readable code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, assets.ErrNotFound):
		return "not_found"
	case errors.Is(err, assets.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, assets.ErrValidation):
		return "validation_error"
	default:
		return "backend_error"
	}
}
