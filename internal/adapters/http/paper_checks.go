package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type checkRequest struct {
	Abstract string                `json:"abstract"`
	Metadata domain.SourceMetadata `json:"metadata"`
}

type submitJobsRequest struct {
	Items []checkRequest `json:"items"`
}

type submitJobsResponse struct {
	JobIDs []string `json:"job_ids"`
}

func (rt *Router) checkAbstract(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := rt.checkContext(r.Context())
	defer cancel()

	result, err := rt.deps.Checker.CheckAbstract(ctx, req.Abstract, req.Metadata, domain.CheckCallbacks{})
	if err != nil {
		writeDomainError(w, r, "check_abstract", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) submitJobs(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Jobs == nil {
		writeError(w, r, http.StatusServiceUnavailable, "job queue is not configured")
		return
	}
	var req submitJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]domain.CheckItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CheckItem{Abstract: item.Abstract, Metadata: item.Metadata})
	}
	ids, err := rt.deps.Jobs.Submit(r.Context(), items)
	if err != nil {
		writeDomainError(w, r, "submit_jobs", err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitJobsResponse{JobIDs: ids})
}

func (rt *Router) checkPDF(w http.ResponseWriter, r *http.Request) {
	if rt.deps.PDF == nil {
		writeError(w, r, http.StatusServiceUnavailable, "file extraction is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	ctx, cancel := rt.checkContext(r.Context())
	defer cancel()

	abstract, err := rt.deps.PDF.ExtractAbstract(ctx, header.Filename, file)
	if err != nil {
		writeDomainError(w, r, "extract_abstract", err)
		return
	}

	meta := domain.SourceMetadata{
		Title:  strings.TrimSpace(r.FormValue("title")),
		PMID:   strings.TrimSpace(r.FormValue("pmid")),
		DOI:    strings.TrimSpace(r.FormValue("doi")),
		Source: strings.TrimSpace(r.FormValue("source")),
	}
	if meta.Source == "" {
		meta.Source = "upload:" + header.Filename
	}

	result, err := rt.deps.Checker.CheckAbstract(ctx, abstract, meta, domain.CheckCallbacks{})
	if err != nil {
		writeDomainError(w, r, "check_pdf", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) listChecks(w http.ResponseWriter, r *http.Request) {
	limit, offset := defaultListLimit, 0
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &offset); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if limit < 1 || limit > maxListLimit || offset < 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be in [1, %d] and offset non-negative", maxListLimit))
		return
	}

	summaries, err := rt.deps.Reader.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, "list_checks", err)
		return
	}
	if summaries == nil {
		summaries = []domain.PaperCheckSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":  summaries,
		"limit":  limit,
		"offset": offset,
	})
}

func (rt *Router) getCheck(w http.ResponseWriter, r *http.Request) {
	result, err := rt.deps.Reader.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, "get_check", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) deleteCheck(w http.ResponseWriter, r *http.Request) {
	if err := rt.deps.Reader.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, "delete_check", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) exportCheck(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Exporter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	id := r.PathValue("id")
	result, err := rt.deps.Reader.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "export_check", err)
		return
	}

	var buf bytes.Buffer
	if err := rt.deps.Exporter.Export(&buf, result); err != nil {
		writeDomainError(w, r, "export_check", err)
		return
	}
	w.Header().Set("Content-Type", rt.deps.Exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "paper-check-"+id+".xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
