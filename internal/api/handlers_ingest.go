package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docthemes/internal/ingest"
	"github.com/dgallion1/docthemes/internal/parser"
)

const maxUploadFiles = 20

// handleUpload queues one ingestion job per multipart file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxUploadFiles+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxUploadFiles {
		jsonError(w, fmt.Sprintf("at most %d files per upload", maxUploadFiles), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		data, err := s.readUpload(fh)
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": err.Error()})
			continue
		}
		results = append(results, s.submit(filename, data))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if !parser.IsSupportedExtension(fh.Filename) {
		return nil, fmt.Errorf("unsupported file type %q (accepted: %s)", filepath.Ext(fh.Filename), strings.Join(parser.Extensions(), " "))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return data, nil
}

type textUpload struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// handleUploadText queues pasted text as a document.
func (s *Server) handleUploadText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024)

	var req textUpload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	filename := "pasted.txt"
	if req.Filename != "" {
		filename = sanitizeFilename(req.Filename)
	}
	if !parser.IsSupportedExtension(filename) {
		filename += ".txt"
	}

	res := s.submit(filename, []byte(req.Text))
	if _, failed := res["error"]; failed {
		jsonError(w, res["error"].(string), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(res)
}

func (s *Server) submit(filename string, data []byte) map[string]any {
	job := ingest.NewJob(filename, data)
	if err := s.deps.Ingestor.Submit(job); err != nil {
		return map[string]any{"filename": filename, "error": err.Error()}
	}
	return map[string]any{
		"filename":    filename,
		"job_id":      job.ID,
		"document_id": job.DocID,
		"status":      ingest.StatusQueued,
		"poll_url":    fmt.Sprintf("/api/ingest/%s/status", job.ID),
	}
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.deps.Ingestor.Job(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
