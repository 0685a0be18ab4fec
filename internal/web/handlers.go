package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benefitsops/commission-processor/internal/fileparser"
	"github.com/benefitsops/commission-processor/internal/logging"
	"github.com/benefitsops/commission-processor/internal/store"
	"github.com/benefitsops/commission-processor/internal/transform"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const previewRows = 10

var allowedExtensions = map[string]bool{
	".csv":  true,
	".xls":  true,
	".xlsx": true,
	".xml":  true,
}

// uploadResponse is returned after a statement upload: a preview of the
// parsed data plus the recognition result, so a human can confirm or
// correct the carrier before processing.
type uploadResponse struct {
	Success           bool                `json:"success"`
	FileID            string              `json:"fileId"`
	Filename          string              `json:"filename"`
	SavedFilename     string              `json:"savedFilename"`
	Columns           []string            `json:"columns"`
	Preview           []map[string]string `json:"preview"`
	RowCount          int                 `json:"rowCount"`
	RecognizedCarrier string              `json:"recognizedCarrier,omitempty"`
	KnownCarriers     []string            `json:"knownCarriers"`
}

// handleUpload accepts a statement file, stores it under a unique name
// and returns a preview with the recognition result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		writeError(w, http.StatusBadRequest, "invalid file type, allowed: CSV, XLS, XLSX, XML")
		return
	}

	fileID := uuid.NewString()[:8]
	savedFilename := fileID + "_" + filename
	savedPath := filepath.Join(s.cfg.Storage.UploadsDir, savedFilename)

	if err := saveUpload(file, savedPath); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	table, err := fileparser.Parse(savedPath)
	if err != nil {
		os.Remove(savedPath)
		writeError(w, statusFor(err), err.Error())
		return
	}

	preview, columns := table.Preview(previewRows)
	carrier, _ := s.signatures.Recognize(table.Columns, filename)

	logger.Info("statement uploaded",
		"file", filename, "rows", table.RowCount(), "carrier", carrier)

	writeJSON(w, uploadResponse{
		Success:           true,
		FileID:            fileID,
		Filename:          filename,
		SavedFilename:     savedFilename,
		Columns:           columns,
		Preview:           preview,
		RowCount:          table.RowCount(),
		RecognizedCarrier: carrier,
		KnownCarriers:     s.signatures.Carriers(),
	})
}

// handleConfirmCarrier records the user's carrier choice so the same
// layout is recognized automatically next time.
func (s *Server) handleConfirmCarrier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarrierName      string   `json:"carrierName"`
		Columns          []string `json:"columns"`
		OriginalFilename string   `json:"originalFilename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CarrierName == "" || len(req.Columns) == 0 {
		writeError(w, http.StatusBadRequest, "carrierName and columns are required")
		return
	}

	if err := s.signatures.Register(req.CarrierName, req.Columns, req.OriginalFilename); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register carrier")
		return
	}

	writeJSON(w, map[string]any{
		"success": true,
		"message": fmt.Sprintf("carrier %q registered", req.CarrierName),
	})
}

// handleCarriers lists all carriers with a stored signature.
func (s *Server) handleCarriers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"carriers": s.signatures.Carriers()})
}

// handleTemplates reports the export templates configured per carrier
// and file type.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	type templateInfo struct {
		Carrier  string `json:"carrier"`
		FileType string `json:"fileType"`
		Template string `json:"template"`
	}
	var templates []templateInfo
	for _, carrier := range s.configs.Carriers() {
		cfg, ok := s.configs.Config(carrier)
		if !ok {
			continue
		}
		for _, ft := range cfg.FileTypes {
			templates = append(templates, templateInfo{
				Carrier:  carrier,
				FileType: ft.Name,
				Template: ft.Template,
			})
		}
	}
	writeJSON(w, map[string]any{"templates": templates})
}

// subReportResult is the outcome of processing one sub-report of a
// statement.
type subReportResult struct {
	SubReport       string              `json:"subReport"`
	RowCount        int                 `json:"rowCount"`
	ExportFilename  string              `json:"exportFilename"`
	MissingMappings map[string][]string `json:"missingMappings,omitempty"`
	Import          *store.ImportResult `json:"import,omitempty"`
}

// handleProcess runs the full pipeline on a previously uploaded
// statement: detect sub-reports, transform each to its canonical
// table, report missing lookup mappings, persist and export CSV.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req struct {
		SavedFilename string `json:"savedFilename"`
		CarrierName   string `json:"carrierName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SavedFilename == "" || req.CarrierName == "" {
		writeError(w, http.StatusBadRequest, "savedFilename and carrierName are required")
		return
	}
	if sanitizeFilename(req.SavedFilename) != req.SavedFilename {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(s.cfg.Storage.UploadsDir, req.SavedFilename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	table, err := fileparser.Parse(path)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	tr, ok := transform.New(req.CarrierName, transform.Deps{Config: s.configs, Agents: s.agents})
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("no transformer configured for carrier %q", req.CarrierName))
		return
	}

	subReports := tr.SubReports(table)
	if len(subReports) == 0 {
		writeError(w, http.StatusBadRequest, "could not determine file type for this carrier")
		return
	}

	var results []subReportResult
	for _, sr := range subReports {
		out, err := tr.Transform(table, sr)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		res := subReportResult{
			SubReport:       sr,
			RowCount:        out.RowCount(),
			MissingMappings: tr.MissingMappings(table, sr),
		}

		exportName := exportFilename(req.CarrierName, req.SavedFilename, sr)
		exportPath := filepath.Join(s.cfg.Storage.ExportsDir, exportName)
		if err := writeTableCSV(out, exportPath); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to write export")
			return
		}
		res.ExportFilename = exportName

		if s.db != nil {
			imp, err := s.db.SaveSubReport(r.Context(), sr, out, req.CarrierName, req.SavedFilename, "upload")
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to persist import")
				return
			}
			res.Import = imp
		}

		logger.Info("sub-report processed",
			"carrier", req.CarrierName, "sub_report", sr, "rows", out.RowCount())
		results = append(results, res)
	}

	writeJSON(w, map[string]any{"success": true, "results": results})
}

// handleDownload serves an exported canonical CSV.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || sanitizeFilename(filename) != filename {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(s.cfg.Storage.ExportsDir, filename)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// pathParam returns a route parameter with percent-encoding undone;
// chi hands back the raw path segment.
func pathParam(r *http.Request, name string) string {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return chi.URLParam(r, name)
	}
	return v
}

// handleGetLookups returns all lookup tables for a carrier.
func (s *Server) handleGetLookups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"lookups": s.configs.Lookups(pathParam(r, "carrier"))})
}

// handleUpdateLookup creates or updates one lookup entry.
func (s *Server) handleUpdateLookup(w http.ResponseWriter, r *http.Request) {
	carrier := pathParam(r, "carrier")
	lookup := pathParam(r, "lookup")

	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := s.configs.UpdateLookup(carrier, lookup, req.Key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update lookup")
		return
	}

	writeJSON(w, map[string]any{"success": true})
}

// handleDeleteLookupEntry removes one lookup entry. Deleting an entry
// that does not exist succeeds.
func (s *Server) handleDeleteLookupEntry(w http.ResponseWriter, r *http.Request) {
	carrier := pathParam(r, "carrier")
	lookup := pathParam(r, "lookup")
	key := pathParam(r, "key")

	if err := s.configs.DeleteLookupEntry(carrier, lookup, key); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete lookup entry")
		return
	}

	writeJSON(w, map[string]any{"success": true})
}

// handleImportHistory returns the most recent import batches.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	if s.db == nil {
		writeJSON(w, map[string]any{"imports": []store.ImportLogEntry{}})
		return
	}

	entries, err := s.db.ImportHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load import history")
		return
	}
	if entries == nil {
		entries = []store.ImportLogEntry{}
	}
	writeJSON(w, map[string]any{"imports": entries})
}

// handleRollbackImport deletes everything a single import batch
// inserted and marks the batch rolled back.
func (s *Server) handleRollbackImport(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "batchID is required")
		return
	}

	result, err := s.db.RollbackBatch(r.Context(), batchID)
	switch {
	case errors.Is(err, store.ErrBatchNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, store.ErrAlreadyRolledBack):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "rollback failed")
		return
	}

	logging.FromContext(r.Context()).Info("import batch rolled back",
		"batch", batchID, "rows", result.RowsDeleted)
	writeJSON(w, map[string]any{"success": true, "rollback": result})
}

// handleDriveStatus reports whether the Drive integration is usable.
func (s *Server) handleDriveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.drive.Status())
}

// sanitizeFilename strips any path component and rejects traversal.
// Returns "" when nothing safe remains.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" || strings.Contains(name, "..") {
		return ""
	}
	return name
}

// saveUpload writes an uploaded file to disk, creating the directory
// when needed.
func saveUpload(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// exportFilename mirrors the naming used for exported canonical CSVs:
// carrier, source file with dots flattened, sub-report type.
func exportFilename(carrier, savedFilename, subReport string) string {
	flat := strings.ReplaceAll(savedFilename, ".", "_")
	return fmt.Sprintf("%s_%s_%s_export.csv", carrier, flat, subReport)
}
