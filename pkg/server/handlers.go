package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"vrm-observer/pkg/config"
	"vrm-observer/pkg/export"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/orchestrate"
)

// maxUploadBytes bounds multipart bodies of dashboard uploads and imports
const maxUploadBytes = 64 << 20

// ScanRequest is the body of POST /api/scan. Empty fields fall back to the configuration.
type ScanRequest struct {
	VRMs []config.VRMConfig `json:"vrms"`
	User string             `json:"user"`
	Pass string             `json:"pass"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	OK           bool       `json:"ok"`
	LastSnapshot *time.Time `json:"lastSnapshot"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{OK: true}
	if snap := s.snapshots.Load(); snap != nil && !snap.TakenAt.IsZero() {
		ts := snap.TakenAt
		resp.LastSnapshot = &ts
	}
	s.respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVRMs(w http.ResponseWriter, r *http.Request) {
	vrms := s.appCfg.VRMList()
	for i := range vrms {
		vrms[i].Pass = ""
	}
	s.respondWithJSON(w, http.StatusOK, vrms)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.snapshots.Load())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vrms, err := s.resolveVRMs(req)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(vrms) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "No VRMs")
		return
	}

	if !s.scanMu.TryLock() {
		s.respondWithError(w, http.StatusConflict, "A scan is already running")
		return
	}
	defer s.scanMu.Unlock()

	// A client that goes away does not abort the fleet scan
	snap := s.scanner.Scan(context.WithoutCancel(r.Context()), vrms)
	s.snapshots.Replace(snap)
	s.respondWithJSON(w, http.StatusOK, snap)
}

// resolveVRMs applies request credentials to the requested (or configured) appliances.
// Appliance credentials from the configuration still win over the request's.
func (s *Server) resolveVRMs(req ScanRequest) ([]models.VRM, error) {
	var vrms []models.VRM
	if len(req.VRMs) == 0 {
		vrms = s.appCfg.VRMList()
	} else {
		vrms = make([]models.VRM, 0, len(req.VRMs))
		for i := range req.VRMs {
			if _, err := req.VRMs[i].Validate(); err != nil {
				return nil, fmt.Errorf("vrms[%d]: %v", i, err)
			}
			vrms = append(vrms, req.VRMs[i].ToVRM())
		}
	}
	for i := range vrms {
		if vrms[i].User == "" {
			vrms[i].User = req.User
		}
		if vrms[i].Pass == "" {
			vrms[i].Pass = req.Pass
		}
	}
	return vrms, nil
}

func (s *Server) handleScanRecords(w http.ResponseWriter, r *http.Request) {
	if s.scans == nil {
		s.respondWithJSON(w, http.StatusOK, []models.ScanRecord{})
		return
	}
	records, err := s.scans.ListScanRecords(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list scan records")
		s.respondWithError(w, http.StatusInternalServerError, "Could not retrieve scan records")
		return
	}
	if records == nil {
		records = []models.ScanRecord{}
	}
	s.respondWithJSON(w, http.StatusOK, records)
}

func (s *Server) handleDashboardUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Could not read file")
		return
	}

	res := orchestrate.ParseUpload(header.Filename, data)
	if res.ParseError != "" {
		s.log.WithField("file", header.Filename).Warnf("Dashboard upload not parsed: %s", res.ParseError)
	}
	s.respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "No files")
		return
	}

	files := make([]orchestrate.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			s.respondWithError(w, http.StatusBadRequest, "Could not read "+fh.Filename)
			return
		}
		files = append(files, orchestrate.UploadFile{Name: fh.Filename, Data: data})
	}

	if !s.scanMu.TryLock() {
		s.respondWithError(w, http.StatusConflict, "A scan is already running")
		return
	}
	defer s.scanMu.Unlock()

	snap := s.scanner.Import(r.FormValue("label"), files)
	s.snapshots.Replace(snap)
	s.respondWithJSON(w, http.StatusOK, snap)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) handleExportCameras(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteCameras(&buf, s.snapshots.Load().Cameras); err != nil {
		s.log.WithError(err).Error("Camera export failed")
		s.respondWithError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	s.respondWithCSV(w, "cameras.csv", buf.Bytes())
}

func (s *Server) handleExportVRMs(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteVRMs(&buf, s.snapshots.Load().VRMStats); err != nil {
		s.log.WithError(err).Error("VRM export failed")
		s.respondWithError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	s.respondWithCSV(w, "vrms.csv", buf.Bytes())
}

// --- Helper Functions ---

func (s *Server) respondWithCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode response")
		code = http.StatusInternalServerError
		response = []byte(`{"error":"encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
