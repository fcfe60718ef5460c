package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/models"
	"vrm-observer/pkg/orchestrate"
)

// maxDashboardFileBytes bounds files read by parse_dashboard
const maxDashboardFileBytes = 64 << 20

// handleListVRMs handles the list_vrms tool
func (s *Server) handleListVRMs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vrms := s.cfg.AppConfig.VRMList()
	list := make([]map[string]interface{}, 0, len(vrms))

	scanning := make(map[string]bool)
	for _, job := range s.jobManager.ListJobs() {
		if job.Status.IsActive() {
			for _, host := range strings.Split(job.Scope, ",") {
				scanning[host] = true
			}
		}
	}

	for _, v := range vrms {
		vrmID := orchestrate.VRMID(v)
		info := map[string]interface{}{
			"vrm_id": vrmID,
			"site":   v.Site,
			"name":   v.Name,
			"host":   v.Host,
		}

		if s.cfg.Scans != nil {
			status, rec, err := s.cfg.Scans.CheckScanStatus(vrmID)
			switch {
			case err != nil:
				info["last_scan"] = string(status)
				s.log.WithField("vrm", vrmID).Warnf("Scan record lookup failed: %v", err)
			case rec != nil:
				info["last_scan"] = string(rec.Status)
				info["last_scan_at"] = rec.LastAttempt.Format(time.RFC3339)
				info["cameras"] = rec.Cameras
				if rec.ErrorType != "" {
					info["error_type"] = rec.ErrorType
				}
			default:
				info["last_scan"] = string(status)
			}
		}

		if scanning[strings.ToLower(v.Host)] {
			info["status"] = "running"
		}

		list = append(list, info)
	}

	result := map[string]interface{}{
		"vrms":        list,
		"config_path": s.cfg.ConfigPath,
		"total_vrms":  len(list),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleScanFleet handles the scan_fleet tool
func (s *Server) handleScanFleet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var selectors []string
	for _, sel := range strings.Split(request.GetString("vrms", ""), ",") {
		if sel = strings.TrimSpace(sel); sel != "" {
			selectors = append(selectors, sel)
		}
	}

	vrms, err := orchestrate.SelectVRMs(s.cfg.AppConfig, selectors)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(vrms) == 0 {
		return mcp.NewToolResultError("no VRMs configured"), nil
	}

	hosts := make([]string, len(vrms))
	for i, v := range vrms {
		hosts[i] = v.Host
	}
	scope := ScopeKey(hosts)

	job, created := s.jobManager.CreateJob(scope, len(vrms))
	if !created {
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "A scan is already in progress for these VRMs",
			"job_id":  job.ID,
			"vrms":    hosts,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	go s.runScanJob(job.ID, vrms)

	result := map[string]interface{}{
		"status":  "started",
		"message": "Scan started successfully",
		"job_id":  job.ID,
		"vrms":    hosts,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runScanJob runs a scan job in the background and publishes its snapshot
func (s *Server) runScanJob(jobID string, vrms []models.VRM) {
	s.jobManager.UpdateStatus(jobID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(jobID)

	snap := s.cfg.Scanner.ScanWithProgress(jobCtx, vrms, func(done, total int) {
		s.jobManager.UpdateProgress(jobID, done, total)
	})

	if jobCtx.Err() != nil {
		s.log.WithField("job", jobID).Info("Scan job cancelled, snapshot discarded")
		return
	}
	s.cfg.Snapshots.Replace(snap)
	s.jobManager.Complete(jobID, snap.ID)
	s.log.WithFields(logrus.Fields{"job": jobID, "snapshot": snap.ID}).Info("Scan job completed")
}

// handleGetScanStatus handles the get_scan_status tool
func (s *Server) handleGetScanStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":           job.ID,
		"vrms":             job.Scope,
		"status":           job.Status,
		"started_at":       job.StartedAt.Format(time.RFC3339),
		"appliances_done":  job.AppliancesDone,
		"appliances_total": job.AppliancesTotal,
	}

	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.SnapshotID != "" {
		result["snapshot_id"] = job.SnapshotID
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetSnapshot handles the get_snapshot tool
func (s *Server) handleGetSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.cfg.Snapshots.Load()
	view := strings.ToLower(request.GetString("view", "summary"))

	result := map[string]interface{}{
		"snapshot_id": snap.ID,
	}
	if !snap.TakenAt.IsZero() {
		result["taken_at"] = snap.TakenAt.Format(time.RFC3339)
	}

	switch view {
	case "summary":
		failed := make([]string, 0)
		for _, r := range snap.VRMs {
			if r.Error != "" {
				failed = append(failed, r.VRMID+": "+r.Error)
			}
		}
		result["summary"] = snap.Summary
		result["device_totals"] = snap.DeviceTotals
		result["vrm_count"] = len(snap.VRMs)
		result["failed_vrms"] = failed
		result["progress"] = snap.Progress
	case "cameras":
		maxCameras := request.GetInt("max_cameras", 200)
		if maxCameras <= 0 {
			maxCameras = 200
		}
		if maxCameras > 5000 {
			maxCameras = 5000
		}
		cams := snap.Cameras
		if len(cams) > maxCameras {
			cams = cams[:maxCameras]
		}
		result["cameras"] = cams
		result["total_cameras"] = len(snap.Cameras)
		result["truncated"] = len(snap.Cameras) > len(cams)
	case "vrms":
		result["vrm_stats"] = snap.VRMStats
	case "full":
		result["snapshot"] = snap
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown view '%s' (supported: summary, cameras, vrms, full)", view)), nil
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleParseDashboard handles the parse_dashboard tool
func (s *Server) handleParseDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a directory", path)), nil
	}
	if info.Size() > maxDashboardFileBytes {
		return mcp.NewToolResultError(fmt.Sprintf("%s is larger than %d bytes", path, maxDashboardFileBytes)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %s: %v", path, err)), nil
	}

	res := orchestrate.ParseUpload(filepath.Base(path), data)
	if res.ParseError != "" {
		return mcp.NewToolResultError(fmt.Sprintf("dashboard not parsed: %s", res.ParseError)), nil
	}

	result := map[string]interface{}{
		"file":                 res.FileName,
		"converted_from_mhtml": res.Converted,
		"metrics":              res.Dashboard.Devices.Metrics,
		"metrics_text":         res.Dashboard.Devices.MetricsText,
		"devices":              res.Dashboard.Devices.Entries,
		"storage":              res.Dashboard.Storage.Entries,
		"load":                 res.Dashboard.Load.Entries,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
