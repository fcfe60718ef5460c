// Package orchestrate scans a fleet of appliances and assembles the fleet snapshot.
package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"vrm-observer/pkg/archive"
	"vrm-observer/pkg/config"
	"vrm-observer/pkg/dashboard"
	"vrm-observer/pkg/fetch"
	"vrm-observer/pkg/metrics"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/reconcile"
	"vrm-observer/pkg/storage"
	"vrm-observer/pkg/tables"
	"vrm-observer/pkg/utils"
)

// Downloader obtains one document of an appliance
type Downloader interface {
	Download(ctx context.Context, req fetch.DocumentRequest) fetch.DocumentResult
}

// Orchestrator runs fleet scans with bounded appliance concurrency
type Orchestrator struct {
	appCfg     *config.AppConfig
	downloader Downloader
	store      storage.ObserverStore // Optional
	metrics    *metrics.Metrics      // Optional
	log        *logrus.Entry
}

// NewOrchestrator creates an orchestrator. store and m may be nil.
func NewOrchestrator(appCfg *config.AppConfig, downloader Downloader, store storage.ObserverStore, m *metrics.Metrics, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		appCfg:     appCfg,
		downloader: downloader,
		store:      store,
		metrics:    m,
		log:        log,
	}
}

// ProgressFunc is called each time an appliance finishes, with the number finished so far
type ProgressFunc func(done, total int)

// Scan polls every appliance and returns a fresh snapshot.
// One goroutine runs per appliance, at most max_concurrent_vrms at a time; documents of one
// appliance are fetched sequentially. Failures are recorded in the snapshot, never returned.
func (o *Orchestrator) Scan(ctx context.Context, vrms []models.VRM) *models.Snapshot {
	return o.ScanWithProgress(ctx, vrms, nil)
}

// ScanWithProgress is Scan with a completion callback. progress may be nil and is called from
// the appliance goroutines.
func (o *Orchestrator) ScanWithProgress(ctx context.Context, vrms []models.VRM, progressFn ProgressFunc) *models.Snapshot {
	start := time.Now()
	if o.appCfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.appCfg.ScanTimeout)
		defer cancel()
	}

	limit := o.appCfg.MaxConcurrentVRMs
	if limit <= 0 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	o.log.WithFields(logrus.Fields{"vrms": len(vrms), "concurrency": limit}).Info("Starting fleet scan")

	results := make([]models.ApplianceResult, len(vrms))
	progress := make([][]string, len(vrms))
	var (
		wg   sync.WaitGroup
		done atomic.Int32
	)

	for i, v := range vrms {
		wg.Add(1)
		go func(i int, v models.VRM) {
			defer wg.Done()
			if progressFn != nil {
				defer func() { progressFn(int(done.Add(1)), len(vrms)) }()
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = newApplianceResult(v)
				results[i].Error = fmt.Sprintf("scan aborted on %s: %v", v.Host, err)
				progress[i] = []string{results[i].Error}
				o.metrics.IncScan(models.ScanStatusFailure)
				return
			}
			defer sem.Release(1)
			results[i], progress[i] = o.scanAppliance(ctx, i, len(vrms), v)
		}(i, v)
	}
	wg.Wait()

	var lines []string
	for _, p := range progress {
		lines = append(lines, p...)
	}
	snap := BuildSnapshot(results, lines)

	o.metrics.ObserveScanDuration(time.Since(start))
	o.metrics.RecordSnapshot(snap)
	o.log.WithFields(logrus.Fields{
		"snapshot": snap.ID,
		"cameras":  snap.Summary.Total,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("Fleet scan finished")
	return snap
}

// newApplianceResult starts a result for v. The password never leaves the process.
func newApplianceResult(v models.VRM) models.ApplianceResult {
	public := v
	public.Pass = ""
	return models.ApplianceResult{VRM: public, VRMID: VRMID(v), Cameras: []models.EnrichedCamera{}}
}

type progressLog struct {
	lines []string
	log   *logrus.Entry
}

func (p *progressLog) note(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	p.lines = append(p.lines, line)
	p.log.Info(line)
}

func (o *Orchestrator) scanAppliance(ctx context.Context, idx, total int, v models.VRM) (models.ApplianceResult, []string) {
	res := newApplianceResult(v)
	vlog := o.log.WithField("vrm", res.VRMID)
	progress := &progressLog{log: vlog}
	progress.note("Connecting %s (%d/%d)", res.VRMID, idx+1, total)

	user, pass := config.GetEffectiveCredentials(v, *o.appCfg)
	docs := make(map[models.DocumentKind]fetch.DocumentResult, len(documentOrder))
	for _, kind := range documentOrder {
		docs[kind] = o.downloader.Download(ctx, fetch.DocumentRequest{
			Kind:       kind,
			Host:       v.Host,
			Candidates: candidatePaths(o.appCfg, kind),
			User:       user,
			Pass:       pass,
		})
	}

	usable, firstErr := o.assemble(&res, docs, progress)
	status := models.ScanStatusSuccess
	if usable == 0 {
		status = models.ScanStatusFailure
		res.Error = "total failure on " + v.Host
		progress.note("%s", res.Error)
		if firstErr != nil {
			firstErr = fmt.Errorf("%w: %w", utils.ErrNoDocuments, firstErr)
		} else {
			firstErr = utils.ErrNoDocuments
		}
	} else {
		if usable < len(documentOrder) {
			status = models.ScanStatusPartial
		}
		progress.note("OK %s — cams: %d, devs: %d", res.VRMID, len(res.Cameras), res.DevicesCount)
	}

	o.metrics.IncScan(status)
	o.recordScan(vlog, &res, status, firstErr)
	return res, progress.lines
}

// assemble decodes and parses the obtained documents into res.
// Returns the number of documents that contributed data and the first failure.
func (o *Orchestrator) assemble(res *models.ApplianceResult, docs map[models.DocumentKind]fetch.DocumentResult, progress *progressLog) (int, error) {
	var (
		firstErr error
		usable   int
		devices  []models.DeviceRecord
		cameras  []models.CameraRecord
	)
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, kind := range documentOrder {
		doc, present := docs[kind]
		if !present {
			continue
		}
		outcome := models.SourceOutcome{Document: kind, Scheme: doc.Scheme, Rel: doc.Rel}
		if !doc.OK {
			outcome.Status = models.SourceStatusUnavailable
			if doc.Err != nil {
				outcome.Error = doc.Err.Error()
				o.metrics.IncFetchError(utils.CategorizeError(doc.Err))
			}
			fail(doc.Err)
			res.Sources = append(res.Sources, outcome)
			o.metrics.IncDocument(kind, outcome.Status)
			progress.log.WithField("document", kind).Debugf("Document unavailable: %v", doc.Err)
			continue
		}

		decoded := archive.Decode(doc.Data, doc.ContentType, doc.Ext)
		outcome.Converted = decoded.Converted

		var err error
		switch kind {
		case models.DocumentTargets:
			res.Targets, err = safeParse(kind, func() (*models.TargetsReport, error) {
				return tables.ParseTargets(decoded.HTML, res.VRMID)
			})
		case models.DocumentDevices:
			devices, err = safeParse(kind, func() ([]models.DeviceRecord, error) {
				return tables.ParseDevices(decoded.HTML, res.VRMID)
			})
		case models.DocumentCameras:
			cameras, err = safeParse(kind, func() ([]models.CameraRecord, error) {
				return tables.ParseCameras(decoded.HTML, res.VRMID)
			})
		case models.DocumentDashboard:
			if decoded.Converted {
				progress.note("%s: dashboard converted from MHTML", res.VRMID)
			}
			res.Dashboard, err = safeParse(kind, func() (*models.Dashboard, error) {
				return dashboard.Parse(decoded.HTML, res.VRMID)
			})
			if err == nil {
				o.persistDashboard(progress.log, res.VRMID, decoded)
			}
		}

		if err != nil {
			outcome.Status = models.SourceStatusParseError
			outcome.Error = err.Error()
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", kind, err))
			o.metrics.IncFetchError(utils.CategorizeError(err))
			fail(err)
			progress.log.WithField("document", kind).Warnf("Parse failed: %v", err)
		} else {
			outcome.Status = models.SourceStatusOK
			usable++
		}
		res.Sources = append(res.Sources, outcome)
		o.metrics.IncDocument(kind, outcome.Status)
	}

	res.DevicesCount = len(devices)
	res.Cameras = reconcile.JoinCamerasDevices(cameras, devices)
	return usable, firstErr
}

// persistDashboard keeps the normalized dashboard copy in the store and, when a dashboard
// directory is configured, on disk. Failures are logged only.
func (o *Orchestrator) persistDashboard(log *logrus.Entry, vrmID string, decoded archive.Result) {
	if !o.appCfg.PersistDashboards {
		return
	}
	rec := &models.DashboardRecord{
		VRMID:     vrmID,
		HTML:      decoded.HTML,
		Ext:       decoded.Ext,
		Converted: decoded.Converted,
	}

	changed := true
	if o.store != nil {
		var err error
		if changed, err = o.store.SaveDashboard(rec); err != nil {
			log.Warnf("Failed to store dashboard copy: %v", err)
			changed = true
		}
	}
	if !changed || o.appCfg.DashboardDir == "" {
		return
	}

	if err := os.MkdirAll(o.appCfg.DashboardDir, 0755); err != nil {
		log.Warnf("%v", fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, o.appCfg.DashboardDir, err))
		return
	}
	name := filepath.Join(o.appCfg.DashboardDir, utils.SanitizeFilename(vrmID)+decoded.Ext)
	if err := os.WriteFile(name, []byte(decoded.HTML), 0644); err != nil {
		log.Warnf("%v", fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, name, err))
		return
	}
	log.WithField("file", name).Debug("Dashboard copy written")
}

func (o *Orchestrator) recordScan(log *logrus.Entry, res *models.ApplianceResult, status models.ScanStatus, err error) {
	if o.store == nil {
		return
	}
	rec := &models.ScanRecord{
		VRMID:       res.VRMID,
		Status:      status,
		Cameras:     len(res.Cameras),
		Devices:     res.DevicesCount,
		LastAttempt: time.Now().UTC(),
		Summary:     reconcile.SummarizeCameraStatuses(res.Cameras),
	}
	if err != nil && status != models.ScanStatusSuccess {
		rec.ErrorType = utils.CategorizeError(err)
	}
	if errStore := o.store.UpdateScanRecord(rec); errStore != nil {
		log.Warnf("Failed to record scan outcome: %v", errStore)
	}
}

// SelectVRMs returns the configured appliances matching the given hosts or names, in the
// given order. An empty selection returns every configured appliance.
func SelectVRMs(appCfg *config.AppConfig, selectors []string) ([]models.VRM, error) {
	all := appCfg.VRMList()
	if len(selectors) == 0 {
		return all, nil
	}

	selected := make([]models.VRM, 0, len(selectors))
	var missing []string
	for _, sel := range selectors {
		found := false
		for _, v := range all {
			if strings.EqualFold(v.Host, sel) || strings.EqualFold(v.Name, sel) {
				selected = append(selected, v)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, sel)
		}
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(all))
		for _, v := range all {
			available = append(available, v.Host)
		}
		return nil, fmt.Errorf("%w: unknown VRMs %v, available: %v", utils.ErrConfigValidation, missing, available)
	}
	return selected, nil
}
