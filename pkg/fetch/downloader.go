package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/archive"
	"vrm-observer/pkg/config"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
	"vrm-observer/pkg/utils"
)

// maxDocumentBytes bounds a single debug page or dashboard download
const maxDocumentBytes = 32 << 20

// DocumentRequest describes one logical document of an appliance.
// Candidates are paths on the appliance, tried in order for every scheme; duplicates after
// URL normalization are tried once.
type DocumentRequest struct {
	Kind       models.DocumentKind
	Host       string
	Candidates []string
	User       string
	Pass       string
}

// DocumentResult is the outcome of a download. Err is set when OK is false.
type DocumentResult struct {
	OK          bool
	Data        []byte
	ContentType string
	Scheme      string
	Rel         string
	URL         string
	Ext         string
	Err         error
}

// DownloaderConfig holds the per-process download settings
type DownloaderConfig struct {
	Schemes      []string
	DelayPerHost time.Duration
}

// Downloader obtains appliance documents over every scheme and candidate path
type Downloader struct {
	fetcher *Fetcher
	hosts   *HostSemaphorePool
	limiter *RateLimiter
	cfg     DownloaderConfig
	log     *logrus.Entry
}

// NewDownloaderFromConfig builds the shared client, fetcher, host pool and rate limiter from the app config
func NewDownloaderFromConfig(appCfg *config.AppConfig, log *logrus.Entry) *Downloader {
	client := NewClient(appCfg.HTTPClientSettings, appCfg.InsecureSkipVerify, log)
	fetcher := NewFetcher(client, RetryPolicy{
		MaxRetries:        appCfg.MaxRetries,
		InitialRetryDelay: appCfg.InitialRetryDelay,
		MaxRetryDelay:     appCfg.MaxRetryDelay,
	}, log)
	return NewDownloader(
		fetcher,
		NewHostSemaphorePool(appCfg.MaxRequestsPerHost, log),
		NewRateLimiter(appCfg.DelayPerHost, log),
		DownloaderConfig{Schemes: appCfg.Schemes, DelayPerHost: appCfg.DelayPerHost},
		log,
	)
}

// Hosts returns the host semaphore pool, nil when none was configured
func (d *Downloader) Hosts() *HostSemaphorePool { return d.hosts }

// NewDownloader wires a Downloader. hosts and limiter may be nil.
func NewDownloader(fetcher *Fetcher, hosts *HostSemaphorePool, limiter *RateLimiter, cfg DownloaderConfig, log *logrus.Entry) *Downloader {
	if len(cfg.Schemes) == 0 {
		cfg.Schemes = []string{"http", "https"}
	}
	return &Downloader{fetcher: fetcher, hosts: hosts, limiter: limiter, cfg: cfg, log: log}
}

// Download tries scheme x candidate in order and returns the first successful body.
// Per-document failures are reported in the result, never as a Go error.
func (d *Downloader) Download(ctx context.Context, req DocumentRequest) DocumentResult {
	docLog := d.log.WithFields(logrus.Fields{"host": req.Host, "document": req.Kind})
	var lastErr error
	tried := make(map[string]bool)

	for _, scheme := range d.cfg.Schemes {
		for _, rel := range req.Candidates {
			if err := ctx.Err(); err != nil {
				return DocumentResult{Err: fmt.Errorf("%w: %w", utils.ErrAllCandidatesFailed, err)}
			}
			url, err := parse.CandidateURL(scheme, req.Host, rel)
			if err != nil {
				lastErr = fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
				continue
			}
			if tried[url] {
				continue
			}
			tried[url] = true

			res, err := d.attempt(ctx, url, req)
			if err == nil {
				res.Scheme = scheme
				res.Rel = rel
				res.Ext = archive.DetectExtension(rel, res.ContentType, res.Data)
				docLog.WithFields(logrus.Fields{"url": url, "bytes": len(res.Data)}).Debug("Document downloaded")
				return res
			}
			docLog.WithFields(logrus.Fields{"url": url, "category": utils.CategorizeError(err)}).Debugf("Candidate failed: %v", err)
			lastErr = err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no candidate paths")
	}
	return DocumentResult{Err: fmt.Errorf("%w for %s on %s: %w", utils.ErrAllCandidatesFailed, req.Kind, req.Host, lastErr)}
}

func (d *Downloader) attempt(ctx context.Context, url string, req DocumentRequest) (DocumentResult, error) {
	if d.hosts != nil {
		if err := d.hosts.Acquire(ctx, req.Host); err != nil {
			return DocumentResult{}, fmt.Errorf("%w: %w", utils.ErrSemaphoreTimeout, err)
		}
		defer d.hosts.Release(req.Host)
	}
	if d.limiter != nil {
		if err := d.limiter.ApplyDelay(ctx, req.Host, d.cfg.DelayPerHost); err != nil {
			return DocumentResult{}, err
		}
		defer d.limiter.UpdateLastRequestTime(req.Host)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("%w: %w", utils.ErrRequestCreation, err)
	}
	if req.User != "" || req.Pass != "" {
		httpReq.SetBasicAuth(req.User, req.Pass)
	}
	httpReq.Header.Set("Accept", "text/html,multipart/related,*/*;q=0.8")

	resp, err := d.fetcher.FetchWithRetry(ctx, httpReq)
	if err != nil {
		drain(resp)
		return DocumentResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return DocumentResult{}, fmt.Errorf("%w: %w", utils.ErrResponseBodyRead, err)
	}
	return DocumentResult{
		OK:          true,
		Data:        data,
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
		URL:         url,
	}, nil
}
