package fetch

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/config"
)

// NewClient creates the HTTP client shared by all appliance downloads.
// cfg.Timeout bounds each attempt separately. VRMs usually present self-signed certificates, so
// verification can be disabled with insecureSkipVerify.
func NewClient(cfg config.HTTPClientConfig, insecureSkipVerify bool, log *logrus.Entry) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialerTimeout,
		KeepAlive: cfg.DialerKeepAlive,
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment,
		DialContext:            dialer.DialContext,
		ForceAttemptHTTP2:      false, // Appliance web servers speak HTTP/1.1 only
		MaxIdleConns:           cfg.MaxIdleConns,
		MaxIdleConnsPerHost:    cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:        cfg.IdleConnTimeout,
		TLSHandshakeTimeout:    cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout:  cfg.ExpectContinueTimeout,
		MaxResponseHeaderBytes: 1 << 20,
		TLSClientConfig:        &tls.Config{InsecureSkipVerify: insecureSkipVerify}, //nolint:gosec
	}

	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("stopped after 5 redirects")
			}
			// Keep basic auth across the http -> https redirect some firmwares issue
			if user, pass, ok := via[0].BasicAuth(); ok && req.URL.Host == via[0].URL.Host {
				req.SetBasicAuth(user, pass)
			}
			log.Debugf("Redirecting: %s -> %s (hop %d)", via[len(via)-1].URL, req.URL, len(via))
			return nil
		},
	}
	log.WithField("insecure_skip_verify", insecureSkipVerify).Debug("HTTP client initialized")
	return client
}
