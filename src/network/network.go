package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"yield-dashboard/src/helpers"
	"yield-dashboard/src/interfaces"
	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Logger       *logger.Logger
	// BackoffUnit scales the quadratic wait between attempts.
	BackoffUnit time.Duration
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log),
		Logger:       log,
		BackoffUnit:  time.Second,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

// createClient builds the single shared client. Its transport asks the proxy
// manager on every new connection, so rotation never replaces the client.
func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nm.currentProxy

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) currentProxy(req *http.Request) (*url.URL, error) {
	if !nm.ProxyManager.HasProxies() {
		return http.ProxyFromEnvironment(req)
	}
	proxyStr, err := nm.ProxyManager.GetCurrentProxy()
	if err != nil || proxyStr == "" {
		return nil, err
	}
	return url.Parse(proxyStr)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}
	nm.ProxyManager.RotateProxy()
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, helpers.NewNetworkError(finalURL, ctx.Err())
			case <-time.After(time.Duration(i*i) * nm.BackoffUnit):
			}
			nm.rotateProxy()
		}

		body, status, err := nm.do(ctx, finalURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, helpers.NewNetworkError(finalURL, ctx.Err())
			}
			lastErr = err
			nm.Logger.Info("Request failed (attempt %d/%d): %v", i+1, maxRetries+1, err)
			continue
		}

		switch {
		case status == http.StatusTooManyRequests || status == http.StatusForbidden:
			lastErr = fmt.Errorf("blocked (status %d)", status)
			nm.Logger.Info("Request blocked (%d). Rotating proxy.", status)
			continue
		case status != http.StatusOK:
			lastErr = fmt.Errorf("bad status: %d", status)
			nm.Logger.Info("Bad status %d for %s", status, reqURL.Path)
			continue
		}

		return body, nil
	}

	return nil, helpers.NewNetworkError(finalURL, fmt.Errorf("max retries exceeded: %w", lastErr))
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
