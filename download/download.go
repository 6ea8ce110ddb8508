// Package download fetches datadrive archives from external data sources and
// unpacks them in place.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-hclog"
	copier "github.com/otiai10/copy"
)

// SourceGoogleDrive names the Google Drive data source.
const SourceGoogleDrive = "GoogleDrive"

const (
	defaultGoogleDriveURL = "https://drive.google.com/uc"
	defaultTimeout        = 10 * time.Minute
	maxFetchRetries       = 4
)

// Large Google Drive files answer the first request with a virus-scan
// warning page; the confirm token comes back in a cookie or in the page.
var confirmPattern = regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`)

// Options configures a Downloader. Client and GoogleDriveURL default to a
// cookie-jar HTTP client and the public endpoint.
type Options struct {
	Datadrive      string
	GoogleDriveURL string
	Client         *http.Client
	Logger         hclog.Logger
}

// Downloader pulls archives into the datadrive.
type Downloader struct {
	datadrive      string
	googleDriveURL string
	client         *http.Client
	logger         hclog.Logger
}

func New(opts Options) (*Downloader, error) {
	if opts.Datadrive == "" {
		return nil, fmt.Errorf("datadrive path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default()
	}

	client := opts.Client
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar, Timeout: defaultTimeout}
	}

	googleDriveURL := opts.GoogleDriveURL
	if googleDriveURL == "" {
		googleDriveURL = defaultGoogleDriveURL
	}

	return &Downloader{
		datadrive:      opts.Datadrive,
		googleDriveURL: googleDriveURL,
		client:         client,
		logger:         logger.Named("download"),
	}, nil
}

// Download fetches the archive identified by dataID from the named source and
// unpacks it over the datadrive.
func (d *Downloader) Download(ctx context.Context, dataID, source string) error {
	switch source {
	case SourceGoogleDrive:
		return d.downloadFromGoogleDrive(ctx, dataID)
	}
	return fmt.Errorf("data source %q must be one of: %s", source, SourceGoogleDrive)
}

func (d *Downloader) downloadFromGoogleDrive(ctx context.Context, dataID string) error {
	archive, err := d.fetchArchive(ctx, dataID)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	staging, err := os.MkdirTemp("", "isas-download-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	if err := unzip(archive, staging); err != nil {
		return fmt.Errorf("unpack %q: %w", dataID, err)
	}

	d.logger.Info("unpacked archive", "data_id", dataID, "datadrive", d.datadrive)
	return copier.Copy(staging, d.datadrive)
}

// fetchArchive downloads the archive to a temporary file, following the
// confirm-token handshake and retrying transient failures.
func (d *Downloader) fetchArchive(ctx context.Context, dataID string) (string, error) {
	var path string
	op := func() error {
		p, err := d.fetchOnce(ctx, dataID)
		if err != nil {
			d.logger.Warn("fetch archive", "data_id", dataID, "error", err)
			return err
		}
		path = p
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("fetch %q: %w", dataID, err)
	}
	return path, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, dataID string) (string, error) {
	query := url.Values{"export": {"download"}, "id": {dataID}}

	resp, err := d.get(ctx, query)
	if err != nil {
		return "", err
	}

	if isWarningPage(resp) {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			return "", readErr
		}
		token := d.confirmToken(resp.Request.URL, body)
		if token == "" {
			return "", fmt.Errorf("no confirm token in warning page")
		}
		query.Set("confirm", token)
		if resp, err = d.get(ctx, query); err != nil {
			return "", err
		}
		if isWarningPage(resp) {
			resp.Body.Close()
			return "", fmt.Errorf("warning page returned after confirm")
		}
	}
	defer resp.Body.Close()

	f, err := os.CreateTemp("", "isas-archive-*.zip")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (d *Downloader) get(ctx context.Context, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.googleDriveURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

func (d *Downloader) confirmToken(u *url.URL, body []byte) string {
	if d.client.Jar != nil {
		for _, cookie := range d.client.Jar.Cookies(u) {
			if strings.Contains(cookie.Name, "download_warning") {
				return cookie.Value
			}
		}
	}
	if match := confirmPattern.FindSubmatch(body); match != nil {
		return string(match[1])
	}
	return ""
}

func isWarningPage(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/html")
}
