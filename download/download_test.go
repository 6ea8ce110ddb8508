package download

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// newDriveServer mimics the confirm-token handshake: the first request gets a
// warning page carrying the token, the confirmed request gets the archive.
func newDriveServer(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "download", r.URL.Query().Get("export"))
		require.Equal(t, "file-123", r.URL.Query().Get("id"))

		if r.URL.Query().Get("confirm") != "t0ken" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<a href="/uc?export=download&confirm=t0ken&id=file-123">Download anyway</a>`))
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestDownloader(t *testing.T, serverURL string) (*Downloader, string) {
	t.Helper()
	datadrive := t.TempDir()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	d, err := New(Options{
		Datadrive:      datadrive,
		GoogleDriveURL: serverURL,
		Client:         &http.Client{Jar: jar},
		Logger:         hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return d, datadrive
}

func Test_Downloader_GoogleDrive(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"static_data/init_rdb/000_service_metadata.csv": "service_name\nmeasurement_service\n",
		"dynamic_data/init_tsdb/strain.csv":             "time,ch1\n2023-04-01T00:00:00Z,1.5\n",
	})
	server := newDriveServer(t, archive)
	d, datadrive := newTestDownloader(t, server.URL)

	require.NoError(t, d.Download(context.Background(), "file-123", SourceGoogleDrive))

	content, err := os.ReadFile(filepath.Join(datadrive, "static_data/init_rdb/000_service_metadata.csv"))
	require.NoError(t, err)
	assert.Equal(t, "service_name\nmeasurement_service\n", string(content))

	_, err = os.Stat(filepath.Join(datadrive, "dynamic_data/init_tsdb/strain.csv"))
	require.NoError(t, err)
}

func Test_Downloader_UnknownSource(t *testing.T) {
	d, _ := newTestDownloader(t, "http://unused.invalid")

	err := d.Download(context.Background(), "file-123", "Dropbox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GoogleDrive")
}

func Test_Downloader_Manifest(t *testing.T) {
	archive := buildArchive(t, map[string]string{"marker.txt": "ok"})
	server := newDriveServer(t, archive)
	d, datadrive := newTestDownloader(t, server.URL)

	manifest := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(
		`{"data": [{"id": "file-123", "source": "GoogleDrive"}]}`), 0o644))

	require.NoError(t, d.DownloadManifest(context.Background(), manifest))

	_, err := os.Stat(filepath.Join(datadrive, "marker.txt"))
	require.NoError(t, err)
}

func Test_Downloader_Manifest_Invalid(t *testing.T) {
	d, _ := newTestDownloader(t, "http://unused.invalid")

	manifest := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`{"data": [{"id": "file-123"}]}`), 0o644))

	err := d.DownloadManifest(context.Background(), manifest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source")

	require.NoError(t, os.WriteFile(manifest, []byte(`not json`), 0o644))
	require.Error(t, d.DownloadManifest(context.Background(), manifest))
}

func Test_Unzip_RejectsEscapingEntries(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../evil.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("boom"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	src := filepath.Join(t.TempDir(), "evil.zip")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	err = unzip(src, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}
