package download

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/tidwall/gjson"
)

// DownloadManifest fetches every entry of a manifest file. The manifest is a
// JSON document of the form:
//
//	{"data": [{"id": "<data id>", "source": "GoogleDrive"}, ...]}
//
// Entries are fetched in order; failures do not stop the remaining entries.
func (d *Downloader) DownloadManifest(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("manifest %s: invalid JSON", path)
	}

	entries := gjson.GetBytes(raw, "data")
	if !entries.IsArray() {
		return fmt.Errorf("manifest %s: missing data list", path)
	}

	var merr *multierror.Error
	for i, entry := range entries.Array() {
		dataID := entry.Get("id").String()
		source := entry.Get("source").String()
		if dataID == "" || source == "" {
			merr = multierror.Append(merr, fmt.Errorf("manifest entry %d: id and source are required", i))
			continue
		}
		if err := d.Download(ctx, dataID, source); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("manifest entry %d: %w", i, err))
		}
	}
	return merr.ErrorOrNil()
}
