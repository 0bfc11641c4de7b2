// Package summary runs the dashboard pipeline: fetch the service directory
// and statistics, build the report, render it, print it and export it.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/beamly/fastlydash/internal/config"
	"github.com/beamly/fastlydash/internal/logger"
	"github.com/beamly/fastlydash/internal/metrics"
	"github.com/beamly/fastlydash/internal/models"
	"github.com/beamly/fastlydash/internal/report"
)

const htmlContentType = "text/html"

// Fetcher is the subset of the Fastly API client the pipeline needs.
type Fetcher interface {
	ListServices(ctx context.Context) (models.ServiceDirectory, error)
	GetStats(ctx context.Context, hours int) (*models.StatsResponse, error)
}

// Store uploads the rendered dashboard.
type Store interface {
	Put(ctx context.Context, key, acl, contentType string, body []byte) error
}

type Runner struct {
	Config  *config.Config
	Fetcher Fetcher
	Store   Store
	Out     io.Writer
	Log     logger.Logger
	Now     func() time.Time
}

type Result struct {
	Report   *report.Report
	HTML     []byte
	Uploaded bool
}

// Run executes the pipeline. Fetch and render errors are fatal. The report is
// printed before any export, and export failures are only logged.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	dir, err := r.Fetcher.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching services: %w", err)
	}

	stats, err := r.Fetcher.GetStats(ctx, r.Config.Hours)
	if err != nil {
		return nil, fmt.Errorf("fetching statistics: %w", err)
	}

	rep := report.Build(dir, stats, r.Log)
	generated := now()

	var page bytes.Buffer
	if err := report.RenderHTML(&page, rep.Rows, generated, r.Config.Hours); err != nil {
		return nil, err
	}

	if err := r.print(rep); err != nil {
		return nil, fmt.Errorf("printing report: %w", err)
	}

	res := &Result{Report: rep, HTML: page.Bytes()}

	if r.Config.HTMLOut != "" {
		if err := os.WriteFile(r.Config.HTMLOut, page.Bytes(), 0644); err != nil {
			r.Log.Warnw("writing dashboard failed", "path", r.Config.HTMLOut, "error", err)
		} else {
			r.Log.Infow("wrote dashboard", "path", r.Config.HTMLOut)
		}
	}

	if r.Config.UploadEnabled() {
		res.Uploaded = r.upload(ctx, page.Bytes())
	}

	if r.Config.MetricsFile != "" {
		if err := metrics.WriteTextfile(r.Config.MetricsFile, rep.Rows, generated); err != nil {
			r.Log.Warnw("metrics export failed", "path", r.Config.MetricsFile, "error", err)
		} else {
			r.Log.Infow("wrote metrics textfile", "path", r.Config.MetricsFile)
		}
	}

	return res, nil
}

func (r *Runner) print(rep *report.Report) error {
	if r.Config.Output == config.OutputJSON {
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep.Sorted())
	}
	return rep.WriteTable(r.Out)
}

func (r *Runner) upload(ctx context.Context, page []byte) bool {
	if r.Store == nil {
		r.Log.Warnw("upload requested but no object store configured", "bucket", r.Config.Bucket)
		return false
	}

	dest := fmt.Sprintf("s3://%s/%s", r.Config.Bucket, r.Config.Filename)
	r.Log.Infow("writing dashboard", "destination", dest, "acl", string(r.Config.ACL))

	if err := r.Store.Put(ctx, r.Config.Filename, string(r.Config.ACL), htmlContentType, page); err != nil {
		r.Log.Warnw("upload failed", "destination", dest, "error", err)
		return false
	}
	return true
}
