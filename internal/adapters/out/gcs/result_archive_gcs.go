// internal/adapters/out/gcs/result_archive_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"

	mintdom "github.com/x1Brains/x1devtoolkit/internal/domain/mint"
)

// ResultArchiveGCS uploads the aggregate result file after each run.
//
// layout:
// - <prefix>/<network>/<yyyyMMddTHHmmssZ>-deployed-mints.json (immutable, one per run)
// - <prefix>/<network>/latest.json                            (overwritten)
type ResultArchiveGCS struct {
	Client  *storage.Client
	Bucket  string
	Prefix  string
	Network string
}

func NewResultArchiveGCS(client *storage.Client, bucket, prefix, network string) *ResultArchiveGCS {
	return &ResultArchiveGCS{
		Client:  client,
		Bucket:  strings.TrimSpace(bucket),
		Prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
		Network: strings.TrimSpace(network),
	}
}

func (a *ResultArchiveGCS) NotifyReport(ctx context.Context, r mintdom.Report) error {
	if a == nil || a.Client == nil {
		return errors.New("result_archive_gcs: storage client is nil")
	}
	if a.Bucket == "" {
		return errors.New("result_archive_gcs: bucket is empty")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return errors.New("result_archive_gcs: report has no output path")
	}
	// 成功 0 件の run は前回の aggregate がそのまま残っているだけなので archive しない
	if len(r.Succeeded()) == 0 {
		log.Printf("[gcs] no mints provisioned; archive skipped")
		return nil
	}

	data, err := os.ReadFile(r.OutputPath)
	if err != nil {
		return fmt.Errorf("result_archive_gcs: read %s: %w", r.OutputPath, err)
	}

	runObj, latestObj := a.objectPaths(r)
	bh := a.Client.Bucket(a.Bucket)

	// run ごとのオブジェクトは作成のみ（既存なら上書きしない）
	if err := upload(ctx, bh.Object(runObj).If(storage.Conditions{DoesNotExist: true}), data, "no-store"); err != nil {
		return fmt.Errorf("result_archive_gcs: upload %s: %w", runObj, err)
	}
	if err := upload(ctx, bh.Object(latestObj), data, "no-cache"); err != nil {
		return fmt.Errorf("result_archive_gcs: upload %s: %w", latestObj, err)
	}

	log.Printf("[gcs] aggregate archived bucket=%q object=%q", a.Bucket, runObj)
	return nil
}

func (a *ResultArchiveGCS) objectPaths(r mintdom.Report) (run, latest string) {
	network := a.Network
	if network == "" {
		network = "default"
	}
	base := path.Join(a.Prefix, network)
	stamp := r.StartedAt.UTC().Format("20060102T150405Z")
	return path.Join(base, stamp+"-deployed-mints.json"), path.Join(base, "latest.json")
}

func upload(ctx context.Context, oh *storage.ObjectHandle, data []byte, cacheControl string) error {
	w := oh.NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = cacheControl

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
