// Package storage 将结果文件上传到对象存储.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/wyfcoding/marketsim/retry"
)

// Storage 发布结果文件所需的对象存储操作.
type Storage interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

const (
	// CSVContentType 结果文件的 Content-Type.
	CSVContentType = "text/csv"
	// LinkExpiry 下载链接有效期，S3 签名上限为 7 天.
	LinkExpiry = 7 * 24 * time.Hour
)

// ObjectName 扫描结果的对象名：sweeps/<strategy>/<yyyy-mm-dd>/<runID>.csv.
func ObjectName(strategy string, runID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("sweeps/%s/%s/%s.csv", strategy, at.UTC().Format(time.DateOnly), runID)
}

// UploadCSV 上传内存中的 CSV 内容，瞬时失败按默认策略重试.
func UploadCSV(ctx context.Context, st Storage, objectName string, data []byte) error {
	return retry.Do(ctx, retry.DefaultPolicy(), func(ctx context.Context) error {
		return st.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), CSVContentType)
	})
}

// PublishCSV 上传 CSV 并返回限时下载链接.
func PublishCSV(ctx context.Context, st Storage, objectName string, data []byte) (string, error) {
	if err := UploadCSV(ctx, st, objectName, data); err != nil {
		return "", err
	}
	return st.GetPresignedURL(ctx, objectName, LinkExpiry)
}
