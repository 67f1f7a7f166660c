// Package netx holds small HTTP helpers shared by clients.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient is used for uploads; tests may replace it.
var HTTPClient = &http.Client{}

// UploadToS3PresignedURL PUTs size bytes from body to a presigned URL.
func UploadToS3PresignedURL(ctx context.Context, url string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	req.ContentLength = size
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
