package remote

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"campusnet/internal/models"
	"campusnet/internal/observability"
)

// StorageClient uploads objects to the hosted storage service.
type StorageClient struct {
	baseURL string
	apiKey  string
	token   TokenSource
	http    *http.Client
}

// NewStorageClient returns a storage client rooted at baseURL.
func NewStorageClient(baseURL, apiKey string, token TokenSource) *StorageClient {
	return &StorageClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		token:   token,
		http:    &http.Client{},
	}
}

// Upload stores the object under bucket/key.
func (s *StorageClient) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	op := "upload"
	ctx, span := observability.TraceRemoteCall(ctx, op, "storage."+bucket)
	defer observability.TrackRemoteCall(op, "storage."+bucket)()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(bucket, key), bytes.NewReader(data))
	if err != nil {
		observability.EndSpan(span, err)
		return models.NewRemoteError("upload "+bucket, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
	}
	if tok := s.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := s.http.Do(req)
	if err == nil && resp.StatusCode >= 300 {
		err = decodeServiceError(resp)
	}
	if err != nil {
		observability.RemoteCallErrors.WithLabelValues(op, "storage."+bucket).Inc()
		observability.EndSpan(span, err)
		return models.NewRemoteError("upload "+bucket, err)
	}
	resp.Body.Close()

	observability.StorageUploadBytes.Observe(float64(len(data)))
	observability.EndSpan(span, nil)
	return nil
}

// PublicURL returns the public URL for the object. Issuing a URL performs no
// I/O and never fails.
func (s *StorageClient) PublicURL(bucket, key string) string {
	return s.objectURL(bucket, key)
}

func (s *StorageClient) objectURL(bucket, key string) string {
	return s.baseURL + "/storage/" + bucket + "/" + key
}
