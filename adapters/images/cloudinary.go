// Package images uploads school images to the external hosting provider.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/schoolbook/schoolbook/core"
	"github.com/schoolbook/schoolbook/ports"
)

// CloudinaryStore implements the ImageStore interface against Cloudinary's
// unsigned-preset upload API. The service only keeps the returned secure
// URL; raw image bytes never touch our storage.
type CloudinaryStore struct {
	cloudName    string
	uploadPreset string
	client       *http.Client
}

// NewCloudinaryStore creates an uploader for the given cloud and preset.
func NewCloudinaryStore(cloudName, uploadPreset string) *CloudinaryStore {
	return &CloudinaryStore{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload posts the file and returns the hosted URL.
func (c *CloudinaryStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("images: read file: %w", err)
	}
	if err := w.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("images: build form: %w", err)
	}

	url := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("images: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned %s", core.ErrUploadFailed, resp.Status)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", core.ErrUploadFailed, err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("%w: empty secure_url in response", core.ErrUploadFailed)
	}
	return out.SecureURL, nil
}

var _ ports.ImageStore = (*CloudinaryStore)(nil)
