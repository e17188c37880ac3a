// Package render converts document HTML to PDF through a Gotenberg
// instance.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"estateops/internal/core/apperror"
)

// GotenbergClient renders PDFs via Gotenberg's Chromium route.
type GotenbergClient struct {
	baseURL string
	client  *http.Client
}

// NewGotenbergClient creates the renderer client.
func NewGotenbergClient(baseURL string) *GotenbergClient {
	return &GotenbergClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// RenderPDF converts one HTML page. The page must be self-contained;
// templates inline their styling.
func (c *GotenbergClient) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write([]byte(html)); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	// A4 portrait with uniform margins.
	_ = writer.WriteField("paperWidth", "8.27")
	_ = writer.WriteField("paperHeight", "11.7")
	_ = writer.WriteField("marginTop", "0.6")
	_ = writer.WriteField("marginBottom", "0.6")
	_ = writer.WriteField("marginLeft", "0.6")
	_ = writer.WriteField("marginRight", "0.6")
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperror.NewGatewayUnavailable(fmt.Errorf("gotenberg: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperror.NewGatewayRejected(
			fmt.Sprintf("gotenberg returned %d: %s", resp.StatusCode, string(msg)),
			fmt.Sprintf("%d", resp.StatusCode))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return pdf, nil
}
