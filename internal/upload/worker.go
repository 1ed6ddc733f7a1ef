package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/printhaus/storefront-api/internal/obs"
	"github.com/printhaus/storefront-api/internal/resilience"
)

// Forwarder delivers queued artwork to the print collaborator's intake
// endpoint as a multipart POST.
type Forwarder struct {
	Target string
	HTTP   *resilience.HTTPClient
	Logger zerolog.Logger
}

// HandleForward processes one forwarding task. The task carries MaxRetry 0,
// so a returned error lands the task in the archive rather than a retry loop;
// the outcome metric and the log line are the operational signal.
func (f *Forwarder) HandleForward(ctx context.Context, task *asynq.Task) error {
	var p ForwardPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		f.count("error")
		return fmt.Errorf("unmarshal forward payload: %w", err)
	}

	req, err := f.buildRequest(ctx, p)
	if err != nil {
		f.count("error")
		return err
	}
	resp, err := f.HTTP.Do(ctx, req)
	if err != nil {
		f.count("error")
		f.Logger.Error().Err(err).
			Str("product_id", p.ProductID.String()).
			Str("filename", p.Filename).
			Msg("upload_forward_failed")
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.count("error")
		f.Logger.Error().
			Int("status", resp.StatusCode).
			Str("product_id", p.ProductID.String()).
			Str("filename", p.Filename).
			Msg("upload_forward_rejected")
		return fmt.Errorf("collaborator returned status %d", resp.StatusCode)
	}

	f.count("ok")
	f.Logger.Info().
		Str("product_id", p.ProductID.String()).
		Str("filename", p.Filename).
		Msg("upload_forwarded")
	return nil
}

func (f *Forwarder) buildRequest(ctx context.Context, p ForwardPayload) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", p.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(p.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("productId", p.ProductID.String()); err != nil {
		return nil, fmt.Errorf("write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Target, bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func (f *Forwarder) count(result string) {
	if obs.UploadForwardTotal != nil {
		obs.UploadForwardTotal.WithLabelValues(result).Inc()
	}
}
