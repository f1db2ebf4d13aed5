package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
)

// Extract implements extract.Extractor with a single vision chat/completions call.
// Images go in as image_url parts and PDFs as file parts, both as data URLs.
func (c *Client) Extract(ctx context.Context, doc extract.Document) (extract.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	mime, err := extract.Inspect(doc, c.cfg.MaxPages)
	if err != nil {
		c.logger.Warn("extract.openai.rejected", "req_id", rid, "file", doc.Filename, "error", err)
		return extract.Result{}, err
	}

	c.logger.Info("extract.openai.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"file", doc.Filename,
		"mime", mime,
		"bytes", len(doc.Content),
	)

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(doc.Content)
	var filePart map[string]any
	if mime == "application/pdf" {
		filePart = map[string]any{
			"type": "file",
			"file": map[string]any{"filename": doc.Filename, "file_data": dataURL},
		}
	} else {
		filePart = map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": dataURL, "detail": "high"},
		}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": extract.SystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": extract.UserPrompt(doc.Filename)},
				filePart,
			}},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("extract.openai.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Result{}, extract.Classify(ctx, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("extract.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Result{}, extract.Errorf(extract.KindProviderError, "decode openai response: %v", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("extract.openai.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Result{}, extract.Errorf(extract.KindProviderError, "no choices in openai response")
	}

	res, err := extract.ParseReply(cc.Choices[0].Message.Content, c.cfg.Model, c.logger)
	if err != nil {
		c.logger.Error("extract.openai.parse_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Result{}, err
	}

	c.logger.Info("extract.openai.ok",
		"req_id", rid,
		"file", doc.Filename,
		"filled", res.Fields.Filled(),
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// StatusError is a non-2xx reply from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := buf.String()
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	return buf.Bytes(), nil
}
