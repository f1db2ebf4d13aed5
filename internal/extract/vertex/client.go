package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
)

type Config struct {
	Project  string
	Location string
	Model    string
	MaxPages int
}

// Client extracts biodata with a Gemini model on Vertex AI. The document is sent inline.
type Client struct {
	cfg    Config
	base   *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" || cfg.Location == "" {
		return nil, fmt.Errorf("vertex: project and location cannot be empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if logger == nil {
		logger = slog.Default()
	}
	base, err := genai.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := base.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extract.SystemPrompt())},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	return &Client{cfg: cfg, base: base, model: model, logger: logger}, nil
}

func (c *Client) Extract(ctx context.Context, doc extract.Document) (extract.Result, error) {
	start := time.Now()
	mime, err := extract.Inspect(doc, c.cfg.MaxPages)
	if err != nil {
		return extract.Result{}, err
	}

	resp, err := c.model.GenerateContent(ctx,
		genai.Blob{MIMEType: mime, Data: doc.Content},
		genai.Text(extract.UserPrompt(doc.Filename)),
	)
	if err != nil {
		c.logger.Error("extract.vertex.generate_failed",
			"file", doc.Filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return extract.Result{}, extract.Classify(ctx, fmt.Errorf("gemini generate: %w", err))
	}

	text := responseText(resp)
	if text == "" {
		return extract.Result{}, extract.Errorf(extract.KindProviderError, "empty gemini response")
	}
	res, err := extract.ParseReply(text, c.cfg.Model, c.logger)
	if err != nil {
		return extract.Result{}, err
	}
	c.logger.Info("extract.vertex.ok",
		"file", doc.Filename,
		"filled", res.Fields.Filled(),
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}
