// Package gemini implements integration with Google's Gemini AI API.
// It provides page summarization for link previews and structured newsletter
// curation.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/makerletter/internal/config"
)

// CuratedLink is one link the model selected, referencing a numbered link
// label in the rendered context.
type CuratedLink struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LinkNumber  int    `json:"link_number"`
}

// CuratedGroup is a titled section of related links.
type CuratedGroup struct {
	Title string        `json:"title"`
	Links []CuratedLink `json:"links"`
}

// Curation is the model's structured newsletter proposal.
type Curation struct {
	Intro  string         `json:"intro"`
	Groups []CuratedGroup `json:"groups"`
}

// Client defines the AI operations used by the pipeline.
type Client interface {
	// Summarize condenses page text into 2-3 sentences. An empty result
	// means the model found nothing worth summarizing.
	Summarize(ctx context.Context, text string) (string, error)

	// Curate turns rendered chat contexts into a structured newsletter
	// proposal.
	Curate(ctx context.Context, renderedContexts string) (*Curation, error)
}

type sdkClient struct {
	genaiClient      *genai.Client
	log              *slog.Logger
	contentConfig    *genai.GenerateContentConfig
	defaultModelName string
	communityName    string
	maxRetries       int
	retryDelay       time.Duration
}

// NewClient creates a new Gemini AI client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	baseCfg := &genai.GenerateContentConfig{
		Temperature: &cfg.Temperature,
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient:      gi,
		log:              logger,
		contentConfig:    baseCfg,
		defaultModelName: cfg.Model,
		communityName:    cfg.CommunityName,
		maxRetries:       cfg.MaxRetries,
		retryDelay:       time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.defaultModelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		c.log.WarnContext(ctx, "Gemini API call failed, checking for retry", "attempt", i+1, "max_retries", c.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.InfoContext(ctx, "Retrying Gemini API call", "delay", c.retryDelay, "code", apiErr.Code)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(c.retryDelay):
				}
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (APIError code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func (c *sdkClient) Summarize(ctx context.Context, text string) (string, error) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return "", nil
	}

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{Text: SummarySystemInstruction}},
	}

	contents := []*genai.Content{genai.NewContentFromText(clean, genai.RoleUser)}

	resp, err := c.generateContentWithRetries(ctx, contents, &copyCfg)
	if err != nil {
		return "", fmt.Errorf("failed to summarize page text: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

var curatedLinkSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString, Description: "Short title for the link."},
		"description": {Type: genai.TypeString, Description: "Factual description enriched with the community's reaction."},
		"link_number": {Type: genai.TypeInteger, Description: "The [link #N] label this entry refers to."},
	},
	Required: []string{"title", "description", "link_number"},
}

var curationSchema = &genai.Schema{
	Type:        genai.TypeObject,
	Description: "A newsletter proposal: an intro sentence and groups of related links.",
	Properties: map[string]*genai.Schema{
		"intro": {Type: genai.TypeString, Description: "Short intro sentence summarizing the main themes."},
		"groups": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title": {Type: genai.TypeString, Description: "Concise sentence-case section title."},
					"links": {Type: genai.TypeArray, Items: curatedLinkSchema},
				},
				Required: []string{"title", "links"},
			},
		},
	},
	Required: []string{"intro", "groups"},
}

func (c *sdkClient) Curate(ctx context.Context, renderedContexts string) (*Curation, error) {
	c.log.DebugContext(ctx, "Curating newsletter", "context_bytes", len(renderedContexts))

	copyCfg := *c.contentConfig
	copyCfg.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{Text: fmt.Sprintf(CurationSystemInstruction, c.communityName)}},
	}
	copyCfg.ResponseMIMEType = "application/json"
	copyCfg.ResponseSchema = curationSchema

	contents := []*genai.Content{
		genai.NewContentFromText(CurationUserPreamble+renderedContexts, genai.RoleUser),
	}

	resp, err := c.generateContentWithRetries(ctx, contents, &copyCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini curation API call failed", "error", err)
		return nil, fmt.Errorf("failed to curate newsletter: %w", err)
	}

	jsonText, err := extractText(resp)
	if err != nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
			c.log.ErrorContext(ctx, "Gemini curation blocked", "reason", resp.PromptFeedback.BlockReason, "message", resp.PromptFeedback.BlockReasonMessage)
			return nil, fmt.Errorf("gemini curation blocked: %s", resp.PromptFeedback.BlockReasonMessage)
		}
		return nil, fmt.Errorf("failed to extract curation response: %w", err)
	}

	var curation Curation
	if err := json.Unmarshal([]byte(jsonText), &curation); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse curation JSON from Gemini response", "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid curation JSON received: %w", err)
	}

	c.log.InfoContext(ctx, "Curation complete", "groups", len(curation.Groups))
	return &curation, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("request blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("model returned no content, finish reason: %s", finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model returned empty text")
	}
	return text, nil
}
