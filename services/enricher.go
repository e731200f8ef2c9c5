package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"printscout/models"
	"printscout/taxonomy"
	"printscout/utils"
)

// maxDescriptionLen caps how much of the source description is sent to
// the rewrite prompt.
const maxDescriptionLen = 1000

// maxInlineImageBytes caps the size of an image fetched for the
// base64 data-URL fallback.
const maxInlineImageBytes = 10 << 20

// chatClient is the slice of the OpenAI client the enricher needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Enricher runs the three AI steps over a raw listing: description
// rewrite, subcategory classification and image tag generation. Each step
// is an independent model call; a step that yields nothing usable
// degrades to a safe default instead of failing the listing.
type Enricher struct {
	client      chatClient
	tax         *taxonomy.Taxonomy
	logger      *utils.Logger
	textModel   string
	visionModel string
	httpClient  *http.Client
}

// NewEnricher creates an Enricher backed by the OpenAI API.
func NewEnricher(apiKey, textModel, visionModel string, tax *taxonomy.Taxonomy, logger *utils.Logger) *Enricher {
	return &Enricher{
		client:      openai.NewClient(apiKey),
		tax:         tax,
		logger:      logger,
		textModel:   textModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Enrich produces the enriched form of a raw listing. It never returns an
// error: failed steps fall back to the original description, the reserved
// Other category pair, or an empty tag list.
func (e *Enricher) Enrich(ctx context.Context, raw *models.RawListing) *models.EnrichedListing {
	enriched := &models.EnrichedListing{
		RawListing: *raw,
		PriceValue: ParsePrice(raw.Price),
	}

	desc, err := e.RewriteDescription(ctx, raw.Title, raw.Description, raw.SourceURL)
	if err != nil || desc == "" {
		e.logger.Warn("[enrich] description rewrite failed for %s: %v — keeping original", raw.SourceURL, err)
	} else {
		enriched.Description = desc
	}

	sub, err := e.ClassifySubcategory(ctx, raw.Title, enriched.Description)
	if err != nil {
		e.logger.Warn("[enrich] classification failed for %s: %v — using %s", raw.SourceURL, err, taxonomy.Other)
		sub = ""
	}
	enriched.Category, enriched.Subcategory = e.tax.Resolve(sub)

	tags, err := e.GenerateImageTags(ctx, raw.PrimaryImageURL())
	if err != nil {
		e.logger.Warn("[enrich] tag generation failed for %s: %v — keeping source tags", raw.SourceURL, err)
		tags = nil
	}
	enriched.Tags = mergeTags(raw.Tags, tags)

	return enriched
}

// RewriteDescription asks the text model for a concise promotional
// rewrite of the source description.
func (e *Enricher) RewriteDescription(ctx context.Context, title, description, sourceURL string) (string, error) {
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}

	prompt := fmt.Sprintf(
		"You rewrite 3D printable model descriptions.\n"+
			"Title: %s\nDescription: %s\nSource URL: %s\n\n"+
			"Rewrite the description as a short, enticing, plain-text product "+
			"description. Respond with the rewritten text only, no headers and "+
			"no formatting.",
		title, description, sourceURL)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.textModel,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("enrich: rewrite: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("enrich: rewrite: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ClassifySubcategory asks the text model to pick exactly one entry from
// the closed vocabulary. The answer is returned as-is; callers validate
// it through the taxonomy, so an inventive model can only ever land on
// the Other pair.
func (e *Enricher) ClassifySubcategory(ctx context.Context, title, description string) (string, error) {
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}

	prompt := fmt.Sprintf(
		"Classify this 3D model listing.\nTitle: %s\nDescription: %s\n\n"+
			"Choose exactly one subcategory from this list and copy it "+
			"character for character (case-sensitive, do NOT modify or invent):\n%s\n\n"+
			"Anything not on the list will be discarded. Respond with the "+
			"chosen subcategory only.",
		title, description, strings.Join(e.tax.Subcategories(), ", "))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.textModel,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("enrich: classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("enrich: classify: empty response")
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	return strings.Trim(answer, `"'`), nil
}

// GenerateImageTags asks the vision model for 10-15 descriptive tags for
// the depicted object. If the call fails with the public URL (some sites
// block hotlinking), the image is fetched and retried inline as a base64
// data URL. An unusable response yields an empty list.
func (e *Enricher) GenerateImageTags(ctx context.Context, imageURL string) ([]string, error) {
	if imageURL == "" {
		return nil, nil
	}

	content, err := e.tagImage(ctx, imageURL)
	if err != nil {
		dataURL, fetchErr := e.inlineImage(ctx, imageURL)
		if fetchErr != nil {
			return nil, fmt.Errorf("enrich: tags: %w (inline fallback: %v)", err, fetchErr)
		}
		content, err = e.tagImage(ctx, dataURL)
		if err != nil {
			return nil, fmt.Errorf("enrich: tags: %w", err)
		}
	}

	return ParseTagList(content), nil
}

func (e *Enricher) tagImage(ctx context.Context, imageURL string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Generate 10-15 short descriptive tags for the object " +
							"shown in this image. Tag the depicted object only — ignore " +
							"background and environment. Respond with a JSON array of strings.",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// inlineImage fetches the image and encodes it as a data URL.
func (e *Enricher) inlineImage(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxInlineImageBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

// mergeTags combines source tags with generated tags, dropping
// duplicates case-insensitively while keeping first-seen order.
func mergeTags(source, generated []string) []string {
	seen := make(map[string]struct{}, len(source)+len(generated))
	merged := make([]string, 0, len(source)+len(generated))

	for _, t := range append(append([]string{}, source...), generated...) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, t)
	}
	return merged
}
