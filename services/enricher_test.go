package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printscout/models"
	"printscout/taxonomy"
	"printscout/utils"
)

// stubChat scripts one response (or error) per call, in order.
type stubChat struct {
	responses []string
	errs      []error
	calls     int
	requests  []openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := s.calls
	s.calls++
	s.requests = append(s.requests, req)

	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}

	content := ""
	if i < len(s.responses) {
		content = s.responses[i]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func testEnricher(client chatClient) *Enricher {
	return &Enricher{
		client:      client,
		tax:         taxonomy.Static(),
		logger:      utils.NewLogger(),
		textModel:   "test-text",
		visionModel: "test-vision",
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestEnrichHappyPath(t *testing.T) {
	stub := &stubChat{responses: []string{
		"A lovely hand-finished vase for any desk.",
		"Vases",
		"```json\n[\"vase\",\"ceramic\",\"decor\"]\n```",
	}}
	e := testEnricher(stub)

	raw := &models.RawListing{
		Title:     "Spiral Vase",
		Tags:      []string{"vase", "spiral"},
		Images:    []models.ImagePair{{Full: "https://img.example/full.jpg", Thumb: "https://img.example/thumb.jpg"}},
		Price:     "Free",
		SourceURL: "https://example.com/model/1",
	}

	enriched := e.Enrich(context.Background(), raw)

	assert.Equal(t, "A lovely hand-finished vase for any desk.", enriched.Description)
	assert.Equal(t, "Home & Living", enriched.Category)
	assert.Equal(t, "Vases", enriched.Subcategory)
	// source tags first, generated appended, "vase" deduped
	assert.Equal(t, []string{"vase", "spiral", "ceramic", "decor"}, enriched.Tags)
	assert.True(t, enriched.PriceValue.Valid)
	assert.Equal(t, float64(0), enriched.PriceValue.Amount)
}

func TestEnrichOutOfVocabularyClassification(t *testing.T) {
	stub := &stubChat{responses: []string{
		"rewritten",
		"Spaceships", // not in the vocabulary
		`["a"]`,
	}}
	e := testEnricher(stub)

	enriched := e.Enrich(context.Background(), &models.RawListing{Title: "X", SourceURL: "u"})

	assert.Equal(t, taxonomy.Other, enriched.Category)
	assert.Equal(t, taxonomy.Other, enriched.Subcategory)
}

func TestEnrichDegradesOnStepFailures(t *testing.T) {
	boom := errors.New("api down")
	stub := &stubChat{errs: []error{boom, boom, boom}}
	e := testEnricher(stub)

	raw := &models.RawListing{
		Title:       "Widget",
		Description: "original text",
		Tags:        []string{"widget"},
		SourceURL:   "https://example.com/model/2",
	}
	enriched := e.Enrich(context.Background(), raw)

	assert.Equal(t, "original text", enriched.Description)
	assert.Equal(t, taxonomy.Other, enriched.Category)
	assert.Equal(t, []string{"widget"}, enriched.Tags)
}

func TestClassifyStripsQuotes(t *testing.T) {
	stub := &stubChat{responses: []string{`"Drones"`}}
	e := testEnricher(stub)

	sub, err := e.ClassifySubcategory(context.Background(), "Quad frame", "")
	require.NoError(t, err)
	assert.Equal(t, "Drones", sub)
}

func TestGenerateImageTagsInlineFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	stub := &stubChat{
		errs:      []error{errors.New("hotlink blocked"), nil},
		responses: []string{"", `["tag1","tag2"]`},
	}
	e := testEnricher(stub)
	e.httpClient = srv.Client()

	tags, err := e.GenerateImageTags(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"tag1", "tag2"}, tags)

	// second request must carry the inlined data URL, not the public one
	require.Len(t, stub.requests, 2)
	part := stub.requests[1].Messages[0].MultiContent[1]
	assert.True(t, strings.HasPrefix(part.ImageURL.URL, "data:image/png;base64,"))
}

func TestGenerateImageTagsEmptyURL(t *testing.T) {
	e := testEnricher(&stubChat{})

	tags, err := e.GenerateImageTags(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
