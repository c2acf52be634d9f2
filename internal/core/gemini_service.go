package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiChatModel      = "gemini-1.5-flash-latest"
	defaultGeminiEmbeddingModel = "text-embedding-004"
)

// GeminiService is the default LLM implementation, backed by Google's
// generative AI API.
type GeminiService struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func NewGeminiService(ctx context.Context, apiKey, chatModel, embeddingModel string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if chatModel == "" {
		chatModel = defaultGeminiChatModel
	}
	if embeddingModel == "" {
		embeddingModel = defaultGeminiEmbeddingModel
	}

	return &GeminiService{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

func (s *GeminiService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *GeminiService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embedding request failed: %v", ErrEmbeddingUnavailable, err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: no embedding data received from gemini", ErrEmbeddingUnavailable)
	}
	return res.Embedding.Values, nil
}

// GetEmbeddings embeds each text independently and sequentially, preserving
// order. The first failure aborts; earlier results are discarded by this
// method but any persistence of them is the caller's concern.
func (s *GeminiService) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return embedSequentially(ctx, texts, s.GetEmbedding)
}

func (s *GeminiService) GetChatCompletion(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.chatModel)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini generation request failed: %v", ErrGenerationUnavailable, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini response had no candidates", ErrGenerationUnavailable)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("%w: gemini response contained no text parts", ErrGenerationUnavailable)
	}

	return responseText.String(), nil
}
