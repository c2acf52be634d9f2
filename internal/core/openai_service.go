package core

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIChatModel = "gpt-4o-mini"

// OpenAIService is an alternate LLM implementation, selected with
// LLM_PROVIDER=openai.
type OpenAIService struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
}

func NewOpenAIService(apiKey, chatModel, embeddingModel string) (*OpenAIService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if chatModel == "" {
		chatModel = defaultOpenAIChatModel
	}
	model := openai.SmallEmbedding3
	if embeddingModel != "" {
		model = openai.EmbeddingModel(embeddingModel)
	}

	return &OpenAIService{
		client:         openai.NewClient(apiKey),
		chatModel:      chatModel,
		embeddingModel: model,
	}, nil
}

func (s *OpenAIService) Close() error { return nil }

func (s *OpenAIService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: s.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embedding request failed: %v", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding data received from openai", ErrEmbeddingUnavailable)
	}
	return resp.Data[0].Embedding, nil
}

func (s *OpenAIService) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	return embedSequentially(ctx, texts, s.GetEmbedding)
}

func (s *OpenAIService) GetChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: openai completion request failed: %v", ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai response had no choices", ErrGenerationUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
