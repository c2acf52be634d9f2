package core

import (
	"context"
	"fmt"
	"strings"
)

const defaultMatchCount = 5

// The output contract (plain text, no placeholders, fixed summary sections)
// is enforced by instruction only; the model's reply is not validated.
const ragPromptTemplate = `You are a professional resume analyst and career assistant.

Using the DOCUMENT CONTEXT and CONVERSATION below, generate a structured response.

Rules:
- Do NOT use markdown symbols like ### or **
- Write clean plain text
- Replace the template sections with actual content from the resume
- Do NOT return placeholders like "<short paragraph>" or "skill 1"
- Fill everything with real information from the documents

If the user asks for a summary, respond in this exact structure:

Professional Summary:
Write a concise 3-4 sentence summary of the candidate based on the resume.

Key Skills:
List the main technical skills mentioned in the resume.

Experience Highlights:
List 2-4 strong career highlights from the resume.

DOCUMENT CONTEXT:
%s

CONVERSATION:
%s`

// RAGContext is one retrieved chunk handed to prompt composition.
type RAGContext struct {
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// ChatMessage is a single conversation turn as seen at the API boundary.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RAGService struct {
	llm        LLM
	chunkStore ChunkStore
	matchCount int
}

func NewRAGService(llm LLM, chunkStore ChunkStore, matchCount int) *RAGService {
	if matchCount <= 0 {
		matchCount = defaultMatchCount
	}
	return &RAGService{
		llm:        llm,
		chunkStore: chunkStore,
		matchCount: matchCount,
	}
}

// RetrieveRelevantChunks embeds the query and returns the user's k most
// similar stored chunks, best first. A user with no stored chunks gets an
// empty result, not an error. k <= 0 selects the configured default.
func (s *RAGService) RetrieveRelevantChunks(ctx context.Context, query, userID string, k int) ([]RAGContext, error) {
	if k <= 0 {
		k = s.matchCount
	}

	queryEmbedding, err := s.llm.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := s.chunkStore.NearestNeighbors(queryEmbedding, userID, k)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest neighbor search failed: %v", ErrStoreUnavailable, err)
	}

	contexts := make([]RAGContext, 0, len(scored))
	for _, sc := range scored {
		contexts = append(contexts, RAGContext{Content: sc.Chunk.Content, Similarity: sc.Similarity})
	}
	return contexts, nil
}

// BuildRAGPrompt renders the conversation as "role: content" lines and embeds
// it with the retrieved document context in the instructional template.
func BuildRAGPrompt(docContext string, messages []ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	conversation := strings.Join(lines, "\n")

	return fmt.Sprintf(ragPromptTemplate, docContext, conversation)
}

// GenerateResponse runs the full query pipeline: retrieve context for the last
// message, compose the prompt, and return the model's completion.
func (s *RAGService) GenerateResponse(ctx context.Context, messages []ChatMessage, userID string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}
	query := messages[len(messages)-1].Content

	chunks, err := s.RetrieveRelevantChunks(ctx, query, userID, 0)
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}
	docContext := strings.Join(contents, "\n\n")

	prompt := BuildRAGPrompt(docContext, messages)
	return s.llm.GetChatCompletion(ctx, prompt)
}
