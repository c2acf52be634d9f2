package core

import (
	"context"
	"fmt"
	"log"

	"talentlens.io/resume-chat/internal/store"
	"talentlens.io/resume-chat/internal/utils"
)

// IngestService drives the document pipeline: download, extract text, chunk,
// then embed and store each chunk in order.
type IngestService struct {
	files      FileStore
	extractor  TextExtractor
	llm        LLM
	chunkStore ChunkStore
	chunkSize  int
}

func NewIngestService(files FileStore, extractor TextExtractor, llm LLM, chunkStore ChunkStore, chunkSize int) *IngestService {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	return &IngestService{
		files:      files,
		extractor:  extractor,
		llm:        llm,
		chunkStore: chunkStore,
		chunkSize:  chunkSize,
	}
}

// ProcessDocument runs the ingestion pipeline end to end and returns the
// number of chunks persisted. Chunk i+1 is not embedded until chunk i is
// stored. There is no rollback: a mid-pipeline failure returns the count of
// chunks already persisted alongside the error, so callers can report partial
// progress instead of hiding it.
func (s *IngestService) ProcessDocument(ctx context.Context, filePath, fileName, userID string) (int, error) {
	data, err := s.files.Download(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to download file %s: %w", filePath, err)
	}

	text, err := s.extractor.ExtractText(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	chunks := utils.ChunkText(text, s.chunkSize)
	log.Printf("Extracted %d characters from %s, split into %d chunks", len(text), fileName, len(chunks))

	processed := 0
	for i, content := range chunks {
		embedding, err := s.llm.GetEmbedding(ctx, content)
		if err != nil {
			return processed, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}

		chunk := store.DocumentChunk{
			UserID:    userID,
			FileName:  fileName,
			Content:   content,
			Embedding: embedding,
		}
		if err := s.chunkStore.InsertChunk(&chunk); err != nil {
			return processed, fmt.Errorf("chunk %d/%d: %w: %v", i+1, len(chunks), ErrStoreUnavailable, err)
		}
		processed++
	}

	return processed, nil
}
