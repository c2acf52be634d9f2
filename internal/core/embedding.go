package core

import "context"

// embedSequentially is the batch embedding behavior shared by the providers:
// texts are embedded one request at a time in input order, result i is the
// vector for texts[i], and the first failure aborts the rest of the batch.
func embedSequentially(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding, err := embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, nil
}
