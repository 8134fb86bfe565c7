// Package usecases - answer.go runs the retrieval-augmented answer pipeline.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
	"github.com/0xcro3dile/campuschat-go/internal/domain/ports"
)

// FallbackUtterance is what the webhook action answers when the pipeline
// fails upstream. A broken embedding or completion call must never crash
// the exchange for the end user.
const FallbackUtterance = "Sorry, I can't look that up right now. Please try again in a moment or check the official university website."

// AnswerUseCase turns a question into a grounded answer: embed the query,
// search the index, assemble bounded context, generate, attach sources.
type AnswerUseCase struct {
	embedder   ports.EmbeddingService
	index      ports.VectorIndex
	meta       ports.MetadataStore
	completion ports.CompletionService
	topK       int
	university string
}

// NewAnswerUseCase creates an AnswerUseCase with injected dependencies.
func NewAnswerUseCase(
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	meta ports.MetadataStore,
	completion ports.CompletionService,
	topK int,
	university string,
) *AnswerUseCase {
	if topK <= 0 {
		topK = 5
	}
	if university == "" {
		university = "Kwantlen Polytechnic University (KPU)"
	}
	return &AnswerUseCase{
		embedder:   embedder,
		index:      index,
		meta:       meta,
		completion: completion,
		topK:       topK,
		university: university,
	}
}

// VerifyAlignment confirms the index and metadata artifacts came from the
// same ingestion pass. Serving must not start while they disagree.
func VerifyAlignment(index ports.VectorIndex, meta ports.MetadataStore) error {
	if index.Len() != meta.Len() {
		return &entities.IndexIntegrityError{IndexLen: index.Len(), MetaLen: meta.Len()}
	}
	return nil
}

// Answer produces a grounded answer for the question, with a deduplicated
// Sources block appended when any retrieved chunk carried a url.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", entities.ErrEmptyMessage
	}

	vec, err := uc.embedder.Embed(ctx, question)
	if err != nil {
		return "", &entities.UpstreamError{Op: "embed", Err: err}
	}

	hits, err := uc.index.Search(vec, uc.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}

	rc, err := AssembleContext(hits, uc.meta)
	if err != nil {
		return "", fmt.Errorf("assembling context: %w", err)
	}

	answer, err := uc.completion.Complete(ctx, uc.buildPrompt(question, rc.Joined))
	if err != nil {
		return "", &entities.UpstreamError{Op: "complete", Err: err}
	}

	answer = strings.TrimSpace(answer)
	if len(rc.Sources) > 0 {
		answer += "\n\nSources:\n" + strings.Join(rc.Sources, "\n")
	}
	return answer, nil
}

// buildPrompt creates the grounded instruction: answer only from the
// retrieved context, admit uncertainty otherwise.
func (uc *AnswerUseCase) buildPrompt(question, context string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant for ")
	sb.WriteString(uc.university)
	sb.WriteString(".\n\nAnswer ONLY using the context below.\n")
	sb.WriteString("If the answer is not found in the context, say you don't know and suggest checking the official ")
	sb.WriteString(uc.university)
	sb.WriteString(" website.\n\nQuestion:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(context)
	return sb.String()
}
