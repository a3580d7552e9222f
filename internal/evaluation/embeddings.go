package evaluation

import (
	"context"
	"fmt"

	"github.com/hyperjump/lexilaw/internal/embedding"
	"github.com/hyperjump/lexilaw/pkg/utils"
)

// MaxHumanScore is the top of the STS similarity scale.
const MaxHumanScore = 5.0

// SimilarityPair is two sentences and a human similarity score on a 0-5 scale.
type SimilarityPair struct {
	Sentence1 string  `json:"sentence1"`
	Sentence2 string  `json:"sentence2"`
	Score     float64 `json:"score"`
}

// SimilarityRow is one scored pair.
type SimilarityRow struct {
	Sentence1  string  `json:"sentence1"`
	Sentence2  string  `json:"sentence2"`
	HumanScore float64 `json:"human_score"`
	Cosine     float64 `json:"cosine_similarity"`
}

// EmbeddingReport compares embedding similarity with human judgement.
type EmbeddingReport struct {
	Rows []SimilarityRow `json:"rows"`
	// Pearson and Spearman are nil when the correlation is undefined.
	Pearson  *float64 `json:"pearson,omitempty"`
	Spearman *float64 `json:"spearman,omitempty"`
}

// EvaluateEmbeddings embeds every sentence in one batch and correlates pair cosine
// similarity with the normalized human score.
func EvaluateEmbeddings(ctx context.Context, emb embedding.Embedder, pairs []SimilarityPair) (*EmbeddingReport, error) {
	if len(pairs) == 0 {
		return &EmbeddingReport{}, nil
	}
	texts := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		texts = append(texts, p.Sentence1, p.Sentence2)
	}
	vecs, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed sentences: got %d vectors for %d texts", len(vecs), len(texts))
	}

	report := &EmbeddingReport{Rows: make([]SimilarityRow, len(pairs))}
	human := make([]float64, len(pairs))
	cosine := make([]float64, len(pairs))
	for i, p := range pairs {
		human[i] = p.Score / MaxHumanScore
		cosine[i] = utils.Cosine(vecs[2*i], vecs[2*i+1])
		report.Rows[i] = SimilarityRow{
			Sentence1:  p.Sentence1,
			Sentence2:  p.Sentence2,
			HumanScore: human[i],
			Cosine:     cosine[i],
		}
	}
	if v, err := Pearson(human, cosine); err == nil {
		v = utils.Round(v, decimals)
		report.Pearson = &v
	}
	if v, err := Spearman(human, cosine); err == nil {
		v = utils.Round(v, decimals)
		report.Spearman = &v
	}
	return report, nil
}

func (r SimilarityRow) cells() []string {
	return []string{r.Sentence1, r.Sentence2, fmtScore(r.HumanScore), fmtScore(r.Cosine)}
}

var similarityHeader = []string{"sentence1", "sentence2", "human_score", "cosine_similarity"}
