// Package sampler assembles the frozen question list of an exam session
// from a paper definition. Sampling is driven by a caller-supplied RNG so
// results are reproducible given a seed.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/codearena/mcq-backend/internal/model"
)

// SeededRNG returns a reproducible RNG for the given seed. Seed zero draws
// from the clock.
func SeededRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// ErrInsufficientQuestions is returned when no questions match the paper's
// filters at all.
var ErrInsufficientQuestions = errors.New("no questions match the paper configuration")

// QuestionSource is the read-only slice of the question store the sampler
// consumes. ListCandidates returns visible, public questions restricted to
// the given category and tag IDs (either list may be empty for no filter).
type QuestionSource interface {
	ListCandidates(ctx context.Context, categoryIDs, tagIDs []int64) ([]model.Question, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.Question, error)
}

// CategorySource provides the category forest for transitive filter descent.
type CategorySource interface {
	ListAll(ctx context.Context) ([]model.Category, error)
}

// Sampler produces ordered question ID lists for papers.
type Sampler struct {
	questions  QuestionSource
	categories CategorySource
}

// New creates a Sampler.
func New(questions QuestionSource, categories CategorySource) *Sampler {
	return &Sampler{questions: questions, categories: categories}
}

// Assemble returns the ordered question IDs for one attempt at the paper.
// Generated papers are sampled per the difficulty distribution with the
// shortfall filled from the remaining pool; the list may come up shorter
// than question_count when the pool runs dry. Fixed papers return their
// stored list, shuffled unless use_import_order is set.
func (s *Sampler) Assemble(ctx context.Context, paper *model.Paper, rng *rand.Rand) ([]int64, error) {
	if paper.PaperType == model.PaperTypeFixed {
		return s.assembleFixed(ctx, paper, rng)
	}
	return s.assembleGenerated(ctx, paper, rng)
}

func (s *Sampler) assembleFixed(ctx context.Context, paper *model.Paper, rng *rand.Rand) ([]int64, error) {
	if len(paper.FixedQuestionIDs) == 0 {
		return nil, ErrInsufficientQuestions
	}

	// Re-read so deleted or hidden questions drop out of new sessions.
	questions, err := s.questions.ListByIDs(ctx, paper.FixedQuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load fixed questions: %w", err)
	}
	existing := make(map[int64]struct{}, len(questions))
	for i := range questions {
		existing[questions[i].ID] = struct{}{}
	}

	ids := make([]int64, 0, len(paper.FixedQuestionIDs))
	for _, id := range paper.FixedQuestionIDs {
		if _, ok := existing[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrInsufficientQuestions
	}

	if !paper.UseImportOrder {
		rng.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}
	return ids, nil
}

func (s *Sampler) assembleGenerated(ctx context.Context, paper *model.Paper, rng *rand.Rand) ([]int64, error) {
	categoryIDs, err := s.expandCategories(ctx, paper.CategoryIDs)
	if err != nil {
		return nil, err
	}
	if len(paper.CategoryIDs) > 0 && len(categoryIDs) == 0 {
		// Filter names only unknown categories: nothing can match.
		return nil, ErrInsufficientQuestions
	}

	pool, err := s.questions.ListCandidates(ctx, categoryIDs, paper.TagIDs)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrInsufficientQuestions
	}

	chosen := make(map[int64]struct{}, paper.QuestionCount)
	result := make([]int64, 0, paper.QuestionCount)

	// Pass 1: honor the difficulty distribution. Iterate difficulties in
	// canonical order so draw order is deterministic under a fixed seed.
	for _, difficulty := range model.Difficulties {
		count := paper.Distribution[difficulty]
		if count <= 0 {
			continue
		}
		bucket := filterPool(pool, chosen, func(q *model.Question) bool {
			return q.Difficulty == difficulty
		})
		for _, id := range draw(rng, bucket, count) {
			chosen[id] = struct{}{}
			result = append(result, id)
		}
	}

	// Pass 2: fill the shortfall from the rest of the pool.
	if len(result) < paper.QuestionCount {
		rest := filterPool(pool, chosen, nil)
		for _, id := range draw(rng, rest, paper.QuestionCount-len(result)) {
			chosen[id] = struct{}{}
			result = append(result, id)
		}
	}

	if len(result) > paper.QuestionCount {
		result = result[:paper.QuestionCount]
	}
	if len(result) == 0 {
		return nil, ErrInsufficientQuestions
	}
	return result, nil
}

// expandCategories widens the paper's category filter to all descendants.
// A nil result means no category filter.
func (s *Sampler) expandCategories(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	categories, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	set := model.NewCategoryTree(categories).DescendantSet(ids)

	expanded := make([]int64, 0, len(set))
	for id := range set {
		expanded = append(expanded, id)
	}
	return expanded, nil
}

// filterPool returns the IDs of pool entries not yet chosen that satisfy
// keep (nil keeps everything), preserving pool order.
func filterPool(pool []model.Question, chosen map[int64]struct{}, keep func(*model.Question) bool) []int64 {
	var out []int64
	for i := range pool {
		q := &pool[i]
		if _, taken := chosen[q.ID]; taken {
			continue
		}
		if keep != nil && !keep(q) {
			continue
		}
		out = append(out, q.ID)
	}
	return out
}

// draw picks up to n IDs uniformly at random without replacement.
func draw(rng *rand.Rand, ids []int64, n int) []int64 {
	if n > len(ids) {
		n = len(ids)
	}
	if n <= 0 {
		return nil
	}
	perm := rng.Perm(len(ids))
	out := make([]int64, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, ids[idx])
	}
	return out
}
