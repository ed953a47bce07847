package main

import (
	"context"
	"fmt"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/database"
	"github.com/codearena/mcq-backend/internal/logger"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/jackc/pgx/v5"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	categoryRepo := repository.NewCategoryRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)

	categoryService := service.NewCategoryService(categoryRepo)
	questionService := service.NewQuestionService(questionRepo, categoryRepo)
	paperService := service.NewPaperService(paperRepo, questionRepo, categoryRepo)

	fmt.Println("=== Seeding Demo Question Bank ===")

	// Find or create the demo category.
	var categoryID int64
	err = pool.QueryRow(ctx, "SELECT id FROM categories WHERE name = $1", "Go Basics").Scan(&categoryID)
	if err != nil {
		if err == pgx.ErrNoRows {
			fmt.Println("Category 'Go Basics' not found. Creating it...")
			category, err := categoryService.Create(ctx, &model.CreateCategoryRequest{
				Name:        "Go Basics",
				Description: "Introductory language questions",
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to create category")
			}
			categoryID = category.ID
			fmt.Printf("Created category with ID: %d\n", categoryID)
		} else {
			log.Fatal().Err(err).Msg("Failed to check existing category")
		}
	} else {
		fmt.Printf("Found existing category with ID: %d\n", categoryID)
	}

	difficulties := []string{"easy", "easy", "medium", "medium", "hard"}
	options := []model.Option{
		{Key: "A", Text: "Option A"},
		{Key: "B", Text: "Option B"},
		{Key: "C", Text: "Option C"},
		{Key: "D", Text: "Option D"},
	}

	successCount := 0
	total := 30
	for i := 0; i < total; i++ {
		req := &model.CreateQuestionRequest{
			DisplayID:     fmt.Sprintf("DEMO-%03d", i+1),
			Title:         fmt.Sprintf("Demo question %d: which option is correct?", i+1),
			QuestionType:  "single",
			Options:       options,
			CorrectAnswer: string(rune('A' + i%4)),
			Explanation:   "The remaining options are distractors.",
			Difficulty:    difficulties[i%len(difficulties)],
			Score:         1,
			CategoryID:    &categoryID,
		}
		if _, err := questionService.Create(ctx, req, 1); err != nil {
			fmt.Printf("Error creating question %s: %v\n", req.DisplayID, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d questions...\n", i+1)
		}
	}
	fmt.Printf("Seeded %d/%d questions.\n", successCount, total)

	// A generated demo paper over the seeded pool.
	paper, err := paperService.Create(ctx, &model.CreatePaperRequest{
		Title:           "Demo Paper",
		Description:     "Sampled from the Go Basics pool",
		DurationMinutes: 30,
		TotalScore:      100,
		QuestionCount:   10,
		PaperType:       "generated",
		Distribution:    map[string]int{"easy": 4, "medium": 4, "hard": 2},
		CategoryIDs:     []int64{categoryID},
	}, 1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo paper")
	}

	fmt.Printf("\nSeed completed! Demo paper created with ID: %d\n", paper.ID)
}
