// Funding document review service: retrieval-augmented analysis of uploaded
// government funding documents with an LLM approval decision.
package main

import (
	"fmt"
	"log"

	"fund-review-rag/internal/api"
	"fund-review-rag/internal/config"
	"fund-review-rag/internal/embeddings"
	"fund-review-rag/internal/llm"
	"fund-review-rag/internal/review"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	embedder := embeddings.NewEmbedder(
		cfg.Services.Ollama.BaseURL,
		cfg.Services.Ollama.EmbeddingModel,
		cfg.OllamaTimeout(),
	)

	groq := llm.NewGroqClient(
		cfg.Services.Groq.BaseURL,
		cfg.Services.Groq.APIKey,
		cfg.Services.Groq.Model,
		cfg.GroqTimeout(),
	)

	pipeline := review.NewPipeline(embedder, groq, review.Options{
		ChunkSize:           cfg.Review.ChunkSize,
		ChunkOverlap:        cfg.Review.ChunkOverlap,
		TopK:                cfg.Review.TopK,
		AnswerTemperature:   cfg.Services.Groq.AnswerTemperature,
		DecisionTemperature: cfg.Services.Groq.DecisionTemperature,
		CompletionTimeout:   cfg.GroqTimeout(),
	})

	server := api.NewServer(pipeline, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting funding review service on %s (model %s)", addr, cfg.Services.Groq.Model)
	if err := server.Run(addr); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
