package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rtrs-be/config"
	"rtrs-be/controllers"
	"rtrs-be/middlewares"
	"rtrs-be/routes"
	"rtrs-be/stores"
	"rtrs-be/verification"
)

const verifierTimeout = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	issueStore, userStore := buildStores()
	verifier := verification.WithTimeout(verification.NewMockVerifier(verifySeed()), verifierTimeout)

	authController := &controllers.AuthController{Users: userStore}
	issueController := &controllers.IssueController{Issues: issueStore, Users: userStore}
	commentController := &controllers.CommentController{Issues: issueStore, Users: userStore}
	verifyController := &controllers.VerificationController{Issues: issueStore, Verifier: verifier}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{envOr("FRONTEND_ORIGIN", "http://localhost:5173")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	var createExtras []gin.HandlerFunc
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedis()
		createExtras = append(createExtras, middlewares.IssueRateLimiter(issueLimit()))
	}

	routes.AuthRoutes(r, authController)
	routes.IssueRoutes(r, issueController, commentController, verifyController, createExtras...)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":" + envOr("PORT", "8080")); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildStores picks the backend: MongoDB by default, in-memory for demo runs.
func buildStores() (stores.IssueStore, stores.UserStore) {
	if os.Getenv("STORE_BACKEND") == "memory" {
		log.Println("Using in-memory store (demo mode)")
		return stores.NewMemoryStore(), stores.NewMemoryUserStore()
	}

	db := config.ConnectDB()
	log.Println("MongoDB connection established successfully!")

	issueStore := stores.NewMongoStore(db)
	userStore := stores.NewMongoUserStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := issueStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create issue indexes: %v", err)
	}
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}

	return issueStore, userStore
}

func verifySeed() int64 {
	if raw := os.Getenv("VERIFY_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return seed
		}
		log.Println("Ignoring invalid VERIFY_SEED")
	}
	return time.Now().UnixNano()
}

func issueLimit() int {
	if raw := os.Getenv("ISSUE_DAILY_LIMIT"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			return limit
		}
	}
	return 5
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
