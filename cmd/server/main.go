package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/moodlens/moodlens/internal/api"
	"github.com/moodlens/moodlens/internal/database"
	"github.com/moodlens/moodlens/internal/emotion"
	"github.com/moodlens/moodlens/internal/recommend"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./moodlens.db"
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/static"
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	db, err := database.NewDB(dbPath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	detectionRepo := database.NewDetectionRepository(db)

	// Emotion providers, in strict chain order. Unconfigured ones are
	// skipped at detection time; none of this is a startup error.
	providers := []emotion.Provider{
		emotion.NewLocalClassifierClient(os.Getenv("LOCAL_CLASSIFIER_URL")),
		emotion.NewFacePlusPlusClient(os.Getenv("FACEPP_API_KEY"), os.Getenv("FACEPP_API_SECRET")),
		emotion.NewAzureFaceClient(os.Getenv("AZURE_FACE_KEY"), os.Getenv("AZURE_FACE_ENDPOINT")),
		emotion.NewGoogleVisionClient(os.Getenv("GOOGLE_VISION_API_KEY")),
	}
	chain := emotion.NewChain(providers, emotion.NewSimulator())

	catalog, err := recommend.LoadCatalog()
	if err != nil {
		log.Fatal("Failed to load mood catalog:", err)
	}

	omdb := recommend.NewOMDbClient(os.Getenv("OMDB_API_KEY"))
	spotify := recommend.NewSpotifyClient(os.Getenv("SPOTIFY_CLIENT_ID"), os.Getenv("SPOTIFY_CLIENT_SECRET"))
	books := recommend.NewGoogleBooksClient(os.Getenv("GOOGLE_BOOKS_API_KEY"))

	aggregator := recommend.NewAggregator(catalog, omdb, spotify, books)

	app := &api.App{
		Chain:         chain,
		Aggregator:    aggregator,
		DetectionRepo: detectionRepo,
		Spotify:       spotify,
	}

	router := api.NewRouter(app, staticDir, corsOrigin)

	log.Printf("Server starting on port %s", port)
	log.Printf("Database path: %s", dbPath)
	log.Printf("Static dir: %s", staticDir)
	if names := chain.Providers(); len(names) > 0 {
		log.Printf("Real emotion providers configured: %v", names)
	} else {
		log.Printf("No real emotion providers configured; detections will be simulated unless require_real is set")
	}

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
