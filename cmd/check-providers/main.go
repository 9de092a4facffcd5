package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/moodlens/moodlens/internal/database"
)

func main() {
	_ = godotenv.Load()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./moodlens.db"
	}

	fmt.Println("🔍 Checking Provider Configuration")
	fmt.Println("==================================")

	checkKey("Local classifier", "LOCAL_CLASSIFIER_URL")
	checkKey("Face++", "FACEPP_API_KEY", "FACEPP_API_SECRET")
	checkKey("Azure Face", "AZURE_FACE_KEY", "AZURE_FACE_ENDPOINT")
	checkKey("Google Vision", "GOOGLE_VISION_API_KEY")
	fmt.Println()
	checkKey("OMDb", "OMDB_API_KEY")
	checkKey("Spotify", "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET")
	checkKey("Google Books (optional)", "GOOGLE_BOOKS_API_KEY")
	fmt.Println()

	db, err := database.NewDB(dbPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	repo := database.NewDetectionRepository(db)

	counts, err := repo.CountBySource()
	if err != nil {
		log.Fatal("Failed to count detections:", err)
	}

	var total int
	for _, n := range counts {
		total += n
	}
	fmt.Printf("📊 Stored detections: %d\n", total)
	for source, n := range counts {
		fmt.Printf("   - %s: %d\n", source, n)
	}

	recent, err := repo.ListRecent(5)
	if err != nil {
		log.Fatal("Failed to list detections:", err)
	}

	if len(recent) == 0 {
		fmt.Println("\nNo detections recorded yet. Capture a frame to test!")
		return
	}

	fmt.Println("\n🕑 Recent detections:")
	for _, d := range recent {
		face := "face"
		if !d.FaceDetected {
			face = "no face"
		}
		fmt.Printf("   %s  %-9s %.2f  (%s, %s)\n",
			d.DetectedAt.Format("Jan 2 15:04"), d.Emotion, d.Confidence, d.Source, face)
	}
}

func checkKey(name string, envVars ...string) {
	for _, v := range envVars {
		if os.Getenv(v) == "" {
			fmt.Printf("❌ %s: not configured (missing %s)\n", name, v)
			return
		}
	}
	fmt.Printf("✅ %s: configured\n", name)
}
