package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlens/moodlens/internal/emotion"
)

// Detection is one stored emotion classification.
type Detection struct {
	ID           string               `json:"id"`
	Emotion      emotion.Emotion      `json:"emotion"`
	Confidence   float64              `json:"confidence"`
	FaceDetected bool                 `json:"face_detected"`
	Source       emotion.Source       `json:"source"`
	Distribution emotion.Distribution `json:"distribution"`
	DetectedAt   time.Time            `json:"detected_at"`
}

type DetectionRepository struct {
	db *DB
}

func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// InsertResult stores a chain result as a new history row and returns it.
func (r *DetectionRepository) InsertResult(result *emotion.Result) (*Detection, error) {
	distJSON, err := json.Marshal(result.Distribution)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal distribution: %w", err)
	}

	detection := &Detection{
		ID:           uuid.New().String(),
		Emotion:      result.Emotion,
		Confidence:   result.Confidence,
		FaceDetected: result.FaceDetected,
		Source:       result.Source,
		Distribution: result.Distribution,
		DetectedAt:   result.DetectedAt,
	}

	_, err = r.db.conn.Exec(`
		INSERT INTO detections (id, emotion, confidence, face_detected, source, distribution, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		detection.ID, string(detection.Emotion), detection.Confidence,
		detection.FaceDetected, string(detection.Source), string(distJSON), detection.DetectedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert detection: %w", err)
	}

	return detection, nil
}

// ListRecent returns the newest detections first.
func (r *DetectionRepository) ListRecent(limit int) ([]Detection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.conn.Query(`
		SELECT id, emotion, confidence, face_detected, source, distribution, detected_at
		FROM detections
		ORDER BY detected_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	detections := []Detection{}
	for rows.Next() {
		var d Detection
		var emotionStr, sourceStr, distJSON string

		if err := rows.Scan(&d.ID, &emotionStr, &d.Confidence, &d.FaceDetected, &sourceStr, &distJSON, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}

		d.Emotion = emotion.Emotion(emotionStr)
		d.Source = emotion.Source(sourceStr)
		if err := json.Unmarshal([]byte(distJSON), &d.Distribution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal distribution: %w", err)
		}

		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return detections, nil
}

// CountBySource reports how many stored detections each provider produced.
func (r *DetectionRepository) CountBySource() (map[emotion.Source]int, error) {
	rows, err := r.db.conn.Query(`SELECT source, COUNT(*) FROM detections GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count detections: %w", err)
	}
	defer rows.Close()

	counts := make(map[emotion.Source]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[emotion.Source(source)] = count
	}

	return counts, rows.Err()
}
