package models

import "time"

const (
	PredictionReal = "Real"
	PredictionFake = "Fake"
)

type VoiceAnalysis struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"userId"`
	Filename   string    `db:"filename" json:"filename"`   // sanitised client name
	FilePath   string    `db:"file_path" json:"filePath"` // key inside the upload store
	Prediction string    `db:"prediction" json:"prediction"`
	Confidence *float64  `db:"confidence" json:"confidence"` // 0..1, nullable
	AnalyzedAt time.Time `db:"analyzed_at" json:"analyzedAt"`
}
