package model

import "time"

// BackupVersion identifies the export document layout.
const BackupVersion = 1

// BackupDocument is the round-trippable export/import shape: decoding an
// exported document and saving its elements reproduces the same records,
// ids included.
type BackupDocument struct {
	Version    int              `json:"version"`
	ExportDate time.Time        `json:"exportDate"`
	Workouts   []WorkoutSession `json:"workouts"`
	Meals      []MealSession    `json:"meals"`
}
