package generator

import (
	"funnel_copy_generator/quality"
	"funnel_copy_generator/sections"
)

// PartResult is one successfully generated part.
type PartResult = sections.Part

// GenerationResult is handed to the caller for persistence; it only exists
// once every part of a job has succeeded.
type GenerationResult struct {
	ProjectID           string             `json:"project_id"`
	Title               string             `json:"title,omitempty"`
	Content             string             `json:"content"`
	Validation          quality.ScoreCard  `json:"validation"`
	EstimatedConversion quality.Conversion `json:"estimated_conversion"`
}
