package models

// FileAnalysis is the structured result of an AI document-understanding
// pass over one attached file.
type FileAnalysis struct {
	Description   string `json:"description"`
	ExtractedText string `json:"extracted_text"`
	MediaType     string `json:"media_type"`
}

// CacheStats reports the file-analysis cache state. The size estimate is
// serialize-and-measure, informational only.
type CacheStats struct {
	AnalysisCount      int     `json:"processed_files_count"`
	SummaryCount       int     `json:"summaries_count"`
	EstimatedSizeBytes int     `json:"estimated_size_bytes"`
	TTLHours           float64 `json:"expiry_time_hours"`
}
