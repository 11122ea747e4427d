package models

import (
	"time"
)

// ExtractionStatus represents the outcome of an extraction request
type ExtractionStatus string

const (
	ExtractionStatusCompleted ExtractionStatus = "completed"
	ExtractionStatusFailed    ExtractionStatus = "failed"
)

// ImageSize holds width/height pairs before and after the resize step
type ImageSize struct {
	Original  [2]int `json:"original"`
	Processed [2]int `json:"processed"`
}

// ExtractionResult is the per-image response returned by /ocr/extract
type ExtractionResult struct {
	ExtractedText   string    `json:"extracted_text"`
	ProcessingTime  float64   `json:"processing_time"`
	ImageSize       ImageSize `json:"image_size"`
	TokensGenerated int       `json:"tokens_generated"`
	Device          string    `json:"device"`
	FileIndex       *int      `json:"file_index,omitempty"`
	Filename        *string   `json:"filename,omitempty"`
	ID              *int64    `json:"id,omitempty"`
}

// BatchItemError is emitted in place of a result when one file in a batch fails
type BatchItemError struct {
	FileIndex int    `json:"file_index"`
	Filename  string `json:"filename"`
	Error     string `json:"error"`
}

// BatchResponse aggregates per-file outcomes for /ocr/batch.
// Results holds *ExtractionResult or BatchItemError values in input order.
type BatchResponse struct {
	Results        []interface{} `json:"results"`
	TotalFiles     int           `json:"total_files"`
	TotalTime      float64       `json:"total_time"`
	AvgTimePerFile float64       `json:"avg_time_per_file"`
}

// GPUInfo mirrors the compute-device counters reported by the model runtime
type GPUInfo struct {
	GPUName           string  `json:"gpu_name"`
	TotalMemoryGB     float64 `json:"total_memory_gb"`
	AllocatedMemoryGB float64 `json:"allocated_memory_gb"`
	CachedMemoryGB    float64 `json:"cached_memory_gb"`
}

// EngineStatus describes the loaded model handle
type EngineStatus struct {
	ModelLoaded bool     `json:"model_loaded"`
	Device      string   `json:"device"`
	GPUInfo     *GPUInfo `json:"gpu_info,omitempty"`
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

// StatusResponse is the /status payload
type StatusResponse struct {
	ModelLoaded bool     `json:"model_loaded"`
	Engine      string   `json:"engine"`
	Device      string   `json:"device"`
	GPUInfo     *GPUInfo `json:"gpu_info,omitempty"`
}

// Extraction is a persisted extraction history record
type Extraction struct {
	ID               int64            `json:"id"`
	OriginalFilename *string          `json:"original_filename,omitempty"`
	ContentType      *string          `json:"content_type,omitempty"`
	FileSizeBytes    *int64           `json:"file_size_bytes,omitempty"`
	Status           ExtractionStatus `json:"status"`
	ExtractedText    *string          `json:"extracted_text,omitempty"`
	ErrorMessage     *string          `json:"error_message,omitempty"`
	ProcessingTime   *float64         `json:"processing_time,omitempty"`
	TokensGenerated  *int             `json:"tokens_generated,omitempty"`
	Device           *string          `json:"device,omitempty"`
	OriginalWidth    *int             `json:"original_width,omitempty"`
	OriginalHeight   *int             `json:"original_height,omitempty"`
	ProcessedWidth   *int             `json:"processed_width,omitempty"`
	ProcessedHeight  *int             `json:"processed_height,omitempty"`
	S3Bucket         *string          `json:"s3_bucket,omitempty"`
	S3Key            *string          `json:"s3_key,omitempty"`
	ImageURL         *string          `json:"image_url,omitempty"`
	ExpiresAt        time.Time        `json:"expires_at"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CreateExtractionRequest is used when recording a processed upload
type CreateExtractionRequest struct {
	OriginalFilename string
	ContentType      string
	FileSizeBytes    int64
	Status           ExtractionStatus
	ExtractedText    *string
	ErrorMessage     *string
	ProcessingTime   *float64
	TokensGenerated  *int
	Device           *string
	OriginalWidth    *int
	OriginalHeight   *int
	ProcessedWidth   *int
	ProcessedHeight  *int
	S3Bucket         *string
	S3Key            *string
	TTL              time.Duration
}

// ExtractionListParams filters the history listing
type ExtractionListParams struct {
	Status *string
	Limit  int
	Offset int
}
