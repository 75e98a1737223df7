package dto

// Request and response bodies for the vision routes. Responses are wrapped
// in the shared mcp.v1 envelope by the handlers.

type CaptureRequest struct {
	Region []int  `json:"region,omitempty"`
	Format string `json:"format,omitempty"`
}

type CaptureData struct {
	PNGBase64 string `json:"png_base64"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Region    []int  `json:"region,omitempty"`
}

type OCRRequest struct {
	Region   []int  `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
}

type OCRItem struct {
	Text       string  `json:"text"`
	BBox       [4]int  `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

type OCRBlock struct {
	Items  []OCRItem `json:"items"`
	Concat string    `json:"concat"`
}

type OCRData struct {
	Items  []OCRItem `json:"items"`
	Concat string    `json:"concat"`
	Count  int       `json:"count"`
	Region []int     `json:"region,omitempty"`
}

type DescribeRequest struct {
	Region        []int  `json:"region,omitempty"`
	Task          string `json:"task,omitempty"`
	IncludeOCR    *bool  `json:"include_ocr,omitempty"`
	StoreToMemory *bool  `json:"store_to_memory,omitempty"`
}

type DescribeData struct {
	Width              int       `json:"width"`
	Height             int       `json:"height"`
	Region             []int     `json:"region,omitempty"`
	Description        *string   `json:"description"`
	OCR                *OCRBlock `json:"ocr,omitempty"`
	OCRError           string    `json:"ocr_error,omitempty"`
	VLMDisabled        bool      `json:"vlm_disabled,omitempty"`
	VLMError           string    `json:"vlm_error,omitempty"`
	Cached             bool      `json:"cached,omitempty"`
	StoredToMemory     bool      `json:"stored_to_memory,omitempty"`
	MemoryStorageError string    `json:"memory_storage_error,omitempty"`
}

type WatchStartRequest struct {
	IntervalMS         *int     `json:"interval_ms,omitempty"`
	ChangeThreshold    *float64 `json:"change_threshold,omitempty"`
	VLMChangeThreshold float64  `json:"vlm_change_threshold,omitempty"`
	RunOCR             bool     `json:"run_ocr"`
	RunVLM             bool     `json:"run_vlm"`
	Task               string   `json:"task,omitempty"`
	Region             []int    `json:"region,omitempty"`
}
