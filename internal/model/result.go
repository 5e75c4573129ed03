package model

// ProcessingResult reports the version range that was durably processed.
type ProcessingResult struct {
	StartVersion uint64 `json:"start_version"`
	EndVersion   uint64 `json:"end_version"`
}
