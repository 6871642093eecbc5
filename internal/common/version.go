package common

import "fmt"

// Version is overridden at build time via -ldflags.
var Version = "0.9.0"

// GetVersion returns the application version string.
func GetVersion() string {
	return Version
}

// PipelineVersion identifies the processing pipeline in software
// provenance records.
func PipelineVersion() string {
	return fmt.Sprintf("sentropy-pipeline/%s", Version)
}
