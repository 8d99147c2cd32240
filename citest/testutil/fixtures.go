package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
)

// RandomString generates a random string of n characters
func RandomString(n int) string {
	bytes := make([]byte, n/2+1)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:n]
}

// TempDir creates a temporary directory
type TempDir struct {
	Path string
}

// NewTempDir creates a temp directory
func NewTempDir() (*TempDir, error) {
	path, err := os.MkdirTemp("", "buildtrack-test-*")
	if err != nil {
		return nil, err
	}
	return &TempDir{Path: path}, nil
}

// Cleanup removes the temp directory
func (d *TempDir) Cleanup() {
	os.RemoveAll(d.Path)
}

// SampleProject returns a valid project.create payload with a unique name.
func SampleProject() map[string]any {
	return map[string]any{
		"name":      "Site " + RandomString(6),
		"location":  "Pune",
		"budget":    10000,
		"startDate": "2025-01-15",
	}
}

// SampleWorker returns a worker.create payload for projectID.
func SampleWorker(projectID any) map[string]any {
	return map[string]any{
		"projectId":  projectID,
		"name":       "Ravi",
		"category":   "Mason",
		"phone":      "9800000000",
		"dailyWage":  500,
		"daysWorked": 10,
	}
}

// ContainsString checks if a string slice contains a value
func ContainsString(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
