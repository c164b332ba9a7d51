package server

import (
	"strings"

	"go-portscout/models"
)

// response defines the basic HTTP response returned by the server.
type response struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// ScanRequestAPI defines the JSON structure for incoming scan requests.
type ScanRequestAPI struct {
	Target string `json:"target"`
}

func (sr *ScanRequestAPI) Validate() bool {
	return len(strings.TrimSpace(sr.Target)) > 0
}

// ScanHistory defines the JSON structure for the list of past scans.
type ScanHistory struct {
	Results []models.ScanResult `json:"scan_results"`
}
