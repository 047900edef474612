// Package dto defines the request and response bodies of the HTTP API.
package dto

import "github.com/soundprediction/go-kgmerge/pkg/graph"

// ClusterRequest carries inline graph fragments to cluster.
type ClusterRequest struct {
	Graphs    []graph.Graph `json:"graphs" binding:"required,min=1"`
	Threshold float64       `json:"threshold"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
