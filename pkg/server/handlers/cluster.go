// Package handlers implements the HTTP endpoints.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	kgmerge "github.com/soundprediction/go-kgmerge"
	"github.com/soundprediction/go-kgmerge/pkg/cluster"
	"github.com/soundprediction/go-kgmerge/pkg/server/dto"
)

// ClusterHandler serves clustering requests over inline fragments.
type ClusterHandler struct {
	logger *slog.Logger
}

// NewClusterHandler creates a cluster handler.
func NewClusterHandler(logger *slog.Logger) *ClusterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClusterHandler{logger: logger}
}

// Cluster handles POST /cluster: union the submitted fragments, run the
// clustering pipeline in memory, and return the clustered graph. Nothing is
// persisted; this is the request/response counterpart of the batch run.
func (h *ClusterHandler) Cluster(c *gin.Context) {
	var req dto.ClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Message: err.Error(),
		})
		return
	}

	threshold := req.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = cluster.DefaultThreshold
	}

	runID := uuid.NewString()
	pipeline := kgmerge.NewPipeline(kgmerge.Config{
		Threshold: threshold,
		Logger:    h.logger.With("run_id", runID),
	})

	result := pipeline.Aggregate(req.Graphs)
	h.logger.Info("clustered inline fragments",
		"run_id", runID,
		"graphs", len(req.Graphs),
		"clustered_entities", result.Stats.ClusteredEntities)

	c.Header("X-Run-ID", runID)
	c.JSON(http.StatusOK, result)
}
