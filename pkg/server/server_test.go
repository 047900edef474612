package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kgmerge "github.com/soundprediction/go-kgmerge"
	"github.com/soundprediction/go-kgmerge/pkg/config"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, nil)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestClusterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body, err := json.Marshal(map[string]any{
		"graphs": []graph.Graph{
			{
				Entities: []string{"Il Cane", "Gatto"},
				Relations: []graph.Relation{
					graph.NewRelation("Il Cane", "insegue", "Gatto"),
				},
			},
			{
				Entities: []string{"cane"},
				Relations: []graph.Relation{
					graph.NewRelation("cane", "abbaia", "Gatto"),
				},
			},
		},
		"threshold": 0.85,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Run-ID"))

	var result kgmerge.ClusteredGraph
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.ElementsMatch(t, []string{"Il Cane", "Gatto"}, result.Entities)
	assert.Equal(t, []string{"Il Cane", "cane"}, result.EntityClusters["Il Cane"])
	assert.Equal(t, 3, result.Stats.OriginalEntities)
	assert.Equal(t, 2, result.Stats.ClusteredEntities)
	assert.Len(t, result.Relations, 2)
}

func TestClusterEndpointRejectsEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cluster", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
