package events_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/insight-deck/core/internal/config"
	"github.com/insight-deck/core/internal/modules/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEventsRouter(t *testing.T, upstream string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	api := router.Group("/api/v1")
	events.NewHandler(config.EventsConfig{UpstreamURL: upstream}, zap.NewNop()).RegisterRoutes(api)
	return router
}

func postEvent(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCollectWithoutUpstreamAcceptsAndDrops(t *testing.T) {
	router := newEventsRouter(t, "")

	w := postEvent(router, gin.H{"name": "card_flipped", "payload": gin.H{"slug": "what-energised-you"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestCollectRejectsInvalidEvents(t *testing.T) {
	router := newEventsRouter(t, "")

	for name, body := range map[string]gin.H{
		"missing name":  {"payload": gin.H{}},
		"empty name":    {"name": ""},
		"oversize name": {"name": strings.Repeat("e", 121)},
	} {
		w := postEvent(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestCollectForwardsToUpstream(t *testing.T) {
	received := make(chan []byte, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer upstream.Close()

	router := newEventsRouter(t, upstream.URL)

	w := postEvent(router, gin.H{"name": "report_downloaded", "payload": gin.H{"selections": 3}})
	require.Equal(t, http.StatusNoContent, w.Code, "the client response never waits on the upstream")

	select {
	case body := <-received:
		var forwarded struct {
			Name    string         `json:"name"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(body, &forwarded))
		assert.Equal(t, "report_downloaded", forwarded.Name)
		assert.EqualValues(t, 3, forwarded.Payload["selections"])
	case <-time.After(5 * time.Second):
		t.Fatal("event was never forwarded")
	}
}
