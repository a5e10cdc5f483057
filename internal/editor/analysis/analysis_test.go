package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"floorplan-studio/internal/common/config"
	"floorplan-studio/internal/common/logger"
	"floorplan-studio/internal/editor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelServer отвечает заданным текстом в формате chat completions.
func modelServer(t *testing.T, reply func(req chatRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, content := reply(req)
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(content))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL, key string) *Client {
	return NewClient(config.AnalysisConfig{
		BaseURL: baseURL,
		APIKey:  key,
		Model:   "test-model",
		Timeout: 5,
		RPS:     100,
		Burst:   10,
	}, logger.Nop())
}

const twoRoomsThreeWalls = "```json\n" + `{
  "rooms": [
    {"name": "Kitchen", "x": 100, "y": 100, "width": 200, "height": 150},
    {"name": "Bath", "x": 300, "y": 100, "width": 100, "height": 150}
  ],
  "walls": [
    {"x1": 100, "y1": 100, "x2": 400, "y2": 100},
    {"x1": 100, "y1": 250, "x2": 400, "y2": 250, "thickness": 5},
    {"x1": 300, "y1": 100, "x2": 300, "y2": 250}
  ],
  "doors": [{"x": 150, "y": 250, "width": 0, "rotation": 90, "swing": "sideways"}],
  "windows": [{"x": 200, "y": 100, "rotation": 0}],
  "labels": [{"text": "Kitchen", "x": 120, "y": 120}]
}` + "\n```"

func TestCleanup_StripsFencesAndParses(t *testing.T) {
	var calls int32
	srv := modelServer(t, func(req chatRequest) (int, string) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 4000, req.MaxTokens)
		assert.Nil(t, req.ResponseFormat)
		assert.Len(t, req.Messages, 2)
		return http.StatusOK, twoRoomsThreeWalls
	})

	c := newTestClient(srv.URL, "test-key")
	res, err := c.Cleanup(context.Background(), "aGVsbG8=", DocFloorplan)
	require.NoError(t, err)
	require.NotNil(t, res.Elements)
	assert.Equal(t, "Successfully parsed floorplan elements from image.", res.Description)
	assert.Len(t, res.Elements.Rooms, 2)
	assert.Len(t, res.Elements.Walls, 3)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCleanup_DegradesToDescription(t *testing.T) {
	srv := modelServer(t, func(chatRequest) (int, string) {
		return http.StatusOK, "I can see a two bedroom apartment."
	})

	c := newTestClient(srv.URL, "test-key")
	res, err := c.Cleanup(context.Background(), "data:image/png;base64,aGVsbG8=", DocSitePlan)
	require.NoError(t, err)
	assert.Nil(t, res.Elements)
	assert.Equal(t, "I can see a two bedroom apartment.", res.Description)
}

func TestClient_NotConfigured(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "")
	assert.False(t, c.Configured())

	_, err := c.Cleanup(context.Background(), "aGVsbG8=", DocFloorplan)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.DetectBuildings(context.Background(), "aGVsbG8=")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ExtractText(context.Background(), "aGVsbG8=")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_EmptyImage(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1", "test-key")
	_, err := c.Cleanup(context.Background(), "  ", DocFloorplan)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestClient_UpstreamFailure(t *testing.T) {
	srv := modelServer(t, func(chatRequest) (int, string) {
		return http.StatusInternalServerError, `{"error":"boom"}`
	})

	c := newTestClient(srv.URL, "test-key")
	_, err := c.Cleanup(context.Background(), "aGVsbG8=", DocFloorplan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestParsedElements_ToBatchDefaults(t *testing.T) {
	res := ParseCleanup(twoRoomsThreeWalls)
	require.NotNil(t, res.Elements)

	b := res.Elements.ToBatch()
	assert.Equal(t, 2+3+1+1+1, b.Len())
	assert.Equal(t, "Kitchen", b.Rooms[0].Name)
	assert.Equal(t, 3.0, b.Walls[0].Thickness)
	assert.Equal(t, 5.0, b.Walls[1].Thickness)
	assert.Equal(t, 30.0, b.Doors[0].Width)
	assert.Equal(t, models.SwingLeft, b.Doors[0].Swing)
	assert.Equal(t, 90.0, b.Doors[0].Rotation)
	assert.Equal(t, 60.0, b.Windows[0].Width)
	assert.Equal(t, 16.0, b.Labels[0].FontSize)
	for _, r := range b.Rooms {
		assert.Empty(t, r.ID)
	}
}

func TestDetectBuildings(t *testing.T) {
	srv := modelServer(t, func(req chatRequest) (int, string) {
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}
		return http.StatusOK, `{"buildings":[
			{"name":"Building A","boundingBox":{"x":10,"y":20,"width":300,"height":200},"description":"rectangular"},
			{"description":"unnamed"}
		]}`
	})

	c := newTestClient(srv.URL, "test-key")
	detected, err := c.DetectBuildings(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	require.Len(t, detected, 2)

	buildings := BuildingsFromDetection(detected, "sp-1")
	require.Len(t, buildings, 2)

	assert.Equal(t, "Building A", buildings[0].Name)
	assert.Equal(t, "M10,20 L310,20 L310,220 L10,220 Z", buildings[0].Outline.Path)
	assert.Equal(t, "sp-1", buildings[0].SitePlanID)
	assert.NotNil(t, buildings[0].Floorplans)

	assert.Equal(t, "Building 2", buildings[1].Name)
	assert.Equal(t, 200.0, buildings[1].Outline.Width)
	assert.Equal(t, 150.0, buildings[1].Outline.Height)
	assert.Equal(t, "M0,0 L200,0 L200,150 L0,150 Z", buildings[1].Outline.Path)
}

func TestParseOCR(t *testing.T) {
	wrapped, err := ParseOCR(`{"results":[{"text":"Kitchen","boundingBox":{"x":1,"y":2,"width":3,"height":4},"type":"label","confidence":0.9},{"text":"?","type":"scribble"}]}`)
	require.NoError(t, err)
	require.Len(t, wrapped, 2)
	assert.Equal(t, "Kitchen", wrapped[0].Text)
	assert.Equal(t, "note", wrapped[1].Type)

	bare, err := ParseOCR(`[{"text":"12'","type":"measurement","confidence":0.5}]`)
	require.NoError(t, err)
	require.Len(t, bare, 1)
	assert.Equal(t, "measurement", bare[0].Type)

	empty, err := ParseOCR("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseOCR("not json")
	assert.Error(t, err)
}

func TestAnalyze_RunsBothCalls(t *testing.T) {
	srv := modelServer(t, func(req chatRequest) (int, string) {
		if req.ResponseFormat != nil {
			return http.StatusOK, `{"results":[{"text":"Bath","type":"label","confidence":0.8}]}`
		}
		return http.StatusOK, twoRoomsThreeWalls
	})

	c := newTestClient(srv.URL, "test-key")
	rep, err := Analyze(context.Background(), c, "aGVsbG8=", DocFloorplan, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, rep.Cleanup.Elements)
	require.Len(t, rep.OCR, 1)
	assert.Equal(t, "Bath", rep.OCR[0].Text)
}

func TestAnalyze_OCRFailureKeepsCleanup(t *testing.T) {
	srv := modelServer(t, func(req chatRequest) (int, string) {
		if req.ResponseFormat != nil {
			return http.StatusOK, "I could not read any text, sorry."
		}
		return http.StatusOK, twoRoomsThreeWalls
	})

	c := newTestClient(srv.URL, "test-key")
	rep, err := Analyze(context.Background(), c, "aGVsbG8=", DocFloorplan, logger.Nop())
	require.NoError(t, err)
	require.NotNil(t, rep.Cleanup.Elements)
	assert.Len(t, rep.Cleanup.Elements.Rooms, 2)
	assert.NotNil(t, rep.OCR)
	assert.Empty(t, rep.OCR)
}

func TestAnalyze_CleanupFailureFails(t *testing.T) {
	srv := modelServer(t, func(req chatRequest) (int, string) {
		if req.ResponseFormat != nil {
			return http.StatusOK, `{"results":[]}`
		}
		return http.StatusInternalServerError, "boom"
	})

	c := newTestClient(srv.URL, "test-key")
	_, err := Analyze(context.Background(), c, "aGVsbG8=", DocFloorplan, logger.Nop())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,abc", dataURL("abc"))
	assert.Equal(t, "data:image/jpeg;base64,abc", dataURL("data:image/jpeg;base64,abc"))
	assert.True(t, strings.HasPrefix(PathFromBoundingBox(models.BoundingBox{X: 1.5}), "M1.5,0"))
}
