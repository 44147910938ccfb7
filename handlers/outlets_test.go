package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/services"
)

const snapshotJSON = `[
	{"id": 1, "name": "Subway KLCC", "address": "Lot 421, KLCC, Kuala Lumpur", "latitude": "3.1579", "longitude": "101.7116"},
	{"id": 2, "name": "Subway Pavilion", "address": "Pavilion, Bukit Bintang, Kuala Lumpur", "latitude": 3.1486, "longitude": 101.7140},
	{"id": 3, "name": "Subway Remote", "address": "Far Away", "latitude": 10, "longitude": 10}
]`

func outletRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(snapshotJSON))
	}))
	t.Cleanup(upstreamSrv.Close)

	store := services.NewOutletStore(services.NewUpstreamClient(upstreamSrv.URL, 5*time.Second), 2)
	require.NoError(t, store.Refresh(context.Background()))

	hub := NewMapHub()
	h := NewOutletHandler(store, hub)

	router := gin.New()
	router.GET("/ws/map", hub.HandleWS)
	router.GET("/outlets", h.GetOutlets)
	router.GET("/outlets/grouped", h.GetGroupedOutlets)
	router.GET("/outlets/nearby", h.GetNearby)
	router.GET("/outlets/search", h.SearchOutlets)
	router.GET("/outlets/:id", h.GetOutlet)
	router.GET("/outlets/:id/status", h.GetOutletStatus)
	router.POST("/map/select/:id", h.SelectOutlet)
	router.POST("/map/catchment/:id", h.ShowCatchment)

	return router
}

func TestGetOutletsDecoratesAreaAndOverlap(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var views []struct {
		ID         models.FlexID `json:"id"`
		Name       string        `json:"name"`
		Area       string        `json:"area"`
		HasOverlap bool          `json:"has_overlap"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 3)

	require.Equal(t, "Subway KLCC", views[0].Name)
	require.Equal(t, "KLCC", views[0].Area)
	require.True(t, views[0].HasOverlap)
	require.Equal(t, "Far Away", views[2].Area)
	require.False(t, views[2].HasOverlap)
}

func TestGetOutletsUnavailableBeforeFirstSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)

	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(upstreamSrv.Close)

	store := services.NewOutletStore(services.NewUpstreamClient(upstreamSrv.URL, 5*time.Second), 2)
	h := NewOutletHandler(store, NewMapHub())

	router := gin.New()
	router.GET("/outlets", h.GetOutlets)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetOutletDetail(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets/1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Outlet      models.Outlet `json:"outlet"`
		Area        string        `json:"area"`
		Status      string        `json:"status"`
		Overlapping []struct {
			Outlet     models.Outlet `json:"outlet"`
			DistanceKm float64       `json:"distance_km"`
		} `json:"overlapping"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))

	require.Equal(t, models.FlexID("1"), detail.Outlet.ID)
	require.Equal(t, "KLCC", detail.Area)
	require.Equal(t, "Unknown", detail.Status) // no hours loaded
	require.Len(t, detail.Overlapping, 1)
	require.Equal(t, models.FlexID("2"), detail.Overlapping[0].Outlet.ID)
}

func TestGetOutletNotFound(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets/999", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNearbyDefaultsToCatchmentRadius(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets/nearby?latitude=3.1579&longitude=101.7116", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var ranked []struct {
		Outlet     models.Outlet `json:"outlet"`
		DistanceKm float64       `json:"distance_km"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))

	require.Len(t, ranked, 2)
	require.Equal(t, models.FlexID("1"), ranked[0].Outlet.ID)
}

func TestGetNearbyRequiresCoordinates(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets/nearby?latitude=abc", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchOutlets(t *testing.T) {
	router := outletRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outlets/search?query=pavilion", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var results []models.Outlet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.Equal(t, "Subway Pavilion", results[0].Name)
}

func TestSelectOutletPublishesEvent(t *testing.T) {
	router := outletRouter(t)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/map"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the hub a moment to register the session
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Post(server.URL+"/map/select/2", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type   string         `json:"type"`
		Outlet *models.Outlet `json:"outlet"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	require.Equal(t, "outlet_selected", event.Type)
	require.Equal(t, models.FlexID("2"), event.Outlet.ID)
}

func TestShowCatchmentPublishesCircle(t *testing.T) {
	router := outletRouter(t)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/map"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the hub a moment to register the session
	time.Sleep(100 * time.Millisecond)

	resp, err := http.Post(server.URL+"/map/catchment/1", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type     string  `json:"type"`
		RadiusKm float64 `json:"radius_km"`
		Within   []struct {
			Outlet models.Outlet `json:"outlet"`
		} `json:"within"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	require.Equal(t, "show_catchment", event.Type)
	require.Equal(t, 5.0, event.RadiusKm)
	require.Len(t, event.Within, 1)
}
