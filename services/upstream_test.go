package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/OutletRadar/outlet-api/models"
)

func TestGetAllOutlets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/outlets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "Subway KLCC", "address": "KLCC, Kuala Lumpur", "latitude": "3.1579", "longitude": "101.7116"},
			{"id": 2, "name": "Subway Pavilion", "latitude": 3.1486, "longitude": 101.7140}
		]`))
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, 5*time.Second)
	outlets, err := client.GetAllOutlets(context.Background())

	require.NoError(t, err)
	require.Len(t, outlets, 2)
	require.Equal(t, models.FlexID("1"), outlets[0].ID)
	require.True(t, outlets[0].HasCoordinates())
	require.True(t, outlets[1].HasCoordinates())
}

func TestGetOperatingHours(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/outlets/5/operating-hours", r.URL.Path)
		w.Write([]byte(`[{"day_of_week": "Monday", "is_closed": false, "opening_time": "09:00:00", "closing_time": "22:00:00"}]`))
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, 5*time.Second)
	hours, err := client.GetOperatingHours(context.Background(), "5")

	require.NoError(t, err)
	require.Len(t, hours, 1)
	require.Equal(t, "Monday", hours[0].DayOfWeek)
}

func TestQueryChatbotThreadsSessionID(t *testing.T) {
	var gotQuery, gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chatbot/query", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotSession = r.URL.Query().Get("session_id")
		w.Write([]byte(`{"answer": "hi", "relevant_outlets": [], "session_id": "sess-9"}`))
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, 5*time.Second)

	resp, err := client.QueryChatbot(context.Background(), "where is KLCC", "")
	require.NoError(t, err)
	require.Equal(t, "where is KLCC", gotQuery)
	require.Empty(t, gotSession)
	require.Equal(t, "sess-9", resp.SessionID)

	_, err = client.QueryChatbot(context.Background(), "and hours?", resp.SessionID)
	require.NoError(t, err)
	require.Equal(t, "sess-9", gotSession)
}

func TestUpstreamNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, 5*time.Second)

	_, err := client.GetAllOutlets(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}

func TestDeleteChatSession(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"message": "deleted"}`))
	}))
	defer server.Close()

	client := NewUpstreamClient(server.URL, 5*time.Second)

	require.NoError(t, client.DeleteChatSession(context.Background(), "sess-9"))
	require.Equal(t, http.MethodDelete, gotMethod)
	require.Equal(t, "/chatbot/session/sess-9", gotPath)
}
