package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"

	"github.com/OutletRadar/outlet-api/geo"
	"github.com/OutletRadar/outlet-api/models"
)

// MapHub is the command/event channel between the core and the map surface.
// Map clients subscribe over a websocket and receive selection and catchment
// events as JSON messages; the core never touches rendering directly.
type MapHub struct {
	M *melody.Melody
}

type mapEvent struct {
	Type     string             `json:"type"`
	Outlet   *models.Outlet     `json:"outlet,omitempty"`
	RadiusKm float64            `json:"radius_km,omitempty"`
	Within   []geo.RankedOutlet `json:"within,omitempty"`
	IDs      []models.FlexID    `json:"ids,omitempty"`
}

func NewMapHub() *MapHub {
	m := melody.New()

	m.Config.MaxMessageSize = 64 * 1024

	// Keep-alive matters on cloud hosts that reap idle connections
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		log.Printf("✅ Map client connected: %s", s.Request.RemoteAddr)
	})

	m.HandleDisconnect(func(s *melody.Session) {
		log.Printf("🔌 Map client disconnected: %s", s.Request.RemoteAddr)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket error: %v", err)
	})

	return &MapHub{M: m}
}

// HandleWS upgrades the request and registers a map client.
func (h *MapHub) HandleWS(c *gin.Context) {
	if err := h.M.HandleRequest(c.Writer, c.Request); err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

func (h *MapHub) broadcast(event mapEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Failed to encode map event %q: %v", event.Type, err)
		return
	}
	if err := h.M.Broadcast(msg); err != nil {
		log.Printf("⚠️ Error broadcasting map event %q: %v", event.Type, err)
	}
}

// PublishOutletSelected tells map clients to pan to and highlight an outlet.
// This is the shared selection event fired by list picks, marker clicks and
// assistant responses alike.
func (h *MapHub) PublishOutletSelected(outlet models.Outlet) {
	h.broadcast(mapEvent{Type: "outlet_selected", Outlet: &outlet})
}

// PublishCatchment tells map clients to draw an outlet's catchment circle,
// carrying the overlapping outlets so they can be highlighted inside it.
func (h *MapHub) PublishCatchment(center models.Outlet, radiusKm float64, within []geo.RankedOutlet) {
	h.broadcast(mapEvent{
		Type:     "show_catchment",
		Outlet:   &center,
		RadiusKm: radiusKm,
		Within:   within,
	})
}

// PublishClearCatchment removes any active catchment circle.
func (h *MapHub) PublishClearCatchment() {
	h.broadcast(mapEvent{Type: "clear_catchment"})
}

// PublishHighlight asks map clients to highlight a set of outlet markers.
func (h *MapHub) PublishHighlight(ids []models.FlexID) {
	h.broadcast(mapEvent{Type: "highlight_outlets", IDs: ids})
}
