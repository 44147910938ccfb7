package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OutletRadar/outlet-api/geo"
	"github.com/OutletRadar/outlet-api/models"
	"github.com/OutletRadar/outlet-api/services"
	"github.com/OutletRadar/outlet-api/utils"
)

// OutletHandler serves the outlet snapshot and its geo derivations.
type OutletHandler struct {
	Store *services.OutletStore
	Hub   *MapHub
}

func NewOutletHandler(store *services.OutletStore, hub *MapHub) *OutletHandler {
	return &OutletHandler{Store: store, Hub: hub}
}

// outletView decorates an outlet with the derived listing fields.
type outletView struct {
	models.Outlet
	Area       string `json:"area"`
	HasOverlap bool   `json:"has_overlap"`
}

func (h *OutletHandler) listView() []outletView {
	outlets := h.Store.Outlets()
	flags := h.Store.OverlapFlags()

	views := make([]outletView, 0, len(outlets))
	for _, o := range outlets {
		views = append(views, outletView{
			Outlet:     o,
			Area:       utils.ExtractArea(o.Address),
			HasOverlap: flags[o.ID],
		})
	}
	return views
}

// GetOutlets returns the full snapshot with area and overlap decorations.
func (h *OutletHandler) GetOutlets(c *gin.Context) {
	if h.Store.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Outlet data unavailable, retry later"})
		return
	}
	c.JSON(http.StatusOK, h.listView())
}

// GetGroupedOutlets returns the snapshot bucketed by address area.
func (h *OutletHandler) GetGroupedOutlets(c *gin.Context) {
	if h.Store.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Outlet data unavailable, retry later"})
		return
	}
	c.JSON(http.StatusOK, h.Store.GroupedByArea())
}

// GetOutlet returns one outlet with its live status and the outlets whose
// catchment overlaps its own.
func (h *OutletHandler) GetOutlet(c *gin.Context) {
	id := models.FlexID(c.Param("id"))

	outlet, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	overlapping, _ := h.Store.Overlapping(id)

	c.JSON(http.StatusOK, gin.H{
		"outlet":      outlet,
		"area":        utils.ExtractArea(outlet.Address),
		"status":      utils.DetermineStatus(outlet.OperatingHours, time.Now()),
		"today_hours": utils.TodayHours(outlet.OperatingHours, time.Now()),
		"overlapping": overlapping,
	})
}

// GetOutletStatus returns the open/closed status for one outlet.
func (h *OutletHandler) GetOutletStatus(c *gin.Context) {
	id := models.FlexID(c.Param("id"))

	outlet, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     outlet.ID,
		"status": utils.DetermineStatus(outlet.OperatingHours, time.Now()),
	})
}

// GetNearby ranks outlets by distance from a point, within a radius.
// Defaults to the 5 km catchment radius when none is given.
func (h *OutletHandler) GetNearby(c *gin.Context) {
	latitude, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	longitude, errLon := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	radius := geo.DefaultCatchmentRadiusKm
	if v := c.Query("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius"})
			return
		}
		radius = parsed
	}

	c.JSON(http.StatusOK, h.Store.Nearby(latitude, longitude, radius))
}

// SearchOutlets filters the snapshot by a text term, sorted by name or area.
func (h *OutletHandler) SearchOutlets(c *gin.Context) {
	results := h.Store.Search(c.Query("query"), c.DefaultQuery("sort", "name"))
	if results == nil {
		results = []models.Outlet{}
	}
	c.JSON(http.StatusOK, results)
}

// SelectOutlet publishes an outlet_selected event to map clients.
func (h *OutletHandler) SelectOutlet(c *gin.Context) {
	id := models.FlexID(c.Param("id"))

	outlet, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	h.Hub.PublishOutletSelected(outlet)
	c.JSON(http.StatusOK, gin.H{"selected": outlet.ID})
}

// ShowCatchment publishes a show_catchment event carrying the outlet's
// 5 km circle and the outlets inside it.
func (h *OutletHandler) ShowCatchment(c *gin.Context) {
	id := models.FlexID(c.Param("id"))

	outlet, ok := h.Store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Outlet not found"})
		return
	}

	within, _ := h.Store.Overlapping(id)
	h.Hub.PublishCatchment(outlet, geo.DefaultCatchmentRadiusKm, within)
	c.JSON(http.StatusOK, gin.H{
		"outlet":    outlet.ID,
		"radius_km": geo.DefaultCatchmentRadiusKm,
		"within":    len(within),
	})
}

// ClearCatchment publishes a clear_catchment event.
func (h *OutletHandler) ClearCatchment(c *gin.Context) {
	h.Hub.PublishClearCatchment()
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
