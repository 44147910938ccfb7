package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/OutletRadar/outlet-api/handlers"
	"github.com/OutletRadar/outlet-api/services"
)

// SetupOutletRoutes wires the snapshot and geo endpoints.
func SetupOutletRoutes(rg *gin.RouterGroup, store *services.OutletStore, hub *handlers.MapHub) {
	h := handlers.NewOutletHandler(store, hub)

	rg.GET("/outlets", h.GetOutlets)
	rg.GET("/outlets/grouped", h.GetGroupedOutlets)
	rg.GET("/outlets/nearby", h.GetNearby)
	rg.GET("/outlets/search", h.SearchOutlets)
	rg.GET("/outlets/:id", h.GetOutlet)
	rg.GET("/outlets/:id/status", h.GetOutletStatus)

	// Map surface commands
	rg.POST("/map/select/:id", h.SelectOutlet)
	rg.POST("/map/catchment/:id", h.ShowCatchment)
	rg.DELETE("/map/catchment", h.ClearCatchment)
}

// SetupChatRoutes wires the assistant conversation endpoints.
func SetupChatRoutes(rg *gin.RouterGroup, upstream *services.UpstreamClient, hub *handlers.MapHub) {
	h := handlers.NewChatHandler(upstream, hub)

	rg.POST("/chat/conversations", h.CreateConversation)
	rg.GET("/chat/conversations/:id", h.GetConversation)
	rg.POST("/chat/conversations/:id/messages", h.SubmitMessage)
	rg.DELETE("/chat/conversations/:id", h.ClearConversation)
}
