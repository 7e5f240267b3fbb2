package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// roomInfo is the REST representation of a room.
type roomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// RegisterRoutes wires up the WebSocket endpoint and the small REST surface.
func (s *Server) RegisterRoutes() {
	s.E.GET("/ws", s.bridge.Handler())

	s.E.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": s.bridge.ClientCount(),
		})
	})

	s.E.GET("/api/rooms", func(c echo.Context) error {
		names := s.rooms.Rooms()
		out := make([]roomInfo, 0, len(names))
		for _, name := range names {
			out = append(out, roomInfo{
				Name:    name,
				Members: s.rooms.MemberCount(name),
			})
		}
		return c.JSON(http.StatusOK, out)
	})
}
