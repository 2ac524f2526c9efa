package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/presbrey/relayd/echoprom"
	"github.com/presbrey/relayd/echovalidator"
	"github.com/presbrey/relayd/irc"
)

// Stats is a point-in-time summary of the server
type Stats struct {
	Clients    int     `json:"clients"`
	Registered int     `json:"registered"`
	Channels   int     `json:"channels"`
	Uptime     float64 `json:"uptime"`
}

// ChannelInfo describes one channel for the admin API
type ChannelInfo struct {
	Name    string   `json:"name"`
	Topic   string   `json:"topic"`
	Modes   string   `json:"modes"`
	Members []string `json:"members"`
}

// NoticeRequest is the body of POST /api/channels/:name/notice
type NoticeRequest struct {
	Text string `json:"text" validate:"required,max=400"`
}

// Stats reports client and channel counts
func (s *Server) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.call(ctx, func() {
		stats.Clients = len(s.clients)
		for _, c := range s.clients {
			if c.registered {
				stats.Registered++
			}
		}
		stats.Channels = len(s.channels)
		stats.Uptime = time.Since(s.created).Seconds()
	})
	return stats, err
}

// Channels lists the channels sorted by name
func (s *Server) Channels(ctx context.Context) ([]ChannelInfo, error) {
	var infos []ChannelInfo
	err := s.call(ctx, func() {
		infos = make([]ChannelInfo, 0, len(s.channels))
		for _, ch := range s.channels {
			info := ChannelInfo{Name: ch.Name, Topic: ch.Topic, Modes: ch.ModeString(), Members: []string{}}
			for _, id := range ch.members {
				if member, ok := s.clients[id]; ok {
					info.Members = append(info.Members, member.nick)
				}
			}
			infos = append(infos, info)
		}
	})
	sort.Slice(infos, func(i, j int) bool { return irc.Fold(infos[i].Name) < irc.Fold(infos[j].Name) })
	return infos, err
}

// Notice sends a server NOTICE to every member of a channel
func (s *Server) Notice(ctx context.Context, channel, text string) error {
	var result error
	err := s.call(ctx, func() {
		ch, ok := s.channels[irc.Fold(channel)]
		if !ok {
			result = ErrNoSuchChannel
			return
		}
		s.broadcast(ch, (&irc.Message{Prefix: s.name(), Command: "NOTICE", Params: []string{ch.Name, text}}).String(), "")
		s.reap()
	})
	if err != nil {
		return err
	}
	return result
}

// Admin returns the admin HTTP handler, building it on first use
func (s *Server) Admin() *echo.Echo {
	if s.admin != nil {
		return s.admin
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	echovalidator.Setup(e)

	prom := echoprom.New(s.registry)
	e.Use(prom.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", prom.Handler())
	e.GET("/api/stats", s.handleStats)
	e.GET("/api/channels", s.handleChannels)
	e.POST("/api/channels/:name/notice", s.handleNotice)
	if s.config.WebSocket.Enabled {
		e.GET("/ws", s.handleWebSocket)
	}

	s.admin = e
	return e
}

// startAdmin binds the admin listener and serves it in the background
func (s *Server) startAdmin() error {
	e := s.Admin()

	ln, err := net.Listen("tcp", s.config.Admin.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Admin.Listen, err)
	}
	s.adminLn = ln
	e.Listener = ln

	go func() {
		if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("admin server failed", "err", err)
		}
	}()

	s.log.Info("admin server started", "addr", ln.Addr().String())
	return nil
}

// AdminAddr returns the admin listener address, or nil when not serving
func (s *Server) AdminAddr() net.Addr {
	if s.adminLn == nil {
		return nil
	}
	return s.adminLn.Addr()
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleChannels(c echo.Context) error {
	channels, err := s.Channels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, channels)
}

func (s *Server) handleNotice(c echo.Context) error {
	var req NoticeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if strings.ContainsAny(req.Text, "\r\n\x00") {
		return echo.NewHTTPError(http.StatusBadRequest, "text: must be a single line")
	}

	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid channel name")
	}

	switch err := s.Notice(c.Request().Context(), name, req.Text); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, ErrNoSuchChannel):
		return echo.NewHTTPError(http.StatusNotFound, "channel not found")
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
}
