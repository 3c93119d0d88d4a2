// Package mcp exposes the chart cache and operating schedule as MCP tools.
package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/cache"
	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/config"
	"github.com/bobmcallan/timesup-portal/internal/schedule"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ChartSource serves chart data through the cache gateway.
type ChartSource interface {
	Serve(ctx context.Context, now time.Time, force bool) cache.Response
}

// ScheduleSource reports the operating schedule.
type ScheduleSource interface {
	Status(now time.Time) schedule.Status
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
	tools      []string
}

// NewHandler registers the chart tools on a stateless MCP server.
func NewHandler(chart ChartSource, oracle ScheduleSource, logger *common.Logger) *Handler {
	return newHandler(chart, oracle, time.Now, logger)
}

func newHandler(chart ChartSource, oracle ScheduleSource, now func() time.Time, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"timesup-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(ChartDataTool(), ChartDataToolHandler(chart, now))
	mcpSrv.AddTool(ScheduleTool(), ScheduleToolHandler(oracle, now))
	mcpSrv.AddTool(VersionTool(), VersionToolHandler())

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	tools := []string{chartDataToolName, scheduleToolName, versionToolName}
	logger.Info().Int("tools", len(tools)).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
		tools:      tools,
	}
}

// Tools returns the names of the registered tools.
func (h *Handler) Tools() []string {
	out := make([]string, len(h.tools))
	copy(out, h.tools)
	return out
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
