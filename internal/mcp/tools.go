package mcp

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	chartDataToolName = "get_chart_data"
	scheduleToolName  = "get_schedule"
)

// chartDataResult is the get_chart_data payload. Data is the upstream JSON
// as stored in the cache.
type chartDataResult struct {
	Freshness     string          `json:"freshness"`
	MaxAgeSeconds int             `json:"max_age_seconds"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Data          json.RawMessage `json:"data"`
}

// ChartDataTool returns the mcp.Tool definition for get_chart_data.
func ChartDataTool() mcp.Tool {
	return mcp.NewTool(chartDataToolName,
		mcp.WithDescription("Get the current chart data. Served from cache while it is fresh; refreshed from upstream otherwise."),
		mcp.WithBoolean("test_operating_hours",
			mcp.Description("Apply the short test-mode TTL when a fresh payload is fetched."),
		),
	)
}

// ChartDataToolHandler serves chart data through the cache gateway.
func ChartDataToolHandler(chart ChartSource, now func() time.Time) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		force := r.GetBool("test_operating_hours", false)

		resp := chart.Serve(ctx, now(), force)
		if !resp.OK() {
			return errorResult("Failed to fetch chart data"), nil
		}

		return jsonResult(chartDataResult{
			Freshness:     string(resp.Freshness),
			MaxAgeSeconds: resp.MaxAgeSeconds,
			ExpiresAt:     resp.ExpiresAt.UTC(),
			Data:          json.RawMessage(resp.Payload),
		}), nil
	}
}

// ScheduleTool returns the mcp.Tool definition for get_schedule.
func ScheduleTool() mcp.Tool {
	return mcp.NewTool(scheduleToolName,
		mcp.WithDescription("Get the operating schedule status: whether the window is open now and when the next one starts."),
	)
}

// ScheduleToolHandler reports the schedule status at the current time.
func ScheduleToolHandler(oracle ScheduleSource, now func() time.Time) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(oracle.Status(now())), nil
	}
}
