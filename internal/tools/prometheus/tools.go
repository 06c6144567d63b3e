package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/common/model"

	"github.com/promgate/promgate/internal/server"
)

// RegisterPrometheusTools registers Prometheus-related tools with the MCP server
func RegisterPrometheusTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Create Prometheus client
	client := NewClient(sc.PrometheusConfig(), sc.Logger())

	// execute_query tool
	executeQueryTool := mcp.NewTool("execute_query",
		mcp.WithDescription("Execute a PromQL instant query against Prometheus with optional pagination and compact mode"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("time",
			mcp.Description("Optional RFC3339 or Unix timestamp (default: current time)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (pagination)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of results to skip (pagination)"),
		),
		mcp.WithBoolean("compact",
			mcp.Description("Return results in compact format to reduce payload size"),
		),
	)

	s.AddTool(executeQueryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecuteQuery(ctx, request, client, sc)
	})

	// execute_range_query tool
	executeRangeQueryTool := mcp.NewTool("execute_range_query",
		mcp.WithDescription("Execute a PromQL range query with start time, end time, and step interval"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("PromQL query string"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time as RFC3339 or Unix timestamp"),
		),
		mcp.WithString("step",
			mcp.Required(),
			mcp.Description("Query resolution step width (e.g., '15s', '1m', '1h')"),
		),
	)

	s.AddTool(executeRangeQueryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExecuteRangeQuery(ctx, request, client, sc)
	})

	// list_metrics tool
	listMetricsTool := mcp.NewTool("list_metrics",
		mcp.WithDescription("List available metrics in Prometheus with optional filtering and pagination"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of metrics to return (pagination)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of metrics to skip (pagination)"),
		),
		mcp.WithString("filter_pattern",
			mcp.Description("Regex pattern to filter metric names"),
		),
		mcp.WithString("prefix",
			mcp.Description("Prefix to filter metric names (e.g., 'storage_' for storage metrics)"),
		),
	)

	s.AddTool(listMetricsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListMetrics(ctx, request, client, sc)
	})

	// get_metric_metadata tool
	getMetricMetadataTool := mcp.NewTool("get_metric_metadata",
		mcp.WithDescription("Get metadata for a specific metric"),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("The name of the metric to retrieve metadata for"),
		),
	)

	s.AddTool(getMetricMetadataTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetMetricMetadata(ctx, request, client, sc)
	})

	// get_targets tool
	getTargetsTool := mcp.NewTool("get_targets",
		mcp.WithDescription("Get information about scrape targets with optional pagination"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of targets to return (applies to active targets)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of targets to skip (applies to active targets)"),
		),
		mcp.WithBoolean("active_only",
			mcp.Description("Return only active targets (ignore dropped targets)"),
		),
	)

	s.AddTool(getTargetsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTargets(ctx, request, client, sc)
	})

	return nil
}

// requestParams extracts the argument map from a tool call request.
func requestParams(request mcp.CallToolRequest) map[string]interface{} {
	params := make(map[string]interface{})
	if request.Params.Arguments != nil {
		if argsMap, ok := request.Params.Arguments.(map[string]interface{}); ok {
			params = argsMap
		}
	}
	return params
}

// optionalInt reads a numeric argument that may be absent. Presence
// matters here: pagination only kicks in when the caller supplied a value.
func optionalInt(params map[string]interface{}, key string) *int {
	v, ok := params[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		i := n
		return &i
	case json.Number:
		if parsed, err := n.Int64(); err == nil {
			i := int(parsed)
			return &i
		}
	}
	return nil
}

// jsonResult marshals a shaped payload into a text content result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error encoding response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// validStep reports whether step is a Prometheus duration string or a
// float second count, the two forms the upstream accepts.
func validStep(step string) bool {
	if _, err := strconv.ParseFloat(step, 64); err == nil {
		return true
	}
	_, err := model.ParseDuration(step)
	return err == nil
}

// queryResponse is the shaped payload of execute_query and
// execute_range_query. The pagination block only appears when pagination
// parameters were supplied and the raw result was sequence-shaped.
type queryResponse struct {
	ResultType string              `json:"resultType"`
	Result     interface{}         `json:"result"`
	Pagination *PaginationMetadata `json:"pagination,omitempty"`
}

// handleExecuteQuery handles the execute_query tool
func handleExecuteQuery(ctx context.Context, request mcp.CallToolRequest, client *Client, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := requestParams(request)

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("Error: query parameter is required and must be a string"), nil
	}

	timeParam, _ := params["time"].(string)
	limit := optionalInt(params, "limit")
	offset := optionalInt(params, "offset")
	compact, _ := params["compact"].(bool)

	sc.Logger().Info("Executing instant query", "query", query, "time", timeParam, "limit", params["limit"], "offset", params["offset"], "compact", compact)

	data, err := client.Query(ctx, query, timeParam)
	if err != nil {
		sc.Logger().Error("Failed to execute query", "query", query, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error executing query: %v", err)), nil
	}

	response := queryResponse{
		ResultType: data.ResultType,
		Result:     data.Result,
	}

	items, isSequence := data.Result.([]interface{})
	if (limit != nil || offset != nil) && isSequence {
		pageData, pageMeta := paginate(items, limit, offset)
		shaped := &QueryResult{ResultType: data.ResultType, Result: pageData}
		if compact {
			shaped = compactQueryResult(shaped)
		}
		response.ResultType = shaped.ResultType
		response.Result = shaped.Result
		response.Pagination = &pageMeta
	} else if compact {
		shaped := compactQueryResult(&QueryResult{ResultType: data.ResultType, Result: data.Result})
		response.ResultType = shaped.ResultType
		response.Result = shaped.Result
	}

	returned := 1
	if resultItems, ok := response.Result.([]interface{}); ok {
		returned = len(resultItems)
	}
	sc.Logger().Info("Instant query completed", "query", query, "resultType", data.ResultType, "returned", returned, "compact", compact)

	return jsonResult(response)
}

// handleExecuteRangeQuery handles the execute_range_query tool
func handleExecuteRangeQuery(ctx context.Context, request mcp.CallToolRequest, client *Client, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := requestParams(request)

	query, ok := params["query"].(string)
	if !ok || query == "" {
		return mcp.NewToolResultError("Error: query parameter is required and must be a string"), nil
	}

	start, ok := params["start"].(string)
	if !ok || start == "" {
		return mcp.NewToolResultError("Error: start parameter is required and must be a string"), nil
	}

	end, ok := params["end"].(string)
	if !ok || end == "" {
		return mcp.NewToolResultError("Error: end parameter is required and must be a string"), nil
	}

	step, ok := params["step"].(string)
	if !ok || step == "" {
		return mcp.NewToolResultError("Error: step parameter is required and must be a string"), nil
	}
	if !validStep(step) {
		return mcp.NewToolResultError(fmt.Sprintf("Error: invalid step duration %q", step)), nil
	}

	sc.Logger().Info("Executing range query", "query", query, "start", start, "end", end, "step", step)

	data, err := client.QueryRange(ctx, query, start, end, step)
	if err != nil {
		sc.Logger().Error("Failed to execute range query", "query", query, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error executing range query: %v", err)), nil
	}

	sc.Logger().Info("Range query completed", "query", query, "resultType", data.ResultType)

	return jsonResult(queryResponse{
		ResultType: data.ResultType,
		Result:     data.Result,
	})
}

// metricsResponse is the shaped payload of list_metrics. Total and
// Pagination are mutually exclusive: the block present depends solely on
// whether pagination parameters were supplied.
type metricsResponse struct {
	Metrics    []string            `json:"metrics"`
	Total      *int                `json:"total,omitempty"`
	Pagination *PaginationMetadata `json:"pagination,omitempty"`
}

// handleListMetrics handles the list_metrics tool
func handleListMetrics(ctx context.Context, request mcp.CallToolRequest, client *Client, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := requestParams(request)

	limit := optionalInt(params, "limit")
	offset := optionalInt(params, "offset")
	filterPattern, _ := params["filter_pattern"].(string)
	prefix, _ := params["prefix"].(string)

	sc.Logger().Info("Listing available metrics", "limit", params["limit"], "offset", params["offset"], "filterPattern", filterPattern, "prefix", prefix)

	metrics, err := client.ListMetrics(ctx)
	if err != nil {
		sc.Logger().Error("Failed to list metrics", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error listing metrics: %v", err)), nil
	}

	filtered := filterMetricNames(metrics, prefix, filterPattern, sc.Logger())

	var response metricsResponse
	if limit != nil || offset != nil {
		items := make([]interface{}, len(filtered))
		for i, name := range filtered {
			items[i] = name
		}
		pageData, pageMeta := paginate(items, limit, offset)
		page := make([]string, len(pageData))
		for i, item := range pageData {
			page[i] = item.(string)
		}
		response = metricsResponse{
			Metrics:    page,
			Pagination: &pageMeta,
		}
	} else {
		total := len(filtered)
		response = metricsResponse{
			Metrics: filtered,
			Total:   &total,
		}
	}

	sc.Logger().Info("Metrics list retrieved", "totalMetrics", len(metrics), "filteredMetrics", len(filtered), "returnedMetrics", len(response.Metrics))

	return jsonResult(response)
}

// handleGetMetricMetadata handles the get_metric_metadata tool
func handleGetMetricMetadata(ctx context.Context, request mcp.CallToolRequest, client *Client, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := requestParams(request)

	metric, ok := params["metric"].(string)
	if !ok || metric == "" {
		return mcp.NewToolResultError("Error: metric parameter is required and must be a string"), nil
	}

	sc.Logger().Info("Retrieving metric metadata", "metric", metric)

	metadata, err := client.GetMetricMetadata(ctx, metric)
	if err != nil {
		sc.Logger().Error("Failed to get metric metadata", "metric", metric, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error getting metadata for metric '%s': %v", metric, err)), nil
	}

	sc.Logger().Info("Metric metadata retrieved", "metric", metric, "metadataCount", len(metadata))

	return jsonResult(metadata)
}

// targetsResponse is the shaped payload of get_targets. DroppedTargets is
// a pointer so an empty-but-present list still serializes when active_only
// is false, and the key disappears entirely when it is true.
type targetsResponse struct {
	ActiveTargets    []interface{}       `json:"activeTargets"`
	ActivePagination *PaginationMetadata `json:"activePagination,omitempty"`
	DroppedTargets   *[]interface{}      `json:"droppedTargets,omitempty"`
}

// handleGetTargets handles the get_targets tool
func handleGetTargets(ctx context.Context, request mcp.CallToolRequest, client *Client, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	params := requestParams(request)

	limit := optionalInt(params, "limit")
	offset := optionalInt(params, "offset")
	activeOnly, _ := params["active_only"].(bool)

	sc.Logger().Info("Retrieving scrape targets information", "limit", params["limit"], "offset", params["offset"], "activeOnly", activeOnly)

	targets, err := client.GetTargets(ctx)
	if err != nil {
		sc.Logger().Error("Failed to get targets", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Error getting targets: %v", err)), nil
	}

	response := targetsResponse{
		ActiveTargets: targets.ActiveTargets,
	}
	if limit != nil || offset != nil {
		pageData, pageMeta := paginate(targets.ActiveTargets, limit, offset)
		response.ActiveTargets = pageData
		response.ActivePagination = &pageMeta
	}
	if !activeOnly {
		dropped := targets.DroppedTargets
		if dropped == nil {
			dropped = []interface{}{}
		}
		response.DroppedTargets = &dropped
	}

	sc.Logger().Info("Scrape targets retrieved", "totalActiveTargets", len(targets.ActiveTargets), "returnedActiveTargets", len(response.ActiveTargets), "activeOnly", activeOnly)

	return jsonResult(response)
}
