package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/tile-pairs-game/game/engine"
	"github.com/wricardo/tile-pairs-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tile Pairs",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tile Pairs - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Clear every stage by removing tiles in pairs before the clock runs out.

AVAILABLE TOOLS:
- create_session: Create a new game session
- list_sessions: List all active sessions
- get_session: Get session details and board
- board_state: Render the current board
- click_cell: Click the tile at a grid row/column
- click_point: Click a pixel position on the board
- hint: Get one pair that can be matched now
- reset_game: Restart at stage 1
- list_configs: List available board configurations
- game_instructions: Full rules and strategy notes`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the board config to use, see list_configs (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Render the current board as a grid of image keys",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "click_cell",
		Description: "Click the tile at a grid cell. Two clicks on matching, connectable tiles remove them.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row index, 0 is the top row",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column index, 0 is the left column",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleClickCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "click_point",
		Description: "Click a pixel position on the board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Horizontal pixel position",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Vertical pixel position",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleClickPoint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Find one pair of tiles that can be matched right now",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restart the game at stage 1 with a full clock",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, the stage movement table and strategy notes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// number reads a JSON number argument. JSON decoding yields float64.
func number(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Config: %s, Created: %s", s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"))
		if s.Board != nil {
			fmt.Fprintf(&result, ", Stage: %d, Tiles: %d", s.Board.Stage, s.Board.TileCount)
		}
		result.WriteString(")\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&snap)), nil
}

func (c *Client) handleClickCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/click")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	row, okRow := number(args, "row")
	col, okCol := number(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	body := map[string]int{"row": int(row), "col": int(col)}
	return c.click(ctx, path, body)
}

func (c *Client) handleClickPoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/click")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	x, okX := number(args, "x")
	y, okY := number(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required numbers"), nil
	}

	body := map[string]float64{"x": x, "y": y}
	return c.click(ctx, path, body)
}

func (c *Client) click(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var resp service.ClickResponse
	if err := c.apiCall(ctx, "POST", path, body, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatClickResponse(&resp)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/hint")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", path, nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !hint.Found {
		return mcp.NewToolResultText(hint.Message + "\nThe board may still be dealing or settling; try again shortly."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\nclick_cell row=%d col=%d, then row=%d col=%d",
		hint.Message, hint.First.Row, hint.First.Col, hint.Second.Row, hint.Second.Col)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string           `json:"message"`
		Board   *engine.Snapshot `json:"board"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatBoard(response.Board)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&result, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, %d tiles per face, Clock: %.0fs\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Columns, config.Rows, config.PairMultiplicity, config.StartingSeconds)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Tile Pairs - Complete Instructions

GAME OBJECTIVE:
Remove every tile from the board, one pair at a time, before the clock runs out.
Clearing the board advances to the next stage with a fresh deal and a full clock.

MATCHING RULES:
• Two tiles match when they show the same image key
• They must also connect through a path of horizontal and vertical segments
  with at most two turns, crossing only empty cells
• The path may leave the grid and run along the margin around it
• Clicking a tile selects it, clicking it again deselects it
• Clicking a second tile attempts the match

CLOCK:
• A successful match adds 1 to 5 seconds, more when the clock is low
• A failed match costs the configured penalty
• The clock also ticks down on a fixed period; at zero the game restarts at stage 1

STAGE MOVEMENT (after every match the remaining tiles settle):
• Stage 1, 5, 9, 13, 17, 21: tiles stay where they are
• Stage 2, 6: tiles fall down
• Stage 10, 14: tiles rise up
• Stage 3, 11: tiles slide left
• Stage 7, 15: tiles slide right
• Stage 4, 8, 12: tiles pack toward the board centre
• Stage 16, 20: tiles pack toward the outer edges
• Stage 18, 22: each half moves up or down at random
• Stage 19, 23: each half moves left or right at random
• Stage 24: a random mix of centre and edge packing
• Every fourth stage settles in two phases, columns first, then rows
• Stages past 24 repeat the cycle

BOARD STATE:
• Use board_state to see the grid. Row 0 is the top row, column 0 the left column
• "." marks an empty cell, [x] marks the selected tile
• While the board is dealing or settling, clicks are ignored; wait and retry

STRATEGY:
• Use hint when stuck, it always names a pair that connects right now
• Tiles on the outer ring connect easily through the margin
• After a match, re-read the board: the movement rule has rearranged it
• If no pair exists the board reshuffles itself

Good luck clearing the board!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatBoard(session.Board))
}

func formatBoard(snap *engine.Snapshot) string {
	if snap == nil {
		return "No board available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Stage: %d (%s) | Time: %.1f/%.0fs | Tiles: %d | State: %s\n",
		snap.Stage, snap.Policy, snap.RemainingSeconds, snap.StartingSeconds, snap.TileCount, snap.State)
	switch {
	case snap.Dealing:
		result.WriteString("Dealing, clicks are ignored until the deal completes\n")
	case snap.Settling:
		result.WriteString("Tiles are settling\n")
	}
	result.WriteString("\n")

	if snap.Rows <= 0 || snap.Columns <= 0 {
		return result.String()
	}

	cells := make([][]string, snap.Rows)
	for r := range cells {
		cells[r] = make([]string, snap.Columns)
	}
	width := 1
	for _, t := range snap.Tiles {
		if t.Row < 0 || t.Row >= snap.Rows || t.Col < 0 || t.Col >= snap.Columns {
			continue
		}
		label := string(t.Image)
		if t.Selected {
			label = "[" + label + "]"
		}
		cells[t.Row][t.Col] = label
		if len(label) > width {
			width = len(label)
		}
	}

	// Column header
	result.WriteString("    ")
	for c := 0; c < snap.Columns; c++ {
		fmt.Fprintf(&result, " %*d", width, c)
	}
	result.WriteString("\n")

	for r := 0; r < snap.Rows; r++ {
		fmt.Fprintf(&result, "%3d ", r)
		for c := 0; c < snap.Columns; c++ {
			label := cells[r][c]
			if label == "" {
				label = "."
			}
			fmt.Fprintf(&result, " %*s", width, label)
		}
		result.WriteString("\n")
	}

	if len(snap.Tiles) > 0 {
		fmt.Fprintf(&result, "\nRemaining: %s\n", strings.Join(imageCounts(snap), ", "))
	}

	return result.String()
}

func formatClickResponse(resp *service.ClickResponse) string {
	var result strings.Builder

	status := "✗"
	if resp.Success {
		status = "✓"
	}
	fmt.Fprintf(&result, "%s %s: %s\n", status, resp.Result, resp.Message)

	if resp.Result == engine.ClickMatched && len(resp.Path) > 0 {
		points := make([]string, len(resp.Path))
		for i, p := range resp.Path {
			points[i] = fmt.Sprintf("(%.0f,%.0f)", p.X, p.Y)
		}
		fmt.Fprintf(&result, "Path: %s\n", strings.Join(points, " -> "))
	}
	if resp.TimeDelta != 0 {
		fmt.Fprintf(&result, "Time: %+.1fs\n", resp.TimeDelta)
	}
	if resp.StageCleared {
		result.WriteString("Stage cleared!\n")
	}

	result.WriteString("\n")
	result.WriteString(formatBoard(resp.Board))
	return result.String()
}

// imageCounts tallies the tiles left per image key, sorted by key
func imageCounts(snap *engine.Snapshot) []string {
	counts := make(map[engine.ImageKey]int)
	for _, t := range snap.Tiles {
		counts[t.Image]++
	}
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		keys = append(keys, fmt.Sprintf("%s×%d", k, n))
	}
	sort.Strings(keys)
	return keys
}
