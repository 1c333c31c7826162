package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/vectorrace/game/engine"
	"github.com/wricardo/mcp-training/vectorrace/game/service"
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
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Vector Race",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Vector Race - MCP Interface

This is a thin client that proxies all requests to the REST API server.

RACE OBJECTIVE:
Bot cars race on a tile track from start tiles (^) to a victory tile (-).
Every turn a car changes its velocity by at most one unit per axis.
Crossing a wall (#) or leaving the road crashes the car.

AVAILABLE TOOLS:
- create_race: Start a race session from a track file
- list_races: List race sessions
- get_race: Session details
- race_state: Current grid with car glyphs and car velocities
- step_race: Run one or more rounds
- run_race: Run until the race finishes
- race_history: Turn by turn history
- list_tracks: Available track files
- race_instructions: Full rules
- describe_tile: What occupies a grid cell`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Race session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_race",
		Description: "Create a new race session from a track file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Track file to race on (optional, defaults to the server default)",
				},
			},
		},
	}, c.handleCreateRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_races",
		Description: "List all active race sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRaces)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_race",
		Description: "Get details of a race session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_state",
		Description: "Get the current race grid, cars and status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRaceState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step_race",
		Description: "Run rounds of the race; every alive car takes one turn per round",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"rounds": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Rounds to run (default 1, max %d)", engine.MaxBulkRounds),
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStepRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_race",
		Description: "Run the race until it finishes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRunRace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_history",
		Description: "Get the turn history of a race with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Turns per page (default 20, max 100)",
				},
				"car": map[string]interface{}{
					"type":        "string",
					"description": "Only turns of this car glyph",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRaceHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_tracks",
		Description: "List the available track files",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListTracks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "race_instructions",
		Description: "Get the complete race rules and tile legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRaceInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe the tile and any car at a grid cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column, 0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row, 0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeTile)
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

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func sessionPath(sessionID string) string {
	return "/api/sessions/" + url.PathEscape(sessionID)
}

// Tool handlers

func (c *Client) handleCreateRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID, _ := arguments(request)["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created race: %s\nTrack: %s\n\n%s",
		session.ID, session.ConfigName, formatRaceState(session.RaceState))), nil
}

func (c *Client) handleListRaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Races (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "unknown"
		if s.RaceState != nil {
			status = string(s.RaceState.Status)
			if s.RaceState.Winner != "" {
				status += ", winner " + s.RaceState.Winner
			}
		}
		fmt.Fprintf(&b, "- %s (Track: %s, %s, Created: %s)\n",
			s.ID, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleRaceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.RaceState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID)+"/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRaceState(&state)), nil
}

func (c *Client) handleStepRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	rounds, ok := intArg(args, "rounds")
	if !ok {
		rounds = 1
	}

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID)+"/step", map[string]int{"rounds": rounds}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleRunRace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.StepResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID)+"/run", nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleRaceHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if car, _ := args["car"].(string); car != "" {
		params.Set("car", car)
	}

	path := sessionPath(sessionID) + "/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Tracks:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s\n  Grid: %dx%d, Start tiles: %d, Victory tiles: %d\n  Cars: %s\n\n",
			config.ConfigID, config.Width, config.Height, config.StartTiles, config.VictoryTiles,
			strings.Join(config.Strategies, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleRaceInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Vector Race - Complete Instructions

OBJECTIVE:
Be the first car to stop on a victory tile, or the last car still racing.

TILES:
  #  wall      - crossing or landing on it crashes the car
  ^  start     - cars are placed here in order, one per tile
  -  victory   - landing here wins the race
  .  road      - safe to drive over
  (space) air  - off the track, landing here crashes the car

MOVEMENT:
• Every car has a velocity (the last move), initially (0,0)
• Each turn a car picks one of 9 moves: its velocity plus a change of
  -1, 0 or +1 on each axis
• The whole segment from the old to the new position is checked;
  touching a wall anywhere on it is a crash
• Crashed cars leave the race

ROUNDS:
• In every round each alive car takes one turn, in the order of the track file
• The race ends when a car reaches a victory tile, when only one car of a
  multi-car race is left, or when no car is left

STRATEGIES:
• bfs-bot: shortest path (fewest turns) over its reachability graph
• dfs-bot: first path found depth-first
• random-bot: random non-crashing move
• stopped-bot: brakes toward standing still
• player: a human at the console (not available over the API)

TOOLS:
1. list_tracks to pick a track
2. create_race with its config_id
3. step_race to watch round by round, or run_race to finish
4. race_state and race_history to inspect the result`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var state engine.RaceState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID)+"/state", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeTile(&state, x, y)), nil
}

// describeTile explains the cell at (x, y) of a race snapshot
func describeTile(state *engine.RaceState, x, y int) string {
	if y < 0 || y >= len(state.Track) || x < 0 || x >= len([]rune(state.Track[y])) {
		return fmt.Sprintf("Cell (%d, %d) is outside the track. Anything out there counts as a crash.", x, y)
	}

	char := []rune(state.Track[y])[x]
	tile, err := engine.ParseTile(char)
	if err != nil {
		return fmt.Sprintf("Cell (%d, %d) holds unknown character %q", x, y, char)
	}

	var description string
	switch tile {
	case engine.Wall:
		description = "Wall - crossing or landing here crashes the car"
	case engine.Start:
		description = "Start tile - drivable"
	case engine.Victory:
		description = "Victory tile - landing here wins the race"
	case engine.Road:
		description = "Road - drivable"
	case engine.Air:
		description = "Air - off the track, landing here crashes the car"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell at (%d, %d):\nCharacter: %q\nTile: %s\n%s\n", x, y, char, tile, description)
	for _, car := range state.Cars {
		if car.Placed && car.Position == (engine.Vector2{X: x, Y: y}) {
			status := "alive"
			if !car.Alive {
				status = "out of the race"
			}
			fmt.Fprintf(&b, "Car %s (%s) is here, %s, velocity %v\n", car.Name, car.Strategy, status, car.Acceleration)
		}
	}
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Race: %s\nTrack: %s\nCreated: %s\nLast access: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339),
		formatRaceState(session.RaceState))
}

func formatRaceState(state *engine.RaceState) string {
	if state == nil {
		return "No race state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s | Round: %d | Turn: %d\n", state.Status, state.Round, state.Turn)
	if state.Status == engine.StatusFinished {
		if state.Winner != "" {
			fmt.Fprintf(&b, "🏁 WINNER: %s\n", state.Winner)
		} else {
			b.WriteString("🏁 FINISHED without a winner\n")
		}
	}
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	if len(state.Frame) > 0 {
		b.WriteString("\nGrid:\n")
		for _, row := range state.Frame {
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}

	if len(state.Cars) > 0 {
		b.WriteString("\nCars:\n")
		for _, car := range state.Cars {
			status := "racing"
			switch {
			case !car.Placed:
				status = "no start tile"
			case !car.Alive:
				status = "out"
			}
			fmt.Fprintf(&b, "  %s %-12s pos=%v vel=%v %s\n", car.Name, car.Strategy, car.Position, car.Acceleration, status)
		}
	}
	return b.String()
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rounds executed: %d/%d\n", result.RoundsExecuted, result.RequestedRounds)
	if result.Truncated {
		fmt.Fprintf(&b, "⚠️ Request truncated to %d rounds\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}

	if len(result.Events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, ev := range result.Events {
			fmt.Fprintf(&b, "  #%d [%s] %s\n", ev.Turn, ev.Type, ev.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatRaceState(result.RaceState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d, Total: %d turns)\n\n",
		history.Page, history.TotalPages, history.TotalTurns)

	for _, turn := range history.Turns {
		outcome := ""
		switch {
		case turn.Retired:
			outcome = " RETIRED: " + turn.Error
		case turn.Crashed:
			outcome = " CRASHED"
		case turn.Won:
			outcome = " WON"
		}
		fmt.Fprintf(&b, "#%d r%d %s %v -> %v vel=%v%s\n",
			turn.Turn, turn.Round, turn.Car, turn.From, turn.To, turn.Acceleration, outcome)
	}

	if history.HasNext {
		fmt.Fprintf(&b, "\nMore turns on page %d\n", history.Page+1)
	}
	return b.String()
}
