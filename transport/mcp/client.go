package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/service"
)

// errNotSaved marks API responses where the operation succeeded but the
// progress could not be written.
var errNotSaved = errors.New("progress not saved")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
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
		"WordBrain",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`WordBrain - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every hidden word on the letter grid. Levels are grouped in categories
and unlock one after another; a daily puzzle rotates every calendar day.

AVAILABLE TOOLS:
- status: Hints, active board and saved progress
- categories / category: Browse categories and level completion
- start_level / start_daily: Start or resume a board
- board: Show the active board
- report_word: Report a found word with its tile indexes
- finish_animation: Complete the found-word step (awards hints on the last word)
- dismiss_completion: Leave the completion screen and go to the next level
- next_hint / add_hints: Reveal letters and add hint credits
- restart_board, save, reset_progress
- game_instructions: Full rules

Tiles are numbered row by row from 0 (top left).`),
	)

	// Register all tools
	c.registerTools()
}

func noArgs() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Progress
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "status",
		Description: "Get hints, the active board and saved progress",
		InputSchema: noArgs(),
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save",
		Description: "Persist the current progress",
		InputSchema: noArgs(),
	}, c.handleSave)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_progress",
		Description: "Discard all progress: hints, saved boards and completed levels",
		InputSchema: noArgs(),
	}, c.handleResetProgress)

	// Categories
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "categories",
		Description: "List categories with completed level counts",
		InputSchema: noArgs(),
	}, c.handleCategories)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "category",
		Description: "List the levels of one category and which are completed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Category name",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleCategory)

	// Levels
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_level",
		Description: "Start or resume a level of a category",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Category name",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Zero-based level index",
				},
			},
			Required: []string{"category", "index"},
		},
	}, c.handleStartLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_daily",
		Description: "Start or resume today's daily puzzle",
		InputSchema: noArgs(),
	}, c.handleStartDaily)

	// Board
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board",
		Description: "Show the active board with its grid, words and revealed hint letters",
		InputSchema: noArgs(),
	}, c.handleBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_board",
		Description: "Clear found words on the active board; revealed hint letters stay",
		InputSchema: noArgs(),
	}, c.handleRestartBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "report_word",
		Description: "Report a found word and the tiles it was traced on",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{
					"type":        "string",
					"description": "The word, exactly as listed on the board",
				},
				"tiles": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "integer",
					},
					"description": "Row-major tile indexes, one per letter",
				},
				"all_words_found": map[string]interface{}{
					"type":        "boolean",
					"description": "Set when this was the last word of the board",
				},
			},
			Required: []string{"word", "tiles"},
		},
	}, c.handleReportWord)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "finish_animation",
		Description: "Finish the found-word step; completes the board when the last word was found",
		InputSchema: noArgs(),
	}, c.handleFinishAnimation)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "dismiss_completion",
		Description: "Leave the completion screen; starts the next level when there is one",
		InputSchema: noArgs(),
	}, c.handleDismissCompletion)

	// Hints
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_hint",
		Description: "Spend one hint to reveal the next letter",
		InputSchema: noArgs(),
	}, c.handleNextHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_hints",
		Description: "Add hint credits",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"amount": map[string]interface{}{
					"type":        "integer",
					"description": "Number of hints to add (default 1)",
				},
			},
		},
	}, c.handleAddHints)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the full rules of the game",
		InputSchema: noArgs(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP call to the REST API. When the API reports that the
// operation succeeded but was not saved, result is still decoded and the
// returned error wraps errNotSaved.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
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
		var errResp struct {
			Error  string          `json:"error"`
			Result json.RawMessage `json:"result"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error == "" {
			return fmt.Errorf("API error: %d", resp.StatusCode)
		}
		if len(errResp.Result) > 0 && string(errResp.Result) != "null" {
			if result != nil {
				if err := json.Unmarshal(errResp.Result, result); err != nil {
					return err
				}
			}
			return fmt.Errorf("%w: %s", errNotSaved, errResp.Error)
		}
		return fmt.Errorf("%s", errResp.Error)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// call runs an API call and renders its result. Unsaved results are shown
// with a warning instead of failing the tool.
func (c *Client) call(method, path string, body, result interface{}, format func() string) (*mcp.CallToolResult, error) {
	err := c.apiCall(method, path, body, result)
	if err != nil && !errors.Is(err, errNotSaved) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := format()
	if err != nil {
		text += "\n\nWarning: " + err.Error()
	}
	return mcp.NewToolResultText(text), nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// Progress handlers

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status service.Status
	return c.call("GET", "/api/status", nil, &status, func() string {
		return formatStatus(&status)
	})
}

func (c *Client) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.call("POST", "/api/save", nil, nil, func() string {
		return "Progress saved"
	})
}

func (c *Client) handleResetProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.call("POST", "/api/reset", nil, nil, func() string {
		return "Progress reset"
	})
}

// Category handlers

func (c *Client) handleCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count      int                       `json:"count"`
		Categories []service.CategorySummary `json:"categories"`
	}
	return c.call("GET", "/api/categories", nil, &response, func() string {
		var result strings.Builder
		result.WriteString(fmt.Sprintf("Categories (%d):\n", response.Count))
		for _, cat := range response.Categories {
			mark := " "
			if cat.AllCompleted {
				mark = "✓"
			}
			result.WriteString(fmt.Sprintf("%s %s - %d/%d", mark, cat.Name, cat.CompletedCount, cat.LevelCount))
			if cat.Description != "" {
				result.WriteString(" - " + cat.Description)
			}
			result.WriteString("\n")
		}
		return result.String()
	})
}

// categoryView mirrors the API's category detail response.
type categoryView struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	CompletedCount int    `json:"completed_count"`
	Levels         []struct {
		Index     int      `json:"index"`
		BoardID   string   `json:"board_id"`
		Words     []string `json:"words"`
		Completed bool     `json:"completed"`
	} `json:"levels"`
}

func (c *Client) handleCategory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var view categoryView
	return c.call("GET", "/api/categories/"+url.PathEscape(name), nil, &view, func() string {
		var result strings.Builder
		result.WriteString(fmt.Sprintf("%s (%d/%d completed)\n", view.Name, view.CompletedCount, len(view.Levels)))
		for _, level := range view.Levels {
			mark := " "
			if level.Completed {
				mark = "✓"
			}
			result.WriteString(fmt.Sprintf("%s %d: %d words\n", mark, level.Index, len(level.Words)))
		}
		return result.String()
	})
}

// Level handlers

func (c *Client) handleStartLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	category, _ := args["category"].(string)
	index, ok := args["index"].(float64)
	if category == "" || !ok {
		return mcp.NewToolResultError("category and index are required"), nil
	}

	body := map[string]interface{}{
		"category": category,
		"index":    int(index),
	}

	var active service.ActiveBoard
	return c.call("POST", "/api/levels/start", body, &active, func() string {
		return formatBoard(&active)
	})
}

func (c *Client) handleStartDaily(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var active service.ActiveBoard
	return c.call("POST", "/api/daily/start", nil, &active, func() string {
		return formatBoard(&active)
	})
}

// Board handlers

func (c *Client) handleBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var active service.ActiveBoard
	return c.call("GET", "/api/board", nil, &active, func() string {
		return formatBoard(&active)
	})
}

func (c *Client) handleRestartBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var active service.ActiveBoard
	return c.call("POST", "/api/board/restart", nil, &active, func() string {
		return "Board restarted\n\n" + formatBoard(&active)
	})
}

func (c *Client) handleReportWord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	word, _ := args["word"].(string)
	if word == "" {
		return mcp.NewToolResultError("word is required"), nil
	}

	var tiles []int
	if raw, ok := args["tiles"].([]interface{}); ok {
		for _, t := range raw {
			n, ok := t.(float64)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("invalid tile index: %v", t)), nil
			}
			tiles = append(tiles, int(n))
		}
	}
	allFound, _ := args["all_words_found"].(bool)

	body := board.WordFound{Word: word, Tiles: tiles, AllWordsFound: allFound}

	var result service.WordFoundResult
	return c.call("POST", "/api/board/words", body, &result, func() string {
		return formatWordFound(&result)
	})
}

func (c *Client) handleFinishAnimation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Completed  bool                `json:"completed"`
		Completion *service.Completion `json:"completion"`
	}
	return c.call("POST", "/api/board/animation-complete", nil, &response, func() string {
		if !response.Completed || response.Completion == nil {
			return "Keep going, the board is not complete yet"
		}
		return formatCompletion(response.Completion)
	})
}

func (c *Client) handleDismissCompletion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var transition service.Transition
	return c.call("POST", "/api/board/completion/dismiss", nil, &transition, func() string {
		if transition.Screen == service.ScreenGame && transition.Board != nil {
			return "Next level\n\n" + formatBoard(transition.Board)
		}
		return fmt.Sprintf("Back to the %s screen", transition.Screen)
	})
}

// Hint handlers

func (c *Client) handleNextHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var result service.HintResult
	return c.call("POST", "/api/hints/next", nil, &result, func() string {
		switch {
		case result.OutOfHints:
			return "Out of hints. Use add_hints to get more."
		case !result.Revealed || result.Hint == nil:
			return "Every letter is already revealed"
		}
		text := fmt.Sprintf("Revealed %q (word %d, letter %d) | Hints left: %d",
			result.Letter, result.Hint.WordIndex+1, result.Hint.LetterIndex+1, result.Hints)
		if result.Board != nil {
			text += "\n\n" + formatBoard(result.Board)
		}
		return text
	})
}

func (c *Client) handleAddHints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	amount := 1
	if n, ok := arguments(request)["amount"].(float64); ok {
		amount = int(n)
	}

	var response map[string]int
	return c.call("POST", "/api/hints", map[string]int{"amount": amount}, &response, func() string {
		return fmt.Sprintf("Hints: %d", response["hints"])
	})
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `WordBrain - Complete Instructions

GAME OBJECTIVE:
Every board is a square grid of letters hiding a list of words. Find all the
words to complete the board.

READING THE BOARD:
- Tiles are numbered row by row starting at 0 in the top left corner
- A "." is an empty tile
- A "*" is a tile already used by a found word
- Words are listed with their length; revealed hint letters are shown in place

PLAYING A WORD:
1. Call report_word with the word and the tile index of every letter, in order
2. Call finish_animation
3. If the board is complete, call dismiss_completion to move on

Words that are not on the board, or tiles outside the grid, are ignored.

HINTS:
- next_hint spends one hint and reveals the next hidden letter, word by word
- Completing a level awards 1 hint, the first completion only
- Completing the daily puzzle awards 2 hints
- add_hints adds credits directly

CATEGORIES:
Levels of a category are played in order. After the last level of a category
dismiss_completion returns to the category list.

DAILY PUZZLE:
start_daily picks a board from the daily pool. After it is completed, a new one
is picked on the next calendar day.

Progress is saved after every change. Use status to see where you are.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting

func formatStatus(status *service.Status) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Hints: %d\n", status.Hints))
	if status.ActiveCategory != "" {
		result.WriteString(fmt.Sprintf("Active level: %s #%d\n", status.ActiveCategory, status.ActiveLevelIndex))
	} else {
		result.WriteString("Active level: none\n")
	}
	if status.ActiveDailyPuzzleIndex >= 0 {
		result.WriteString(fmt.Sprintf("Daily puzzle: #%d\n", status.ActiveDailyPuzzleIndex))
	}
	if !status.NextDailyPuzzleAt.IsZero() {
		result.WriteString(fmt.Sprintf("Next daily puzzle: %s\n", status.NextDailyPuzzleAt.Format("2006-01-02 15:04")))
	}
	result.WriteString(fmt.Sprintf("Saved boards: %d | Completed levels: %d\n", len(status.SavedBoards), len(status.CompletedLevels)))
	if status.Pending != "" {
		result.WriteString(fmt.Sprintf("Pending: %s\n", status.Pending))
	}
	if status.Board != nil {
		result.WriteString("\n" + formatBoard(status.Board))
	}

	return result.String()
}

func formatBoard(active *service.ActiveBoard) string {
	if active == nil || active.State == nil {
		return "No board available"
	}
	state := active.State

	var result strings.Builder
	label := fmt.Sprintf("%s #%d", active.Category, active.LevelIndex)
	if active.Daily {
		label = "Daily puzzle"
	}
	result.WriteString(fmt.Sprintf("%s (%s) | Found: %d/%d | Hints: %d\n\n",
		label, active.BoardID, state.FoundCount(), len(state.Words), active.Hints))

	// Grid
	for y := 0; y < state.Size; y++ {
		for x := 0; x < state.Size; x++ {
			i := y*state.Size + x
			if i >= len(state.TileStates) {
				break
			}
			switch {
			case state.TileLetters[i] == board.EmptyLetter:
				result.WriteString(".")
			case state.TileStates[i] == board.Found:
				result.WriteString("*")
			default:
				result.WriteString(string(state.TileLetters[i]))
			}
		}
		result.WriteString("\n")
	}

	// Words
	result.WriteString("\nWords:\n")
	for wi, word := range state.Words {
		if state.FoundWords[wi] {
			result.WriteString(fmt.Sprintf("✓ %s\n", word))
			continue
		}
		revealed := state.RevealedLetters(wi)
		var masked strings.Builder
		for li, r := range []rune(word) {
			if revealed[li] {
				masked.WriteRune(r)
			} else {
				masked.WriteString("_")
			}
		}
		result.WriteString(fmt.Sprintf("  %s (%d letters)\n", masked.String(), len([]rune(word))))
	}

	return result.String()
}

func formatWordFound(result *service.WordFoundResult) string {
	var text string
	switch {
	case result.Ignored:
		text = fmt.Sprintf("✗ %s was ignored", result.Word)
	case result.Continuation == service.ContinueBoardComplete:
		text = fmt.Sprintf("✓ %s found. That was the last word, call finish_animation.", result.Word)
	default:
		text = fmt.Sprintf("✓ %s found. Call finish_animation to continue.", result.Word)
	}
	if result.Board != nil {
		text += "\n\n" + formatBoard(result.Board)
	}
	return text
}

func formatCompletion(completion *service.Completion) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("🎉 %s complete!\n", completion.BoardID))
	if completion.Award > 0 {
		result.WriteString(fmt.Sprintf("Awarded %d hint(s)\n", completion.Award))
	}
	result.WriteString(fmt.Sprintf("Hints: %d\n", completion.Hints))
	if completion.Daily && !completion.NextDailyPuzzleAt.IsZero() {
		result.WriteString(fmt.Sprintf("Next daily puzzle: %s\n", completion.NextDailyPuzzleAt.Format("2006-01-02 15:04")))
	}
	result.WriteString("Call dismiss_completion to continue.")
	return result.String()
}
