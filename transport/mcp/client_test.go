package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/wordbrain/game/board"
	"github.com/wricardo/wordbrain/game/service"
)

func testActiveBoard() *service.ActiveBoard {
	def := &board.Definition{
		ID:     "Animals_0",
		Size:   3,
		Words:  []string{"CAT", "DOG"},
		Layout: []string{"CAT", "DOG", "..."},
	}
	state := board.NewState(def)
	state.ApplyWordFound(board.WordFound{Word: "CAT", Tiles: []int{0, 1, 2}})
	state.RecordHint(board.HintLetter{WordIndex: 1, LetterIndex: 0})
	return &service.ActiveBoard{
		BoardID:  "Animals_0",
		Category: "Animals",
		State:    state,
		Hints:    2,
	}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"hints": 4})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]int
	if err := client.apiCall("GET", "/api/status", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["hints"] != 4 {
		t.Errorf("Expected hints 4, got %v", response["hints"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall("GET", "/api/status", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api/status", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got: %v", err)
		}
	})

	t.Run("error message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "no active board"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall("GET", "/api/board", nil, nil)
		if err == nil || err.Error() != "no active board" {
			t.Errorf("Expected 'no active board', got: %v", err)
		}
		if errors.Is(err, errNotSaved) {
			t.Error("Expected a plain error")
		}
	})

	t.Run("result that was not saved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":  "failed to persist progress: disk full",
				"result": map[string]int{"hints": 9},
			})
		}))
		defer server.Close()

		var response map[string]int
		err := NewClient(server.URL).apiCall("POST", "/api/hints", nil, &response)
		if !errors.Is(err, errNotSaved) {
			t.Fatalf("Expected errNotSaved, got: %v", err)
		}
		if response["hints"] != 9 {
			t.Errorf("Expected decoded result, got %v", response)
		}
	})
}

func TestClient_handleStartLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/levels/start" {
			t.Errorf("Expected POST /api/levels/start, got %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Category string `json:"category"`
			Index    int    `json:"index"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Category != "Animals" || body.Index != 0 {
			t.Errorf("Expected Animals/0, got %s/%d", body.Category, body.Index)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testActiveBoard())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleStartLevel(context.Background(), callRequest("start_level", map[string]interface{}{
		"category": "Animals",
		"index":    float64(0),
	}))
	if err != nil {
		t.Fatalf("handleStartLevel failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Animals #0", "Found: 1/2", "***", "DOG", "✓ CAT", "D__"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleStartLevel_MissingArgs(t *testing.T) {
	client := NewClient("http://localhost:0")

	result, err := client.handleStartLevel(context.Background(), callRequest("start_level", map[string]interface{}{
		"category": "Animals",
	}))
	if err != nil {
		t.Fatalf("handleStartLevel failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for missing index")
	}
}

func TestClient_handleReportWord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev board.WordFound
		json.NewDecoder(r.Body).Decode(&ev)
		if ev.Word != "DOG" || len(ev.Tiles) != 3 || ev.Tiles[2] != 5 || !ev.AllWordsFound {
			t.Errorf("Unexpected word event %+v", ev)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": "failed to persist progress: disk full",
			"result": service.WordFoundResult{
				Word:         ev.Word,
				Continuation: service.ContinueBoardComplete,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleReportWord(context.Background(), callRequest("report_word", map[string]interface{}{
		"word":            "DOG",
		"tiles":           []interface{}{float64(3), float64(4), float64(5)},
		"all_words_found": true,
	}))
	if err != nil {
		t.Fatalf("handleReportWord failed: %v", err)
	}
	if result.IsError {
		t.Fatal("Expected unsaved result to be reported, not failed")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "last word") {
		t.Errorf("Expected completion hint in result, got: %s", text)
	}
	if !strings.Contains(text, "Warning: progress not saved") {
		t.Errorf("Expected warning in result, got: %s", text)
	}
}

func TestClient_handleFinishAnimation(t *testing.T) {
	next := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"completed": true,
			"completion": service.Completion{
				BoardID:           "Daily Puzzle_1",
				Daily:             true,
				Award:             2,
				Hints:             5,
				NextDailyPuzzleAt: next,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleFinishAnimation(context.Background(), callRequest("finish_animation", nil))
	if err != nil {
		t.Fatalf("handleFinishAnimation failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Daily Puzzle_1 complete", "Awarded 2 hint(s)", "Hints: 5", "2026-05-11"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleNextHint_OutOfHints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(service.HintResult{OutOfHints: true})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleNextHint(context.Background(), callRequest("next_hint", nil))
	if err != nil {
		t.Fatalf("handleNextHint failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Out of hints") {
		t.Errorf("Expected 'Out of hints', got: %s", text)
	}
}

func TestClient_handleCategory_EscapesName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories/Daily Puzzle" {
			t.Errorf("Expected decoded path for Daily Puzzle, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":            "Daily Puzzle",
			"completed_count": 1,
			"levels": []map[string]interface{}{
				{"index": 0, "words": []string{"SUN"}, "completed": true},
				{"index": 1, "words": []string{"SKY"}, "completed": false},
			},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleCategory(context.Background(), callRequest("category", map[string]interface{}{
		"name": "Daily Puzzle",
	}))
	if err != nil {
		t.Fatalf("handleCategory failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Daily Puzzle (1/2 completed)") {
		t.Errorf("Expected category header, got: %s", text)
	}
}

func TestFormatStatus(t *testing.T) {
	status := &service.Status{
		Hints:                  3,
		ActiveLevelIndex:       -1,
		ActiveDailyPuzzleIndex: -1,
		CompletedLevels:        []string{"Animals_0"},
	}

	result := formatStatus(status)

	for _, field := range []string{"Hints: 3", "Active level: none", "Completed levels: 1"} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}
	if strings.Contains(result, "Daily puzzle") {
		t.Errorf("Expected no daily puzzle line, got: %s", result)
	}
}

func TestFormatBoard_Nil(t *testing.T) {
	if got := formatBoard(nil); got != "No board available" {
		t.Errorf("Expected 'No board available', got %q", got)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{"GAME OBJECTIVE:", "PLAYING A WORD:", "HINTS:", "DAILY PUZZLE:"} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}
