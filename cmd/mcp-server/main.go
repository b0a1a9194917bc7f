package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"iaboy/internal/config"
	"iaboy/internal/emulator"
	"iaboy/internal/history"
	"iaboy/internal/llm"
	"iaboy/internal/reward"
	"iaboy/internal/session"
)

type ListGamesParams struct{}

type CreateSessionParams struct {
	GameID string `json:"game_id" mcp:"identifier of the game to play (see list_games)"`
	Mode   string `json:"mode" mcp:"control mode: human-only, ai-only, coop-turn or coop-blend"`
}

type StepParams struct {
	SessionID string `json:"session_id" mcp:"session to advance"`
	Action    string `json:"action,omitempty" mcp:"human action label like RIGHT or A+B; empty lets the AI act where the mode allows"`
	OptOut    bool   `json:"opt_out,omitempty" mcp:"skip the human's coop-turn slot so the AI acts"`
}

type ChatParams struct {
	SessionID string `json:"session_id" mcp:"session to chat in"`
	Message   string `json:"message" mcp:"message for the AI teammate"`
}

type SaveParams struct {
	SessionID string `json:"session_id" mcp:"session to snapshot"`
}

type LoadParams struct {
	SessionID string `json:"session_id" mcp:"session to restore"`
	State     string `json:"state" mcp:"base64 state blob returned by save_session"`
}

type CloseParams struct {
	SessionID string `json:"session_id" mcp:"session to close"`
}

// GameServer exposes the session core as MCP tools so an MCP client can
// drive the same operations the HTTP API offers.
type GameServer struct {
	manager *session.Manager
	catalog *emulator.Catalog
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil
}

func errorResult(format string, args ...any) (*mcp.CallToolResultFor[any], error) {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("❌ "+format, args...)}},
	}, nil
}

func (g *GameServer) ListGames(ctx context.Context, _ *mcp.ServerSession, _ *mcp.CallToolParamsFor[ListGamesParams]) (*mcp.CallToolResultFor[any], error) {
	return jsonResult(map[string]any{"games": g.catalog.IDs()})
}

func (g *GameServer) CreateSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[CreateSessionParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	mode, err := session.ParseMode(args.Mode)
	if err != nil {
		return errorResult("invalid mode: %v", err)
	}
	s, err := g.manager.Create(ctx, args.GameID, mode)
	if err != nil {
		return errorResult("failed to create session: %v", err)
	}
	return jsonResult(s.Snapshot())
}

func (g *GameServer) StepSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[StepParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	var human *session.HumanInput
	if args.Action != "" || args.OptOut {
		human = &session.HumanInput{Label: args.Action, OptOut: args.OptOut}
	}
	res, err := g.manager.Step(ctx, args.SessionID, human)
	if err != nil {
		return errorResult("step failed: %v", err)
	}
	return jsonResult(map[string]any{
		"observation":      res.Observation,
		"reward":           res.Reward.Reward,
		"tags":             res.Reward.Tags,
		"action_taken":     res.ActionLabel,
		"actor":            res.Actor,
		"ai_fallback":      res.AIFallback,
		"overridden_human": res.OverrodeHuman,
	})
}

func (g *GameServer) ChatSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ChatParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	reply, err := g.manager.Chat(ctx, args.SessionID, args.Message)
	if err != nil {
		return errorResult("chat failed: %v", err)
	}
	return jsonResult(map[string]any{"reply": reply})
}

func (g *GameServer) SaveSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[SaveParams]) (*mcp.CallToolResultFor[any], error) {
	blob, err := g.manager.Save(ctx, params.Arguments.SessionID)
	if err != nil {
		return errorResult("save failed: %v", err)
	}
	return jsonResult(map[string]any{"state": base64.StdEncoding.EncodeToString(blob)})
}

func (g *GameServer) LoadSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[LoadParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	blob, err := base64.StdEncoding.DecodeString(args.State)
	if err != nil {
		return errorResult("state must be base64: %v", err)
	}
	obs, err := g.manager.Load(ctx, args.SessionID, blob)
	if err != nil {
		return errorResult("load failed: %v", err)
	}
	return jsonResult(map[string]any{"observation": obs})
}

func (g *GameServer) CloseSession(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[CloseParams]) (*mcp.CallToolResultFor[any], error) {
	_ = g.manager.Close(params.Arguments.SessionID)
	return jsonResult(map[string]any{"closed": true})
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	oracle, err := llm.NewFactory(cfg).CreateClient(cfg.LLMProvider, cfg.LLMModel)
	if err != nil {
		log.Fatalf("❌ failed to create llm client: %v", err)
	}

	catalog := emulator.NewCatalog(cfg.RomsPath)
	hist := history.NewManager(cfg.HistoryMaxTurns, cfg.HistoryMaxChars)
	arbiter := session.NewArbiter(oracle, hist, session.ArbiterConfig{
		OracleTimeout: cfg.OracleTimeout,
		FallbackLabel: cfg.DefaultAction,
		PromptTurns:   cfg.PromptTurns,
	})
	manager := session.NewManager(
		catalog,
		emulator.SyntheticFactory(cfg.FrameSkip),
		arbiter,
		hist,
		reward.New(cfg.RewardWeights),
		nil,
		cfg.SaveStatesPath,
		cfg.AutosaveIntervalSteps,
	)
	defer manager.Shutdown()

	log.Printf("🚀 Starting IAboy session MCP server")

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "iaboy-session-mcp",
		Version: "1.0.0",
	}, nil)

	game := &GameServer{manager: manager, catalog: catalog}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_games",
		Description: "Lists the game identifiers available in the catalog",
	}, game.ListGames)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_session",
		Description: "Creates a new emulator session for a game and control mode",
	}, game.CreateSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "step_session",
		Description: "Advances a session by exactly one emulator step",
	}, game.StepSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_session",
		Description: "Chats with the AI teammate without driving an emulator action",
	}, game.ChatSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "save_session",
		Description: "Serializes the session's emulator state into a base64 blob",
	}, game.SaveSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "load_session",
		Description: "Restores a session from a blob produced by save_session",
	}, game.LoadSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "close_session",
		Description: "Closes a session and releases its emulator",
	}, game.CloseSession)

	log.Printf("📋 Registered 7 tools: list_games, create_session, step_session, chat_session, save_session, load_session, close_session")
	log.Printf("🔗 Starting server on stdin/stdout...")

	transport := mcp.NewStdioTransport()
	if err := server.Run(context.Background(), transport); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
