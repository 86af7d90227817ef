package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/internal/presentation/graph"
	"github.com/aretw0/rewind/pkg/schema"
	"github.com/aretw0/rewind/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	GraphURI        = "rewind://graph"
	ActionSchemaURI = "rewind://schemas/action"
)

// StepResponse is the structured result of the step tool.
type StepResponse struct {
	TrajectoryID string   `json:"trajectory_id" jsonschema_description:"The trajectory the action was applied to"`
	OK           bool     `json:"ok" jsonschema_description:"Whether the action was accepted"`
	Events       []string `json:"events" jsonschema_description:"Human-readable outcome of the step"`
	Executed     []string `json:"executed_nodes" jsonschema_description:"Execution history after the step"`
	StateKeys    []string `json:"state_keys" jsonschema_description:"Fields present in state after the step"`
	Steps        int      `json:"steps" jsonschema_description:"Number of actions submitted so far"`
}

// TrajectoryResponse is the structured result of the create_trajectory tool.
type TrajectoryResponse struct {
	ID       string         `json:"id" jsonschema_description:"Trajectory id to pass to step"`
	State    map[string]any `json:"state" jsonschema_description:"Current field values"`
	Executed []string       `json:"executed_nodes" jsonschema_description:"Execution history"`
	Steps    int            `json:"steps" jsonschema_description:"Number of actions submitted so far"`
}

// ReadinessResponse is the structured result of the check_readiness tool.
type ReadinessResponse struct {
	Passed bool          `json:"passed" jsonschema_description:"Whether GENERATE_REPORT would succeed"`
	Gates  []rewind.Gate `json:"gates" jsonschema_description:"Verdict of each readiness gate"`
}

// GraphResponse is the structured result of the get_graph tool.
type GraphResponse struct {
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart of the dependency graph"`
}

// Server exposes an Engine and its trajectories as MCP tools.
type Server struct {
	engine    *rewind.Engine
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *rewind.Engine, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("rewind-mcp", strings.TrimSpace(rewind.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("create_trajectory",
		mcp.WithDescription("Start an empty trajectory. Returns its id."),
		mcp.WithString("id", mcp.Description("Trajectory id (optional, generated when omitted)")),
		mcp.WithOutputSchema[TrajectoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("step",
		mcp.WithDescription("Apply one action (EXECUTE, ROLLBACK, CLARIFY or GENERATE_REPORT) to a trajectory. "+
			"The action is validated against the action schema first."),
		mcp.WithString("trajectory_id", mcp.Required(), mcp.Description("Trajectory id")),
		mcp.WithString("action", mcp.Required(), mcp.Description(`Action as a JSON object, e.g. {"type":"EXECUTE","node":"INTAKE","payload":{}}`)),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStep))

	s.mcpServer.AddTool(mcp.NewTool("preview_rollback",
		mcp.WithDescription("Compute which fields and nodes a rollback would clear, without changing anything."),
		mcp.WithString("node", mcp.Required(), mcp.Description("Node to roll back")),
		mcp.WithString("policy", mcp.Description("full_downstream (default), aggregate_only or custom")),
		mcp.WithOutputSchema[rewind.Scope](),
	), mcp.NewStructuredToolHandler(s.handlePreview))

	s.mcpServer.AddTool(mcp.NewTool("check_readiness",
		mcp.WithDescription("Run the report readiness gates against a trajectory without stepping it."),
		mcp.WithString("trajectory_id", mcp.Required(), mcp.Description("Trajectory id")),
		mcp.WithOutputSchema[ReadinessResponse](),
	), mcp.NewStructuredToolHandler(s.handleReadiness))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the node dependency graph as a Mermaid flowchart."),
		mcp.WithString("trajectory_id", mcp.Description("Overlay this trajectory's executed nodes (optional)")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleGraph))
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (TrajectoryResponse, error) {
	id, _ := args["id"].(string)
	traj, err := s.sessions.Create(ctx, id)
	if err != nil {
		return TrajectoryResponse{}, err
	}
	return TrajectoryResponse{ID: traj.ID, State: traj.State, Executed: traj.Executed, Steps: traj.Steps}, nil
}

func (s *Server) handleStep(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (StepResponse, error) {
	id, _ := args["trajectory_id"].(string)
	raw, err := actionArg(args["action"])
	if err != nil {
		return StepResponse{}, err
	}

	res, _, traj, err := s.sessions.Step(ctx, id, raw)
	if err != nil {
		return StepResponse{}, err
	}
	if !res.OK {
		s.logger.Debug("MCP step rejected", "trajectory_id", id, "events", res.Events)
	}
	return StepResponse{
		TrajectoryID: id,
		OK:           res.OK,
		Events:       res.Events,
		Executed:     traj.Executed,
		StateKeys:    traj.State.Keys(),
		Steps:        traj.Steps,
	}, nil
}

// actionArg accepts the action as a JSON string or, from clients that send objects, a map.
func actionArg(v any) (map[string]any, error) {
	switch a := v.(type) {
	case map[string]any:
		return a, nil
	case string:
		return schema.ParseAction([]byte(a))
	}
	return nil, errors.New("action must be a JSON object")
}

func (s *Server) handlePreview(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (rewind.Scope, error) {
	node, _ := args["node"].(string)
	policy, _ := args["policy"].(string)
	return s.engine.Preview(node, policy)
}

func (s *Server) handleReadiness(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ReadinessResponse, error) {
	id, _ := args["trajectory_id"].(string)
	traj, err := s.sessions.Load(ctx, id)
	if err != nil {
		return ReadinessResponse{}, err
	}
	gates := s.engine.Readiness(traj.State)
	passed := true
	for _, g := range gates {
		passed = passed && g.Passed
	}
	return ReadinessResponse{Passed: passed, Gates: gates}, nil
}

func (s *Server) handleGraph(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (GraphResponse, error) {
	var overlay *graph.Overlay
	if id, _ := args["trajectory_id"].(string); id != "" {
		traj, err := s.sessions.Load(ctx, id)
		if err != nil {
			return GraphResponse{}, fmt.Errorf("load failed: %w", err)
		}
		overlay = &graph.Overlay{Executed: traj.Executed}
	}
	return GraphResponse{Mermaid: graph.GenerateMermaid(s.engine.Config(), overlay)}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Node registry, dependency graph and rollback tables",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Config())
		if err != nil {
			return nil, fmt.Errorf("failed to encode configuration: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(ActionSchemaURI, "JSON Schema every action must satisfy",
		mcp.WithMIMEType("application/schema+json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: ActionSchemaURI, MIMEType: "application/schema+json", Text: string(schema.ActionSchema())},
		}, nil
	})
}
