package server

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/bgeffect-mcp/internal/effect"
	"github.com/ironsheep/bgeffect-mcp/internal/imaging"
	"github.com/ironsheep/bgeffect-mcp/internal/mask"
	"github.com/ironsheep/bgeffect-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "session_init", "session_process_frame").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Session errors carry their kind as the message prefix, e.g.
// "dimension_mismatch: mask has 100 pixels, want 400 for 20x20".
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves the session from the registry
//  3. Loads frame and mask images at the session's working resolution
//  4. Calls the session worker
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Lifecycle
	case "session_init":
		return s.handleSessionInit(args)
	case "session_process_frame":
		return s.handleSessionProcessFrame(ctx, args)
	case "session_feedback":
		return s.handleSessionFeedback(ctx, args)
	case "session_set_effect":
		return s.handleSessionSetEffect(args)
	case "session_reset":
		return s.handleSessionReset(ctx, args)
	case "session_finalize":
		return s.handleSessionFinalize(ctx, args)

	// Introspection
	case "session_status":
		return s.handleSessionStatus(args)
	case "session_mask_preview":
		return s.handleSessionMaskPreview(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// effectArgs are the optional effect fields shared by several tools.
type effectArgs struct {
	Effect       *string  `json:"effect"`
	BlurRadius   *float64 `json:"blur_radius"`
	ReplaceColor *string  `json:"replace_color"`
}

func (a effectArgs) set() bool {
	return a.Effect != nil || a.BlurRadius != nil || a.ReplaceColor != nil
}

// apply overlays the fields present in a onto base.
func (a effectArgs) apply(base effect.Params) (effect.Params, error) {
	p := base
	if a.Effect != nil {
		kind, err := effect.ParseKind(*a.Effect)
		if err != nil {
			return base, err
		}
		p.Kind = kind
	}
	if a.BlurRadius != nil {
		p.BlurRadius = *a.BlurRadius
	}
	if a.ReplaceColor != nil {
		p.ReplaceColor = *a.ReplaceColor
	}
	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// === Lifecycle Handlers ===

type sessionInitArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	effectArgs
}

// SessionInfo identifies a session and its state.
type SessionInfo struct {
	SessionID string           `json:"session_id"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	State     session.State    `json:"state"`
	Effect    effect.Params    `json:"effect"`
	Notices   []session.Notice `json:"notices,omitempty"`
}

func (s *Server) handleSessionInit(args json.RawMessage) (interface{}, error) {
	var a sessionInitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	opts := s.tuning.SessionOptions(s.logger)
	fx, err := a.apply(opts.Effect)
	if err != nil {
		return nil, err
	}
	opts.Effect = fx

	sess, err := session.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := sess.Init(a.Width, a.Height); err != nil {
		return nil, err
	}

	s.addSession(session.NewWorker(sess, workerQueue))

	st := sess.Status()
	return &SessionInfo{
		SessionID: st.ID,
		Width:     st.Width,
		Height:    st.Height,
		State:     st.State,
		Effect:    st.Effect,
		Notices:   sess.DrainNotices(),
	}, nil
}

type sessionProcessFrameArgs struct {
	SessionID  string `json:"session_id"`
	FramePath  string `json:"frame_path"`
	MaskPath   string `json:"mask_path"`
	OutputPath string `json:"output_path"`
	effectArgs
}

// FrameResult is one rendered frame.
type FrameResult struct {
	*imaging.EncodeResult
	Seq     uint64           `json:"seq"`
	Notices []session.Notice `json:"notices,omitempty"`
}

func (s *Server) handleSessionProcessFrame(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionProcessFrameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.FramePath == "" {
		return nil, fmt.Errorf("frame_path is required")
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	st := w.Session().Status()

	var frame session.Frame
	if frame.Pixels, err = imaging.LoadFrame(a.FramePath, st.Width, st.Height); err != nil {
		return nil, fmt.Errorf("failed to load frame: %w", err)
	}
	if a.MaskPath != "" {
		if frame.Mask, err = imaging.LoadMask(a.MaskPath, st.Width, st.Height); err != nil {
			return nil, fmt.Errorf("failed to load mask: %w", err)
		}
	}
	if a.effectArgs.set() {
		fx, err := a.apply(st.Effect)
		if err != nil {
			return nil, err
		}
		frame.Effect = &fx
	}

	res, err := w.ProcessFrame(ctx, frame)
	if err != nil {
		return nil, err
	}

	enc, err := imaging.EncodeFrame(res.Pixels, res.Width, res.Height, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &FrameResult{EncodeResult: enc, Seq: res.Seq, Notices: res.Notices}, nil
}

type sessionFeedbackArgs struct {
	SessionID  string  `json:"session_id"`
	Kind       string  `json:"kind"`
	RegionPath string  `json:"region_path"`
	Influence  float64 `json:"influence"`
	Queue      bool    `json:"queue"`
}

// FeedbackResult reports how a feedback event was handled.
type FeedbackResult struct {
	SessionID string           `json:"session_id"`
	State     session.State    `json:"state"`
	Queued    bool             `json:"queued"`
	Notices   []session.Notice `json:"notices,omitempty"`
}

func (s *Server) handleSessionFeedback(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionFeedbackArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	kind, err := mask.ParseFeedbackKind(a.Kind)
	if err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}

	fb := mask.Feedback{Kind: kind, Influence: a.Influence}
	if a.RegionPath != "" {
		st := w.Session().Status()
		if fb.Region, err = imaging.LoadMask(a.RegionPath, st.Width, st.Height); err != nil {
			return nil, fmt.Errorf("failed to load region: %w", err)
		}
	}

	if a.Queue {
		err = w.QueueFeedback(ctx, fb)
	} else {
		err = w.Feedback(ctx, fb)
	}
	if err != nil {
		return nil, err
	}

	sess := w.Session()
	return &FeedbackResult{
		SessionID: sess.ID(),
		State:     sess.Status().State,
		Queued:    a.Queue,
		Notices:   sess.DrainNotices(),
	}, nil
}

type sessionSetEffectArgs struct {
	SessionID string `json:"session_id"`
	effectArgs
}

func (s *Server) handleSessionSetEffect(args json.RawMessage) (interface{}, error) {
	var a sessionSetEffectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	if !a.effectArgs.set() {
		return nil, fmt.Errorf("effect is required")
	}

	sess := w.Session()
	fx, err := a.apply(sess.Status().Effect)
	if err != nil {
		return nil, err
	}
	if err := sess.SetEffect(fx); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"session_id": sess.ID(),
		"effect":     fx,
	}, nil
}

func (s *Server) handleSessionReset(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	if err := w.Reset(ctx); err != nil {
		return nil, err
	}

	sess := w.Session()
	st := sess.Status()
	return &SessionInfo{
		SessionID: st.ID,
		Width:     st.Width,
		Height:    st.Height,
		State:     st.State,
		Effect:    st.Effect,
		Notices:   sess.DrainNotices(),
	}, nil
}

func (s *Server) handleSessionFinalize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	if err := w.Finalize(ctx); err != nil {
		return nil, err
	}
	s.removeSession(a.SessionID)

	return w.Session().Status(), nil
}

// === Introspection Handlers ===

func (s *Server) handleSessionStatus(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}
	return w.Session().Status(), nil
}

type sessionMaskPreviewArgs struct {
	SessionID      string `json:"session_id"`
	ExclusionColor string `json:"exclusion_color"`
	OutputPath     string `json:"output_path"`
}

func (s *Server) handleSessionMaskPreview(args json.RawMessage) (interface{}, error) {
	var a sessionMaskPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	w, err := s.lookup(a.SessionID)
	if err != nil {
		return nil, err
	}

	snap := w.Session().Snapshot()
	img, err := imaging.MaskPreview(snap.Accum, snap.Exclusion, snap.Width, snap.Height, a.ExclusionColor)
	if err != nil {
		return nil, err
	}
	return imaging.Encode(img, a.OutputPath)
}
