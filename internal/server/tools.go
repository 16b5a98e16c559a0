package server

import (
	"github.com/ironsheep/bgeffect-mcp/internal/effect"
	"github.com/ironsheep/bgeffect-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by session_init",
	}
}

// effectProperties returns the schema properties shared by every tool that
// accepts an effect.
func effectProperties() map[string]interface{} {
	defaults := effect.DefaultParams()

	return map[string]interface{}{
		"effect": map[string]interface{}{
			"type":        "string",
			"enum":        effect.Kinds(),
			"description": "Background effect to apply",
			"default":     defaults.Kind.String(),
		},
		"blur_radius": map[string]interface{}{
			"type":        "number",
			"description": "Blur radius in pixels for the blur effect",
			"default":     defaults.BlurRadius,
			"minimum":     0,
			"maximum":     effect.MaxBlurRadius,
		},
		"replace_color": map[string]interface{}{
			"type":        "string",
			"description": "Background color for replace_color as #RRGGBB",
			"default":     defaults.ReplaceColor,
		},
	}
}

func withEffect(props map[string]interface{}) map[string]interface{} {
	for k, v := range effectProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Lifecycle
		{
			Name:        "session_init",
			Description: "Start a background effect session at a fixed working resolution. Frames and masks of other sizes are resized to it. Returns the session_id used by every other tool.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withEffect(map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Working width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Working height in pixels",
					},
				}),
				"required": []string{"width", "height"},
			},
		},
		{
			Name:        "session_process_frame",
			Description: "Refine the segmentation mask over time and render one frame with the session effect. Without mask_path the frame is rendered from history alone. Returns base64 PNG, or writes it to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withEffect(map[string]interface{}{
					"session_id": sessionIDProperty(),
					"frame_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the video frame image",
					},
					"mask_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the raw segmentation mask. Alpha is used when present, otherwise luminance (white = person)",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional .png path to write the result to instead of returning base64",
					},
				}),
				"required": []string{"session_id", "frame_path"},
			},
		},
		{
			Name:        "session_feedback",
			Description: "Correct the accumulated mask. reinforce pushes the region toward foreground, suppress toward background. The region defaults to the newest raw mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"reinforce", "suppress"},
						"description": "Direction of the correction",
					},
					"region_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional mask image selecting the pixels to correct",
					},
					"influence": map[string]interface{}{
						"type":        "number",
						"description": "Correction weight in [0,1]. 0 uses the configured default",
						"default":     0.85,
					},
					"queue": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply with the next frame instead of immediately",
						"default":     false,
					},
				},
				"required": []string{"session_id", "kind"},
			},
		},
		{
			Name:        "session_set_effect",
			Description: "Change the effect used for subsequent frames.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withEffect(map[string]interface{}{
					"session_id": sessionIDProperty(),
				}),
				"required": []string{"session_id", "effect"},
			},
		},
		{
			Name:        "session_reset",
			Description: "Discard history, exclusion map and accumulated mask. Dimensions and effect are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "session_finalize",
			Description: "End the session after all submitted frames and release it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},

		// Introspection
		{
			Name:        "session_status",
			Description: "Report state, frame count, history length, excluded pixels and mean mask confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "session_mask_preview",
			Description: "Render the accumulated mask as grayscale PNG with excluded (oscillating) pixels highlighted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"exclusion_color": map[string]interface{}{
						"type":        "string",
						"description": "Highlight color as #RRGGBB or #RRGGBBAA",
						"default":     imaging.DefaultExclusionColor,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional .png path to write the preview to instead of returning base64",
					},
				},
				"required": []string{"session_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
