package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

const orientationDescription = "How the stored image must be turned to appear upright: up, down, left, right, " +
	"up-mirrored, down-mirrored, left-mirrored, right-mirrored, or an EXIF orientation number 1-8. Default up"

var orientationProperty = map[string]interface{}{
	"type":        "string",
	"description": orientationDescription,
	"default":     "up",
}

var languagesProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "OCR language codes, e.g. [\"eng\", \"deu\"]. Defaults to the configured languages",
}

// containerProperties returns the container size properties merged with
// extra.
func containerProperties(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"container_width": map[string]interface{}{
			"type":        "number",
			"description": "Width of the display area in points or pixels",
		},
		"container_height": map[string]interface{}{
			"type":        "number",
			"description": "Height of the display area in points or pixels",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Scanning
		{
			Name:        "image_info",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "text_scan",
			Description: "Recognize the text in an image and group nearby words into lines. " +
				"The result becomes the current scan used by text_layout, text_tap, text_copy_all, text_overlay and text_crop_group. " +
				"Boxes are normalized to the upright image (0-1, origin bottom-left).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"orientation": orientationProperty,
					"languages":   languagesProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "text_scan_batch",
			Description: "Recognize and group the text of several images concurrently. Does not change the current scan.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files",
					},
					"orientation": orientationProperty,
					"languages":   languagesProperty,
				},
				"required": []string{"paths"},
			},
		},
		{
			Name: "text_group",
			Description: "Group text fragments without running OCR. Two fragments join when they overlap vertically by more than " +
				"line_overlap of their average height and are horizontally closer than gap_factor times that height.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fragments": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text": map[string]interface{}{"type": "string"},
								"box": map[string]interface{}{
									"type":        "object",
									"description": "Normalized box (0-1) with bottom-left origin",
									"properties": map[string]interface{}{
										"x":      map[string]interface{}{"type": "number"},
										"y":      map[string]interface{}{"type": "number"},
										"width":  map[string]interface{}{"type": "number"},
										"height": map[string]interface{}{"type": "number"},
									},
								},
							},
							"required": []string{"text", "box"},
						},
					},
					"line_overlap": map[string]interface{}{
						"type":        "number",
						"description": "Required vertical overlap as a fraction of the average height. Default 0.5",
					},
					"gap_factor": map[string]interface{}{
						"type":        "number",
						"description": "Largest horizontal gap as a multiple of the average height. Default 1.5",
					},
				},
				"required": []string{"fragments"},
			},
		},
		{
			Name:        "text_reset",
			Description: "Discard the current scan. A scan still running is not kept.",
			InputSchema: emptySchema(),
		},

		// Display and interaction
		{
			Name:        "text_layout",
			Description: "Place the current groups in a display area: the image is aspect-fit and centred, and each group gets its display rectangle, highlight and tap target. scale is display pixels per image pixel.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": containerProperties(nil),
				"required":   []string{"container_width", "container_height"},
			},
		},
		{
			Name:        "text_tap",
			Description: "Resolve a tap in the display area to a group and copy its text into history. Returns found=false when nothing is hit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": containerProperties(map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Tap X coordinate, from the left edge of the display area",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Tap Y coordinate, from the top edge of the display area",
					},
				}),
				"required": []string{"container_width", "container_height", "x", "y"},
			},
		},
		{
			Name:        "text_copy_all",
			Description: "Return the text of every current group, one group per line, and copy it into history.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "text_overlay",
			Description: "Render the current image as shown in a display area, dimmed, with a highlighted hole around every group. Returns a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": containerProperties(nil),
				"required":   []string{"container_width", "container_height"},
			},
		},
		{
			Name:        "text_crop_group",
			Description: "Crop one group of the current scan from the upright image and return it as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"group_id": map[string]interface{}{
						"type":        "string",
						"description": "Group id from text_scan or text_layout",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"group_id"},
			},
		},

		// History
		{
			Name:        "history_list",
			Description: "List copied texts, newest first.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "history_add",
			Description: "Record a text in history. The oldest entries are dropped beyond the configured limit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Text to record",
					},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "history_delete",
			Description: "Delete one history entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Entry id from history_list",
					},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "history_clear",
			Description: "Delete every history entry.",
			InputSchema: emptySchema(),
		},

		{
			Name:        "ocr_info",
			Description: "Report whether the OCR backend is available and its version.",
			InputSchema: emptySchema(),
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
