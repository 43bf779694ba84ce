package pipeline

// Step describes one configured tool invocation: a target server, a tool
// name, free-form parameters, and a human-readable description.
type Step struct {
	Server      string         `json:"server"`
	Tool        string         `json:"tool"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Stage is one independently toggleable ordered sequence of steps.
type Stage struct {
	Enabled  bool   `json:"enabled"`
	Pipeline []Step `json:"pipeline"`
}

// Config is the on-disk pipeline document: two stages run before and after
// the LLM call. Absent keys decode to a disabled, empty stage.
type Config struct {
	Preprocessing  Stage `json:"preprocessing"`
	Postprocessing Stage `json:"postprocessing"`
}

// ToolInfo describes one advertised tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Catalog lists the stub tool integration points the gateway advertises.
func Catalog() []ToolInfo {
	return []ToolInfo{
		{Name: "text-analysis", Description: "Analyze text for sentiment, keywords, and more."},
		{Name: "file-upload", Description: "Upload a file for processing."},
		{Name: "image-analysis", Description: "Analyze an image for content, objects, or text."},
		{Name: "web-search", Description: "Perform a web search and return results."},
		{Name: "code-exec", Description: "Execute code snippets in a safe environment."},
		{Name: "external-api", Description: "Integrate with external APIs (e.g., weather, news)."},
	}
}
