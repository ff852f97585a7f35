package overseer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	defaultMemoryFile = "overseer_memory.json"
	maxRecords        = 10
	promptRecords     = 5 // how many recent records to include in the prompt
)

// CycleRecord captures what happened in a single overseer cycle.
type CycleRecord struct {
	Step    uint64  `json:"step"`
	Action  string  `json:"action"`
	X       int     `json:"x,omitempty"`
	Y       int     `json:"y,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Crisis  string  `json:"crisis"`
	Thought string  `json:"thought,omitempty"`
}

// CycleMemory keeps a short ring of recent cycle records on disk, so
// consecutive decisions can see what was already tried.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`

	path string
}

// LoadMemory reads the ring file. Missing or corrupt files yield empty
// memory; an empty path uses the default file in the working directory.
func LoadMemory(path string) *CycleMemory {
	if path == "" {
		path = defaultMemoryFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &CycleMemory{path: path}
	}
	mem := &CycleMemory{path: path}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("overseer memory corrupted, starting fresh", "path", path, "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the ring to disk.
func (m *CycleMemory) Save() {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal overseer memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write overseer memory", "path", m.path, "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// FormatForPrompt summarizes the newest records for the next prompt.
func (m *CycleMemory) FormatForPrompt() string {
	if m == nil || len(m.Records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent Overseer Cycles\n")

	start := 0
	if len(m.Records) > promptRecords {
		start = len(m.Records) - promptRecords
	}
	for _, r := range m.Records[start:] {
		fmt.Fprintf(&b, "- Step %d: action=%s, crisis=%s", r.Step, r.Action, r.Crisis)
		if r.Action == ActionDropFood {
			fmt.Fprintf(&b, ", dropped %.1f at (%d, %d)", r.Amount, r.X, r.Y)
		}
		b.WriteString("\n")
	}
	return b.String()
}
