package store

import "time"

// Conversation is a durable conversation header row.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationSummary is the trimmed projection returned by listing operations.
type ConversationSummary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// Role is the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single append-only conversation turn.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	Timestamp      time.Time
	Metadata       []byte // opaque JSON, never re-parsed unless a filter needs it
}

// CodeChunk is a contiguous span of a source file.
type CodeChunk struct {
	ID          string
	FilePath    string
	StartLine   int
	EndLine     int
	Text        string
	Symbols     []string
	Imports     []string
	ContentHash string
	Kind        string // coarse display hint: "function" | "type" | "other"
}

// ChunkEmbedding is the fixed-dimension vector paired with a CodeChunk.
type ChunkEmbedding struct {
	ChunkID string
	Vector  []float32
	Dim     int
}

// Decision is an immutable decision record with a mutable outcome.
type Decision struct {
	ID                  string
	Timestamp           time.Time
	Context             string
	Reasoning           string
	Alternatives        []byte // JSON list of {option, pros[], cons[], effort?}
	ChosenOption        string
	Outcome             []byte // JSON, e.g. {"success": true}
	LessonsLearned      string
	AffectedComponents  []byte // JSON list of strings
}

// Pattern is a reusable solution shape with observed success/failure counters.
type Pattern struct {
	ID             string
	Name           string
	Category       string
	Problem        string
	Solution       string
	ExampleCode    string
	Applicability  string
	SuccessCount   int
	FailureCount   int
}

// Metric is a single append-only measurement.
type Metric struct {
	ID         string
	Timestamp  time.Time
	MetricType string
	MetricName string
	Value      float64
	Context    []byte // opaque JSON
}

// MigrationRecord is one applied-migration row.
type MigrationRecord struct {
	ID        int64
	Name      string
	AppliedAt time.Time
}
