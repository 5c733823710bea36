package store

// Role labels one entry in a session's conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one immutable entry in a session history. Tool turns carry the
// tool exchange (name, argument payload, result) in addition to empty
// Content; user and assistant turns carry text in Content only.
type Turn struct {
	Role       Role
	Content    string
	ToolName   string
	ToolArgs   string
	ToolResult string
}
