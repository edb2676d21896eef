package core

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type (
	// Role is the author of a conversation turn, matching the chat-completion
	// wire roles.
	Role string

	// Turn is one message in a conversation. History is append-only; turns are
	// never mutated after creation.
	Turn struct {
		Role    Role
		Content string
	}
)

// Valid reports whether the role is one of the three wire roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
