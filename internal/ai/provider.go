package ai

import "context"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one utterance in an AI conversation, chronological order.
type Turn struct {
	Role    string
	Content string
}

// Provider is the completion collaborator: given a character persona
// (system instruction) and the assembled history, it returns the
// model's reply. Implementations are single blocking round trips; the
// caller owns the timeout via ctx.
type Provider interface {
	Complete(ctx context.Context, persona string, history []Turn) (string, error)
}
