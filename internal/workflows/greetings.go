package workflows

import (
	"context"
	"fmt"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
)

// Greetings echoes user text back. It is the minimal end-to-end smoke
// workflow for a new channel integration.
type Greetings struct{}

func (g *Greetings) Name() string { return GreetingsName }

func (g *Greetings) ProcessUserInput(ctx context.Context, rt *chat.Runtime) error {
	return rt.Adapter.SendText(ctx, fmt.Sprintf("📬 Received:\n%s", rt.Envelope().Body))
}

func (g *Greetings) ProcessActionInput(ctx context.Context, rt *chat.Runtime) error {
	return chat.ErrUnhandledInput
}
