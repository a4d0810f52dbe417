// Package workflows provides the built-in conversation workflows and
// their localized message catalog.
package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/directory"
)

// Workflow names, stored on senders and referenced from setting config.
const (
	WelcomeName   = "organization_welcome"
	SpaceName     = "participatory_space"
	GreetingsName = "simple_greetings"
	MeetingsName  = "meetings"
)

// Welcome greets the sender with the organization's name and description
// and delegates to the configured start target on "start".
type Welcome struct {
	directory directory.Resolver
}

func (w *Welcome) Name() string { return WelcomeName }

func (w *Welcome) ProcessUserInput(ctx context.Context, rt *chat.Runtime) error {
	env := rt.Envelope()

	org, err := w.directory.Organization(ctx, rt.Setting.OrganizationID)
	if err != nil {
		return fmt.Errorf("resolve organization: %w", err)
	}

	body := rt.Setting.ConfigValue("custom_text")
	if body == "" {
		body = stripTags(org.Description)
	}

	buttons := []chat.Button{
		{ID: "start", Title: rt.Text("workflows.organization_welcome.buttons.participate")},
	}
	if rt.Delegated() {
		buttons = append(buttons, chat.Button{ID: "end", Title: rt.Text("workflows.organization_welcome.buttons.end")})
	}

	msg, err := rt.Adapter.BuildMessage(chat.MessageInteractiveButtons, env.From, chat.MessageData{
		HeaderText: org.Name,
		BodyText:   body,
		Buttons:    buttons,
	})
	if err != nil {
		return err
	}
	return rt.Adapter.Send(ctx, msg)
}

func (w *Welcome) ProcessActionInput(ctx context.Context, rt *chat.Runtime) error {
	switch rt.Envelope().ButtonID {
	case "start":
		target := rt.Setting.ConfigValue("delegate_workflow")
		if target == "" {
			target = SpaceName
		}
		err := rt.Delegate(ctx, target)
		if errors.Is(err, chat.ErrUnknownWorkflow) && target != SpaceName {
			// Misconfigured target: fall back to the space workflow.
			return rt.Delegate(ctx, SpaceName)
		}
		return err
	case "end":
		return rt.Reset(ctx)
	}
	return nil
}
