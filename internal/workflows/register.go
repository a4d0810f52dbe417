package workflows

import (
	"context"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/directory"
)

const defaultCarouselLimit = 10

// Deps carries the collaborators the built-in workflows need.
type Deps struct {
	Directory directory.Resolver
	Actions   *directory.ActionRegistry
	// CarouselLimit caps the meetings carousel; zero means the default.
	CarouselLimit int
}

// Register adds the built-in workflows to the registry and the built-in
// write actions to the action registry.
func Register(reg *chat.WorkflowRegistry, deps Deps) {
	limit := deps.CarouselLimit
	if limit <= 0 {
		limit = defaultCarouselLimit
	}

	reg.Register(chat.WorkflowManifest{
		Name:       WelcomeName,
		Title:      "Organization welcome",
		ConfigKeys: []string{"custom_text", "delegate_workflow"},
		Workflow:   &Welcome{directory: deps.Directory},
	})
	reg.Register(chat.WorkflowManifest{
		Name:       SpaceName,
		Title:      "Participatory space",
		ConfigKeys: []string{"participatory_space_id", "write_action"},
		Workflow:   &Space{directory: deps.Directory, actions: deps.Actions},
	})
	reg.Register(chat.WorkflowManifest{
		Name:     GreetingsName,
		Title:    "Simple greetings",
		Workflow: &Greetings{},
	})
	reg.Register(chat.WorkflowManifest{
		Name:       MeetingsName,
		Title:      "Upcoming meetings",
		ConfigKeys: []string{"participatory_space_id"},
		Workflow:   &Meetings{directory: deps.Directory, limit: limit},
	})

	if deps.Actions != nil {
		deps.Actions.Register("create_proposal", func(ctx context.Context, rt *chat.Runtime, _ directory.Space) error {
			return rt.Adapter.SendText(ctx, rt.Text("workflows.participatory_space.write_actions.coming_soon"))
		})
	}
}
