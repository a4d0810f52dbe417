package workflows

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/directory"
)

const spaceDescriptionLimit = 200

// Space presents one participatory space and routes the "participate"
// action to a configured write action, falling back to a read-only reply.
type Space struct {
	directory directory.Resolver
	actions   *directory.ActionRegistry
}

func (s *Space) Name() string { return SpaceName }

func (s *Space) ProcessUserInput(ctx context.Context, rt *chat.Runtime) error {
	if !rt.Setting.Enabled {
		return rt.Adapter.SendText(ctx, rt.Text("workflows.participatory_space.not_configured"))
	}

	space, ok, err := s.resolveSpace(ctx, rt)
	if err != nil {
		return err
	}
	if !ok {
		return rt.Adapter.SendText(ctx, rt.Text("workflows.participatory_space.no_spaces"))
	}

	buttons := []chat.Button{
		{ID: "start", Title: rt.Text("workflows.participatory_space.buttons.participate")},
	}
	if rt.Delegated() {
		buttons = append(buttons, chat.Button{ID: "end", Title: rt.Text("workflows.participatory_space.buttons.end")})
	}

	msg, err := rt.Adapter.BuildMessage(chat.MessageInteractiveButtons, rt.Envelope().From, chat.MessageData{
		HeaderImageURL: space.BannerImageURL,
		BodyText:       truncate(stripTags(space.Description), spaceDescriptionLimit),
		FooterText:     space.Title,
		Buttons:        buttons,
	})
	if err != nil {
		return err
	}
	return rt.Adapter.Send(ctx, msg)
}

func (s *Space) ProcessActionInput(ctx context.Context, rt *chat.Runtime) error {
	switch rt.Envelope().ButtonID {
	case "start":
		return s.sendParticipatePrompt(ctx, rt)
	case "participate":
		return s.participate(ctx, rt)
	case "end":
		return rt.Reset(ctx)
	}
	return nil
}

func (s *Space) sendParticipatePrompt(ctx context.Context, rt *chat.Runtime) error {
	msg, err := rt.Adapter.BuildMessage(chat.MessageInteractiveButtons, rt.Envelope().From, chat.MessageData{
		BodyText: rt.Text("workflows.participatory_space.prompt"),
		Buttons: []chat.Button{
			{ID: "participate", Title: rt.Text("workflows.participatory_space.buttons.participate")},
			{ID: "end", Title: rt.Text("workflows.participatory_space.buttons.end")},
		},
	})
	if err != nil {
		return err
	}
	return rt.Adapter.Send(ctx, msg)
}

func (s *Space) participate(ctx context.Context, rt *chat.Runtime) error {
	name := rt.Setting.ConfigValue("write_action")
	if name == "" {
		return rt.Adapter.SendText(ctx, rt.Text("workflows.participatory_space.read_only_mode"))
	}

	space, ok, err := s.resolveSpace(ctx, rt)
	if err != nil {
		return err
	}
	if !ok {
		return rt.Adapter.SendText(ctx, rt.Text("workflows.participatory_space.no_spaces"))
	}

	fn, err := s.actions.Find(name)
	if err != nil {
		return err
	}
	return fn(ctx, rt, space)
}

// resolveSpace reads the configured space id and looks it up. A missing
// or malformed id and a dangling reference both report ok=false; only
// infrastructure failures surface as errors.
func (s *Space) resolveSpace(ctx context.Context, rt *chat.Runtime) (directory.Space, bool, error) {
	raw := rt.Setting.ConfigValue("participatory_space_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return directory.Space{}, false, nil
	}
	space, err := s.directory.Space(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return directory.Space{}, false, nil
		}
		return directory.Space{}, false, err
	}
	return space, true, nil
}
