package workflows

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openpoke/decidim-module-chatbot/internal/chat"
	"github.com/openpoke/decidim-module-chatbot/internal/directory"
)

const meetingDescriptionLimit = 100

// Meetings sends a carousel of upcoming meetings and hands the
// conversation back to the delegating workflow.
type Meetings struct {
	directory directory.Resolver
	limit     int
}

func (m *Meetings) Name() string { return MeetingsName }

func (m *Meetings) ProcessUserInput(ctx context.Context, rt *chat.Runtime) error {
	meetings, err := m.upcoming(ctx, rt)
	if err != nil {
		return err
	}

	if len(meetings) == 0 {
		if err := rt.Adapter.SendText(ctx, rt.Text("workflows.meetings.none")); err != nil {
			return err
		}
		return rt.Return(ctx)
	}

	cards := make([]chat.Card, 0, len(meetings))
	for _, meeting := range meetings {
		cards = append(cards, chat.Card{
			ImageURL: meeting.ImageURL,
			BodyText: truncate(stripTags(meeting.Description), meetingDescriptionLimit),
			URLTitle: meeting.Title,
			URL:      meeting.URL,
		})
	}

	msg, err := rt.Adapter.BuildMessage(chat.MessageInteractiveCarousel, rt.Envelope().From, chat.MessageData{
		BodyText: rt.Text("workflows.meetings.latest_meetings"),
		Cards:    cards,
	})
	if err != nil {
		return err
	}
	if err := rt.Adapter.Send(ctx, msg); err != nil {
		return err
	}
	return rt.Return(ctx)
}

func (m *Meetings) ProcessActionInput(ctx context.Context, rt *chat.Runtime) error {
	return chat.ErrUnhandledInput
}

func (m *Meetings) upcoming(ctx context.Context, rt *chat.Runtime) ([]directory.Meeting, error) {
	raw := rt.Setting.ConfigValue("participatory_space_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	meetings, err := m.directory.UpcomingMeetings(ctx, id, m.limit)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return meetings, nil
}
