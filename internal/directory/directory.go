// Package directory resolves the platform entities the chatbot talks
// about: organizations, participatory spaces, meetings and platform users.
// The chatbot only reads them; their lifecycle belongs to the hosting
// platform.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("directory: not found")

// Organization is a platform tenant.
type Organization struct {
	ID            uuid.UUID
	Name          string
	Description   string
	DefaultLocale string
	Host          string
}

// Space is one participatory space a conversation can be scoped to.
type Space struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Slug           string
	Title          string
	Description    string
	BannerImageURL string
	URL            string
}

// Meeting is one scheduled event inside a space.
type Meeting struct {
	ID          uuid.UUID
	SpaceID     uuid.UUID
	Title       string
	Description string
	StartsAt    time.Time
	Location    string
	ImageURL    string
	URL         string
}

// Resolver is the read boundary to the platform directory.
type Resolver interface {
	Organization(ctx context.Context, id uuid.UUID) (Organization, error)
	Space(ctx context.Context, id uuid.UUID) (Space, error)
	UpcomingMeetings(ctx context.Context, spaceID uuid.UUID, limit int) ([]Meeting, error)
	UserLocale(ctx context.Context, userID uuid.UUID) (string, error)
}
