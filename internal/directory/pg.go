package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool the resolver needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgResolver reads directory entities from Postgres.
type PgResolver struct {
	pool Querier
}

func NewPgResolver(pool Querier) *PgResolver {
	if pool == nil {
		return nil
	}
	return &PgResolver{pool: pool}
}

func (r *PgResolver) Organization(ctx context.Context, id uuid.UUID) (Organization, error) {
	query := `
		SELECT id, name, description, default_locale, host
		FROM organizations
		WHERE id = $1
	`
	var org Organization
	err := r.pool.QueryRow(ctx, query, id).Scan(&org.ID, &org.Name, &org.Description, &org.DefaultLocale, &org.Host)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, fmt.Errorf("%w: organization %s", ErrNotFound, id)
		}
		return Organization{}, fmt.Errorf("directory: find organization: %w", err)
	}
	return org, nil
}

func (r *PgResolver) Space(ctx context.Context, id uuid.UUID) (Space, error) {
	query := `
		SELECT id, organization_id, slug, title, description, banner_image_url, url
		FROM participatory_spaces
		WHERE id = $1
	`
	var sp Space
	err := r.pool.QueryRow(ctx, query, id).Scan(&sp.ID, &sp.OrganizationID, &sp.Slug, &sp.Title, &sp.Description, &sp.BannerImageURL, &sp.URL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Space{}, fmt.Errorf("%w: space %s", ErrNotFound, id)
		}
		return Space{}, fmt.Errorf("directory: find space: %w", err)
	}
	return sp, nil
}

// UpcomingMeetings lists meetings starting from now, soonest first.
func (r *PgResolver) UpcomingMeetings(ctx context.Context, spaceID uuid.UUID, limit int) ([]Meeting, error) {
	query := `
		SELECT id, participatory_space_id, title, description, starts_at, location, image_url, url
		FROM meetings
		WHERE participatory_space_id = $1 AND starts_at >= now()
		ORDER BY starts_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, spaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.SpaceID, &m.Title, &m.Description, &m.StartsAt, &m.Location, &m.ImageURL, &m.URL); err != nil {
			return nil, fmt.Errorf("directory: scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list meetings: %w", err)
	}
	return meetings, nil
}

func (r *PgResolver) UserLocale(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `
		SELECT locale
		FROM platform_users
		WHERE id = $1
	`
	var locale string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&locale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return "", fmt.Errorf("directory: find user locale: %w", err)
	}
	return locale, nil
}
