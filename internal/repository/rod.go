package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/dealdesk/api/internal/entity"
)

// ErrCampaignNotFound is returned when the requested campaign does not exist.
var ErrCampaignNotFound = errors.New("campaign not found")

// RODRepository backs the newsletter automation jobs.
type RODRepository interface {
	ListActiveSubscribers(ctx context.Context) ([]entity.Subscriber, error)
	UpdateSegments(ctx context.Context, segments map[uuid.UUID]string) (int64, error)
	UpdateScores(ctx context.Context, scores map[uuid.UUID]int) (int64, error)
	ListTemplates(ctx context.Context, segment string) ([]entity.Template, error)
	GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)
	CountRecipients(ctx context.Context, segment *string) (int, error)
	UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string, recipients int, triggeredAt time.Time) error
}

// PGXRODRepository implements RODRepository using pgx.
type PGXRODRepository struct {
	pool pgxPool
}

// NewPGXRODRepository wires a pgx backed repository.
func NewPGXRODRepository(pool *pgxpool.Pool) *PGXRODRepository {
	return &PGXRODRepository{pool: pool}
}

// ListActiveSubscribers returns every subscriber with status 'active'.
func (r *PGXRODRepository) ListActiveSubscribers(ctx context.Context) ([]entity.Subscriber, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, email, status, segment, score, opens_count, clicks_count, emails_received,
               last_opened_at, last_clicked_at, subscribed_at
        FROM rod_subscribers
        WHERE status = 'active'
        ORDER BY subscribed_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []entity.Subscriber
	for rows.Next() {
		var s entity.Subscriber
		if err := rows.Scan(
			&s.ID,
			&s.Email,
			&s.Status,
			&s.Segment,
			&s.Score,
			&s.OpensCount,
			&s.ClicksCount,
			&s.EmailsReceived,
			&s.LastOpenedAt,
			&s.LastClickedAt,
			&s.SubscribedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subscribers, nil
}

// UpdateSegments writes all segment assignments in a single statement.
func (r *PGXRODRepository) UpdateSegments(ctx context.Context, segments map[uuid.UUID]string) (int64, error) {
	if len(segments) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(segments))
	values := make([]string, 0, len(segments))
	for id, segment := range segments {
		ids = append(ids, id.String())
		values = append(values, segment)
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE rod_subscribers AS s
        SET segment = u.segment, updated_at = NOW()
        FROM unnest($1::uuid[], $2::text[]) AS u(id, segment)
        WHERE s.id = u.id
    `, ids, values)
	if err != nil {
		return 0, fmt.Errorf("update subscriber segments: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// UpdateScores writes all behaviour scores in a single statement.
func (r *PGXRODRepository) UpdateScores(ctx context.Context, scores map[uuid.UUID]int) (int64, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(scores))
	values := make([]int32, 0, len(scores))
	for id, score := range scores {
		ids = append(ids, id.String())
		values = append(values, int32(score))
	}

	cmd, err := r.pool.Exec(ctx, `
        UPDATE rod_subscribers AS s
        SET score = u.score, updated_at = NOW()
        FROM unnest($1::uuid[], $2::int[]) AS u(id, score)
        WHERE s.id = u.id
    `, ids, values)
	if err != nil {
		return 0, fmt.Errorf("update subscriber scores: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ListTemplates returns templates targeting the segment, or untargeted ones.
func (r *PGXRODRepository) ListTemplates(ctx context.Context, segment string) ([]entity.Template, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, category, target_segments, times_used, avg_open_rate, avg_click_rate
        FROM rod_templates
        WHERE $1 = ANY(target_segments) OR cardinality(target_segments) = 0
    `, segment)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []entity.Template
	for rows.Next() {
		var t entity.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.TargetSegments, &t.TimesUsed, &t.AvgOpenRate, &t.AvgClickRate); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// GetCampaign loads one campaign by id.
func (r *PGXRODRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	var (
		c          entity.Campaign
		templateID uuid.NullUUID
	)
	err := r.pool.QueryRow(ctx, `
        SELECT id, name, template_id, segment, status, recipients, scheduled_at, triggered_at
        FROM rod_campaigns
        WHERE id = $1
    `, id).Scan(&c.ID, &c.Name, &templateID, &c.Segment, &c.Status, &c.Recipients, &c.ScheduledAt, &c.TriggeredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("query campaign: %w", err)
	}
	c.TemplateID = nullUUIDToPtr(templateID)
	return &c, nil
}

// CountRecipients counts active subscribers in the segment; nil means everyone.
func (r *PGXRODRepository) CountRecipients(ctx context.Context, segment *string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM rod_subscribers
        WHERE status = 'active' AND ($1::text IS NULL OR segment = $1)
    `, stringOrNil(segment)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return count, nil
}

// UpdateCampaignStatus records a status transition for a campaign.
func (r *PGXRODRepository) UpdateCampaignStatus(ctx context.Context, id uuid.UUID, status string, recipients int, triggeredAt time.Time) error {
	cmd, err := r.pool.Exec(ctx, `
        UPDATE rod_campaigns
        SET status = $2, recipients = $3, triggered_at = $4
        WHERE id = $1
    `, id, status, recipients, triggeredAt)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

var _ RODRepository = (*PGXRODRepository)(nil)
