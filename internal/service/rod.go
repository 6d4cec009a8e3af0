package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/octobees/dealdesk/api/internal/dto"
	"github.com/octobees/dealdesk/api/internal/entity"
	"github.com/octobees/dealdesk/api/internal/metrics"
	"github.com/octobees/dealdesk/api/internal/repository"
	"github.com/octobees/dealdesk/api/internal/service/scoring"
	"github.com/octobees/dealdesk/api/internal/worker"
)

// ROD automation job types.
const (
	JobSegmentCalculation = "segment_calculation"
	JobBehaviorScoring    = "behavior_scoring"
	JobTemplateSuggestion = "template_suggestion"
	JobCampaignTrigger    = "campaign_trigger"
)

// Subscriber segments.
const (
	SegmentNew      = "new"
	SegmentChampion = "champion"
	SegmentEngaged  = "engaged"
	SegmentAtRisk   = "at_risk"
	SegmentInactive = "inactive"
)

const (
	campaignStatusDraft     = "draft"
	campaignStatusScheduled = "scheduled"
	campaignStatusSending   = "sending"
	campaignStatusQueued    = "queued"
	campaignStatusFailed    = "failed"

	defaultSuggestionLimit = 3
	workerSendPath         = "/campaigns/send"
)

var (
	// ErrUnknownJob is returned for an automation type outside the supported set.
	ErrUnknownJob = errors.New("unknown automation type")
	// ErrInvalidConfig is returned when the job config cannot be decoded or validated.
	ErrInvalidConfig = errors.New("invalid automation config")
	// ErrCampaignNotTriggerable is returned for campaigns that are not draft or scheduled.
	ErrCampaignNotTriggerable = errors.New("campaign cannot be triggered in its current status")
)

// SegmentResult summarises a segment_calculation run.
type SegmentResult struct {
	Processed int            `json:"processed"`
	Updated   int64          `json:"updated"`
	Counts    map[string]int `json:"counts"`
}

// ScoringResult summarises a behavior_scoring run.
type ScoringResult struct {
	Processed int     `json:"processed"`
	Updated   int64   `json:"updated"`
	Average   float64 `json:"average"`
}

// TemplateSuggestion is one ranked template.
type TemplateSuggestion struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Score        float64   `json:"score"`
	AvgOpenRate  float64   `json:"avg_open_rate"`
	AvgClickRate float64   `json:"avg_click_rate"`
	TimesUsed    int       `json:"times_used"`
}

// CampaignTriggerResult reports the new state of a triggered campaign.
type CampaignTriggerResult struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Status     string    `json:"status"`
	Recipients int       `json:"recipients"`
}

// RODService runs the newsletter automation jobs.
type RODService struct {
	repo    repository.RODRepository
	worker  worker.Poster
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRODService wires the automation jobs. poster may be nil, in which case
// triggered campaigns are only marked queued.
func NewRODService(repo repository.RODRepository, poster worker.Poster, logger *zap.Logger, m *metrics.Metrics) *RODService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RODService{repo: repo, worker: poster, logger: logger, metrics: m, now: time.Now}
}

// Run executes one automation job and returns its JSON-serialisable result.
func (s *RODService) Run(ctx context.Context, req dto.RODAutomationRequest, requestID string) (any, error) {
	var (
		result any
		err    error
	)
	switch req.Type {
	case JobSegmentCalculation:
		result, err = s.calculateSegments(ctx, req.Config)
	case JobBehaviorScoring:
		result, err = s.scoreBehavior(ctx, req.Config)
	case JobTemplateSuggestion:
		result, err = s.suggestTemplates(ctx, req.Config)
	case JobCampaignTrigger:
		result, err = s.triggerCampaign(ctx, req.Config, requestID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, req.Type)
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
		s.logger.Error("rod automation failed", zap.String("type", req.Type), zap.Error(err))
	}
	s.metrics.ObserveROD(req.Type, outcome)
	return result, err
}

func (s *RODService) calculateSegments(ctx context.Context, raw json.RawMessage) (*SegmentResult, error) {
	cfg := dto.SegmentConfig{NewDays: 14, AtRiskDays: 45, InactiveDays: 90, ChampionClicks: 5, EngagedOpens: 1}
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.AtRiskDays >= cfg.InactiveDays {
		return nil, fmt.Errorf("%w: at_risk_days must be lower than inactive_days", ErrInvalidConfig)
	}

	subscribers, err := s.repo.ListActiveSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	segments := make(map[uuid.UUID]string, len(subscribers))
	counts := map[string]int{
		SegmentNew:      0,
		SegmentChampion: 0,
		SegmentEngaged:  0,
		SegmentAtRisk:   0,
		SegmentInactive: 0,
	}
	for _, sub := range subscribers {
		segment := ClassifySubscriber(sub, cfg, now)
		segments[sub.ID] = segment
		counts[segment]++
	}

	updated, err := s.repo.UpdateSegments(ctx, segments)
	if err != nil {
		return nil, err
	}
	return &SegmentResult{Processed: len(subscribers), Updated: updated, Counts: counts}, nil
}

// ClassifySubscriber assigns the segment of one active subscriber. Recent
// sign-ups are new; otherwise inactivity since the last open or click (or
// sign-up, when there was none) decides between inactive and at_risk, and
// click volume separates champions from engaged readers.
func ClassifySubscriber(sub entity.Subscriber, cfg dto.SegmentConfig, now time.Time) string {
	if daysBetween(sub.SubscribedAt, now) < cfg.NewDays {
		return SegmentNew
	}

	since := sub.SubscribedAt
	if last := sub.LastActivity(); last != nil {
		since = *last
	}
	idle := daysBetween(since, now)

	switch {
	case idle >= cfg.InactiveDays:
		return SegmentInactive
	case idle >= cfg.AtRiskDays:
		return SegmentAtRisk
	case sub.ClicksCount >= cfg.ChampionClicks:
		return SegmentChampion
	case sub.OpensCount >= cfg.EngagedOpens:
		return SegmentEngaged
	default:
		return SegmentAtRisk
	}
}

func (s *RODService) scoreBehavior(ctx context.Context, raw json.RawMessage) (*ScoringResult, error) {
	cfg := dto.ScoringConfig{HalfLifeDays: scoring.DefaultHalfLifeDays}
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}

	subscribers, err := s.repo.ListActiveSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scores := make(map[uuid.UUID]int, len(subscribers))
	total := 0
	for _, sub := range subscribers {
		features := scoring.SubscriberFeatures{
			OpensCount:     sub.OpensCount,
			ClicksCount:    sub.ClicksCount,
			EmailsReceived: sub.EmailsReceived,
			TenureDays:     daysBetween(sub.SubscribedAt, now),
		}
		if last := sub.LastActivity(); last != nil {
			days := daysBetween(*last, now)
			features.DaysSinceActivity = &days
		}
		score := scoring.ComputeScore(features, cfg.HalfLifeDays).Total
		scores[sub.ID] = score
		total += score
	}

	updated, err := s.repo.UpdateScores(ctx, scores)
	if err != nil {
		return nil, err
	}

	result := &ScoringResult{Processed: len(subscribers), Updated: updated}
	if len(subscribers) > 0 {
		result.Average = math.Round(float64(total)/float64(len(subscribers))*100) / 100
	}
	return result, nil
}

func (s *RODService) suggestTemplates(ctx context.Context, raw json.RawMessage) ([]TemplateSuggestion, error) {
	var cfg dto.TemplateSuggestionConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultSuggestionLimit
	}

	templates, err := s.repo.ListTemplates(ctx, cfg.Segment)
	if err != nil {
		return nil, err
	}
	return RankTemplates(templates, cfg.Limit), nil
}

// RankTemplates orders templates by 0.6*open rate + 0.4*click rate, breaking
// ties by usage, and keeps the first limit entries.
func RankTemplates(templates []entity.Template, limit int) []TemplateSuggestion {
	suggestions := make([]TemplateSuggestion, 0, len(templates))
	for _, t := range templates {
		suggestions = append(suggestions, TemplateSuggestion{
			ID:           t.ID,
			Name:         t.Name,
			Score:        math.Round((0.6*t.AvgOpenRate+0.4*t.AvgClickRate)*10000) / 10000,
			AvgOpenRate:  t.AvgOpenRate,
			AvgClickRate: t.AvgClickRate,
			TimesUsed:    t.TimesUsed,
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].TimesUsed > suggestions[j].TimesUsed
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func (s *RODService) triggerCampaign(ctx context.Context, raw json.RawMessage, requestID string) (*CampaignTriggerResult, error) {
	var cfg dto.CampaignTriggerConfig
	if err := decodeConfig(raw, &cfg); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(cfg.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("%w: campaign_id: %v", ErrInvalidConfig, err)
	}

	campaign, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign.Status != campaignStatusDraft && campaign.Status != campaignStatusScheduled {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotTriggerable, campaign.Status)
	}

	recipients, err := s.repo.CountRecipients(ctx, campaign.Segment)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if s.worker == nil {
		if err := s.repo.UpdateCampaignStatus(ctx, id, campaignStatusQueued, recipients, now); err != nil {
			return nil, err
		}
		s.logger.Warn("newsletter worker not configured, campaign queued", zap.Stringer("campaign_id", id))
		return &CampaignTriggerResult{CampaignID: id, Status: campaignStatusQueued, Recipients: recipients}, nil
	}

	if err := s.repo.UpdateCampaignStatus(ctx, id, campaignStatusSending, recipients, now); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"campaign_id": id.String(),
		"template_id": campaign.TemplateID,
		"segment":     campaign.Segment,
		"recipients":  recipients,
	}
	if _, err := s.worker.PostJSON(ctx, workerSendPath, payload, requestID); err != nil {
		if uerr := s.repo.UpdateCampaignStatus(ctx, id, campaignStatusFailed, recipients, now); uerr != nil {
			s.logger.Error("campaign status rollback failed", zap.Stringer("campaign_id", id), zap.Error(uerr))
		}
		return nil, fmt.Errorf("dispatch campaign: %w", err)
	}

	s.logger.Info("campaign dispatched", zap.Stringer("campaign_id", id), zap.Int("recipients", recipients))
	return &CampaignTriggerResult{CampaignID: id, Status: campaignStatusSending, Recipients: recipients}, nil
}

// decodeConfig overlays raw onto the defaults already present in dst and validates the result.
func decodeConfig(raw json.RawMessage, dst any) error {
	if !isNull(raw) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := requestValidator.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func daysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
