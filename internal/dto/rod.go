package dto

import "encoding/json"

// RODAutomationRequest is the body of POST /rod-automation.
type RODAutomationRequest struct {
	Type   string          `json:"type" validate:"required,oneof=segment_calculation behavior_scoring template_suggestion campaign_trigger"`
	Config json.RawMessage `json:"config"`
}

// SegmentConfig tunes segment_calculation thresholds, in days unless noted.
type SegmentConfig struct {
	NewDays        int `json:"new_days"`
	AtRiskDays     int `json:"at_risk_days"`
	InactiveDays   int `json:"inactive_days"`
	ChampionClicks int `json:"champion_clicks"`
	EngagedOpens   int `json:"engaged_opens"`
}

// ScoringConfig tunes behavior_scoring.
type ScoringConfig struct {
	HalfLifeDays int `json:"half_life_days"`
}

// TemplateSuggestionConfig selects the segment to suggest templates for.
type TemplateSuggestionConfig struct {
	Segment string `json:"segment" validate:"required"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

// CampaignTriggerConfig names the campaign to send.
type CampaignTriggerConfig struct {
	CampaignID string `json:"campaign_id" validate:"required,uuid"`
}
