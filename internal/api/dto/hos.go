package dto

type ComplianceRequest struct {
	HoursDriven     float64  `json:"hours_driven"`
	OnDutyTime      float64  `json:"on_duty_time"`
	HoursSinceBreak float64  `json:"hours_since_break"`
	LastRestPeriod  *float64 `json:"last_rest_period,omitempty"`
}
