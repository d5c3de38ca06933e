package hos

import (
	"fmt"
	"math"
)

type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusWarning      Status = "warning"
	StatusNonCompliant Status = "non_compliant"
)

// CheckResult is the verdict of one independent limit check.
type CheckResult struct {
	Name           string  `json:"name"`
	IsCompliant    bool    `json:"is_compliant"`
	Message        string  `json:"message"`
	HoursRemaining float64 `json:"hours_remaining"`
}

type ComplianceResult struct {
	Status                Status      `json:"status"`
	IsCompliant           bool        `json:"is_compliant"`
	Drive                 CheckResult `json:"drive"`
	Duty                  CheckResult `json:"duty"`
	Break                 CheckResult `json:"break"`
	HoursRemainingToDrive float64     `json:"hours_remaining_to_drive"`
	HoursUntilRest        float64     `json:"hours_until_rest_required"`
	BreakRequired         bool        `json:"break_required"`
	RestRequired          bool        `json:"rest_required"`
	LastRestSufficient    *bool       `json:"last_rest_sufficient,omitempty"`
}

// ValidateCompliance runs the drive, duty and break checks.
//
// A business-level violation is a normal result. An input outside [0, 24]
// hours returns an *InputError instead.
func (e *Engine) ValidateCompliance(hoursDriven, onDutyTime, hoursSinceBreak float64, lastRestPeriod *float64) (ComplianceResult, error) {
	if err := checkHours("hours_driven", hoursDriven); err != nil {
		return ComplianceResult{}, err
	}
	if err := checkHours("on_duty_time", onDutyTime); err != nil {
		return ComplianceResult{}, err
	}
	if err := checkHours("hours_since_break", hoursSinceBreak); err != nil {
		return ComplianceResult{}, err
	}
	if lastRestPeriod != nil {
		if err := checkHours("last_rest_period", *lastRestPeriod); err != nil {
			return ComplianceResult{}, err
		}
	}

	l := e.limits
	drive := limitCheck("drive", hoursDriven, l.MaxDriveHours, "driving")
	duty := limitCheck("duty", onDutyTime, l.MaxDutyHours, "on-duty window")

	brk := CheckResult{
		Name:           "break",
		IsCompliant:    hoursSinceBreak <= l.BreakTriggerHours,
		HoursRemaining: math.Max(0, l.BreakTriggerHours-hoursSinceBreak),
	}
	switch {
	case !brk.IsCompliant:
		brk.Message = fmt.Sprintf("%.1fh since last break exceeds %.1fh; a %.0f-minute break was required", hoursSinceBreak, l.BreakTriggerHours, l.RequiredBreakHours*60)
	case hoursSinceBreak >= l.BreakTriggerHours:
		brk.Message = fmt.Sprintf("%.0f-minute break required before further driving", l.RequiredBreakHours*60)
	default:
		brk.Message = fmt.Sprintf("%.1fh until a break is required", brk.HoursRemaining)
	}

	res := ComplianceResult{
		Drive:                 drive,
		Duty:                  duty,
		Break:                 brk,
		HoursRemainingToDrive: drive.HoursRemaining,
		HoursUntilRest:        math.Min(drive.HoursRemaining, duty.HoursRemaining),
		BreakRequired:         hoursSinceBreak >= l.BreakTriggerHours,
		RestRequired:          hoursDriven >= l.MaxDriveHours || onDutyTime >= l.MaxDutyHours,
	}
	res.IsCompliant = drive.IsCompliant && duty.IsCompliant && brk.IsCompliant

	switch {
	case !res.IsCompliant:
		res.Status = StatusNonCompliant
	case minRemaining(drive, duty, brk) <= l.WarningMarginHours:
		res.Status = StatusWarning
	default:
		res.Status = StatusCompliant
	}

	if lastRestPeriod != nil {
		ok := *lastRestPeriod >= l.MinRestHours
		res.LastRestSufficient = &ok
	}

	return res, nil
}

// CanDrive is true when the driver is compliant and no rest is required.
func (e *Engine) CanDrive(hoursDriven, onDutyTime, hoursSinceBreak float64) (bool, error) {
	res, err := e.ValidateCompliance(hoursDriven, onDutyTime, hoursSinceBreak, nil)
	if err != nil {
		return false, err
	}
	return res.IsCompliant && !res.RestRequired, nil
}

func limitCheck(name string, used, limit float64, label string) CheckResult {
	c := CheckResult{
		Name:           name,
		IsCompliant:    used <= limit,
		HoursRemaining: math.Max(0, limit-used),
	}
	switch {
	case !c.IsCompliant:
		c.Message = fmt.Sprintf("%s limit exceeded: %.1fh used of %.1fh", label, used, limit)
	case used >= limit:
		c.Message = fmt.Sprintf("%s limit reached: %.1fh used of %.1fh", label, used, limit)
	default:
		c.Message = fmt.Sprintf("%.1fh of %s remaining", c.HoursRemaining, label)
	}
	return c
}

func minRemaining(checks ...CheckResult) float64 {
	m := math.Inf(1)
	for _, c := range checks {
		m = math.Min(m, c.HoursRemaining)
	}
	return m
}
