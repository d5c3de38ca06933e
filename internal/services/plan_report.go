package services

import (
	"fmt"
	"hos-route-service/internal/domain"
)

// summarize fills in totals, stop summaries, the compliance report and the
// feasibility flag once the timeline is complete.
func (p *RoutePlanner) summarize(plan *domain.Plan, start domain.HOSState) {
	limits := p.hos.Limits()
	cost := p.cfg.Cost

	var totals domain.PlanTotals
	report := domain.ComplianceReport{
		Drive:      domain.LimitUsage{Used: start.HoursDriven, Limit: limits.MaxDriveHours},
		Duty:       domain.LimitUsage{Used: start.OnDutyTime, Limit: limits.MaxDutyHours},
		SinceBreak: domain.LimitUsage{Used: start.HoursSinceBreak, Limit: limits.BreakTriggerHours},
		Cycle:      domain.LimitUsage{Used: start.CycleHoursUsed, Limit: limits.CycleLimitHours},
		Violations: []string{},
	}
	plan.RestStops = []domain.RestStopSummary{}
	plan.FuelStops = []domain.FuelStopSummary{}

	violate := func(seg domain.RouteSegment, msg string) {
		report.Violations = append(report.Violations, fmt.Sprintf("segment %d: %s", seg.SequenceOrder, msg))
		plan.Issues = append(plan.Issues, domain.FeasibilityIssue{
			Code:         domain.IssueHOSViolation,
			Message:      msg,
			StopID:       seg.To.StopID,
			SegmentOrder: seg.SequenceOrder,
		})
	}

	breakDue := start.HoursSinceBreak >= limits.BreakTriggerHours-hoursEpsilon
	for _, seg := range plan.Segments {
		after := seg.HOSAfter

		switch seg.Type {
		case domain.SegmentDrive:
			if breakDue {
				report.BreaksRequired++
			}
			totals.DistanceMiles += seg.Drive.DistanceMiles
			totals.DriveHours += seg.Drive.DriveTimeHours
			totals.OnDutyHours += seg.Drive.DriveTimeHours

			report.Drive.Used = maxFloat(report.Drive.Used, after.HoursDriven)
			report.Duty.Used = maxFloat(report.Duty.Used, after.OnDutyTime)
			report.SinceBreak.Used = maxFloat(report.SinceBreak.Used, after.HoursSinceBreak)

			if after.HoursDriven > limits.MaxDriveHours+hoursEpsilon {
				violate(seg, fmt.Sprintf("drive time %.2fh exceeds %.0fh limit", after.HoursDriven, limits.MaxDriveHours))
			}
			if after.OnDutyTime > limits.MaxDutyHours+hoursEpsilon {
				violate(seg, fmt.Sprintf("driving after %.2fh on duty exceeds %.0fh window", after.OnDutyTime, limits.MaxDutyHours))
			}
			if after.HoursSinceBreak > limits.BreakTriggerHours+hoursEpsilon {
				violate(seg, fmt.Sprintf("%.2fh without a break exceeds %.0fh", after.HoursSinceBreak, limits.BreakTriggerHours))
			}
			if after.CycleHoursUsed > limits.CycleLimitHours+hoursEpsilon {
				violate(seg, fmt.Sprintf("cycle hours %.2fh exceed %.0fh limit", after.CycleHoursUsed, limits.CycleLimitHours))
			}

		case domain.SegmentDock:
			totals.OnDutyHours += seg.Dock.DurationHours

		case domain.SegmentFuel:
			totals.OnDutyHours += seg.Fuel.DurationHours
			totals.FuelGallons += seg.Fuel.Gallons
			totals.FuelCost += seg.Fuel.Cost
			plan.FuelStops = append(plan.FuelStops, domain.FuelStopSummary{
				SegmentOrder:   seg.SequenceOrder,
				StationID:      seg.Fuel.StationID,
				StationName:    seg.Fuel.StationName,
				Point:          seg.To.Point,
				Gallons:        seg.Fuel.Gallons,
				PricePerGallon: seg.Fuel.PricePerGallon,
				Cost:           seg.Fuel.Cost,
			})

		case domain.SegmentRest:
			totals.RestHours += seg.Rest.DurationHours
			switch seg.Rest.Type {
			case domain.RestMandatoryBreak:
				report.BreaksPlanned++
				if breakDue {
					report.BreaksRequired++
				}
			case domain.RestFull:
				report.FullRests++
			case domain.RestPartial:
				report.SplitRests++
			case domain.RestRestart34h:
				report.Restarts++
			}
			plan.RestStops = append(plan.RestStops, domain.RestStopSummary{
				SegmentOrder:  seg.SequenceOrder,
				Type:          seg.Rest.Type,
				Name:          seg.To.Name,
				RestAreaID:    seg.Rest.RestAreaID,
				Point:         seg.To.Point,
				DurationHours: seg.Rest.DurationHours,
				StartAt:       seg.ArriveAt,
			})
		}

		breakDue = after.HoursSinceBreak >= limits.BreakTriggerHours-hoursEpsilon
	}

	if n := len(plan.Segments); n > 0 {
		report.Cycle.Used = plan.Segments[n-1].HOSAfter.CycleHoursUsed
	}
	report.IsCompliant = len(report.Violations) == 0

	totals.OperatingCost = totals.DistanceMiles*cost.OperatingCostPerMile + totals.OnDutyHours*cost.DriverCostPerHour
	totals.Cost = totals.FuelCost + totals.OperatingCost
	totals.ElapsedHours = plan.ArriveAt.Sub(plan.DepartAt).Hours()

	plan.Totals = totals
	plan.Compliance = report
	plan.IsFeasible = len(plan.Issues) == 0
}
