package main

import (
	"encoding/json"
	"fmt"
	"hos-route-service/internal/domain"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderPlan writes the plan timeline and its totals as tables.
func renderPlan(w io.Writer, name string, p *domain.Plan) {
	verdict := "feasible"
	if !p.IsFeasible {
		verdict = "NOT feasible"
	}
	fmt.Fprintf(w, "%s: %s, stops %s\n", name, verdict, strings.Join(p.StopSequence, " -> "))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Type", "From", "To", "Miles", "Arrive", "Depart", "Detail", "Drive (h)", "Fuel (gal)"})
	for _, s := range p.Segments {
		tw.AppendRow(table.Row{
			s.SequenceOrder,
			s.Type,
			s.From.Name,
			s.To.Name,
			fmt.Sprintf("%.1f", s.DistanceMiles()),
			s.ArriveAt.UTC().Format(time.RFC3339),
			s.DepartAt.UTC().Format(time.RFC3339),
			segmentDetail(s),
			fmt.Sprintf("%.2f", s.HOSAfter.HoursDriven),
			fmt.Sprintf("%.1f", s.FuelAfter),
		})
	}
	tw.Render()

	t := p.Totals
	sum := table.NewWriter()
	sum.SetOutputMirror(w)
	sum.AppendRows([]table.Row{
		{"distance (mi)", fmt.Sprintf("%.1f", t.DistanceMiles)},
		{"drive (h)", fmt.Sprintf("%.2f", t.DriveHours)},
		{"on duty (h)", fmt.Sprintf("%.2f", t.OnDutyHours)},
		{"rest (h)", fmt.Sprintf("%.2f", t.RestHours)},
		{"elapsed (h)", fmt.Sprintf("%.2f", t.ElapsedHours)},
		{"fuel (gal)", fmt.Sprintf("%.1f", t.FuelGallons)},
		{"fuel cost", fmt.Sprintf("$%.2f", t.FuelCost)},
		{"total cost", fmt.Sprintf("$%.2f", t.Cost)},
		{"arrival", p.ArriveAt.UTC().Format(time.RFC3339)},
	})
	sum.Render()

	for _, is := range p.Issues {
		fmt.Fprintf(w, "issue %s: %s\n", is.Code, is.Message)
	}
	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func segmentDetail(s domain.RouteSegment) string {
	switch {
	case s.Rest != nil:
		return fmt.Sprintf("%s %.1fh", s.Rest.Type, s.Rest.DurationHours)
	case s.Fuel != nil:
		return fmt.Sprintf("%s %.1f gal @ $%.2f", s.Fuel.StationName, s.Fuel.Gallons, s.Fuel.PricePerGallon)
	case s.Dock != nil:
		if s.Dock.WaitHours > 0 {
			return fmt.Sprintf("dock %.1fh, wait %.1fh", s.Dock.DurationHours, s.Dock.WaitHours)
		}
		return fmt.Sprintf("dock %.1fh", s.Dock.DurationHours)
	case s.Drive != nil:
		if s.Drive.WeatherMultiplier > 1 {
			return fmt.Sprintf("%s x%.2f weather", s.Drive.Source, s.Drive.WeatherMultiplier)
		}
		return s.Drive.Source
	}
	return ""
}
