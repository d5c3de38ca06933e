package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/db"
	"hos-route-service/internal/platform/obs"
	"strings"

	"github.com/google/uuid"
)

// PostgresPlanStore implements ports.PlanStore.
type PostgresPlanStore struct{ DB *sql.DB }

func NewPostgresPlanStore(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{DB: db}
}

// DisplayID derives the short human-facing plan reference from its id.
func DisplayID(id uuid.UUID) string {
	return "RP-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

type segmentDetail struct {
	Drive *domain.DriveDetail `json:"drive,omitempty"`
	Rest  *domain.RestDetail  `json:"rest,omitempty"`
	Fuel  *domain.FuelDetail  `json:"fuel,omitempty"`
	Dock  *domain.DockDetail  `json:"dock,omitempty"`
}

func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreatePlan stores the plan and its segments in one transaction. New plans
// start as drafts.
func (s *PostgresPlanStore) CreatePlan(ctx context.Context, plan *domain.Plan) (_ domain.PlanRecord, err error) {
	defer obs.Time(ctx, "plans.CreatePlan")(&err)

	if s.DB == nil {
		return domain.PlanRecord{}, errors.New("plan store: DB is nil")
	}
	if plan == nil {
		return domain.PlanRecord{}, errors.New("create plan: plan is nil")
	}

	id := uuid.New()
	rec := domain.PlanRecord{ID: id.String(), DisplayID: DisplayID(id), Status: domain.PlanStatusDraft}

	var jsonArgs [6]string
	for i, v := range []any{plan.LoadIDs, plan.StopSequence, plan.Totals, plan.Compliance, plan.Issues, plan.Warnings} {
		if jsonArgs[i], err = jsonArg(v); err != nil {
			return domain.PlanRecord{}, fmt.Errorf("create plan: encode column %d: %w", i, err)
		}
	}

	err = db.InTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO route_plans (id, display_id, tenant_id, driver_id, vehicle_id, status, priority,
			departure_time, arrival_time, is_feasible, load_ids, stop_sequence, totals, compliance,
			issues, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
		`, rec.ID, rec.DisplayID, plan.TenantID, plan.DriverID, plan.VehicleID, string(rec.Status),
			string(plan.Priority), plan.DepartAt, plan.ArriveAt, plan.IsFeasible,
			jsonArgs[0], jsonArgs[1], jsonArgs[2], jsonArgs[3], jsonArgs[4], jsonArgs[5]); err != nil {
			return fmt.Errorf("insert route_plans: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO route_segments (plan_id, sequence_order, segment_type, from_place, to_place,
			detail, hos_after, fuel_after_gallons, estimated_arrival, estimated_departure)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
		`)
		if err != nil {
			return fmt.Errorf("prepare segment insert: %w", err)
		}
		defer stmt.Close()

		for _, seg := range plan.Segments {
			var cols [4]string
			detail := segmentDetail{Drive: seg.Drive, Rest: seg.Rest, Fuel: seg.Fuel, Dock: seg.Dock}
			for i, v := range []any{seg.From, seg.To, detail, seg.HOSAfter} {
				if cols[i], err = jsonArg(v); err != nil {
					return fmt.Errorf("encode segment %d: %w", seg.SequenceOrder, err)
				}
			}
			if _, err := stmt.ExecContext(ctx, rec.ID, seg.SequenceOrder, string(seg.Type),
				cols[0], cols[1], cols[2], cols[3], seg.FuelAfter, seg.ArriveAt, seg.DepartAt); err != nil {
				return fmt.Errorf("insert segment %d: %w", seg.SequenceOrder, err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("create plan: %w", err)
	}

	return rec, nil
}

// TransitionStatus moves a stored plan to next when the lifecycle allows it.
func (s *PostgresPlanStore) TransitionStatus(
	ctx context.Context,
	tenantID, planID string,
	next domain.PlanStatus,
) (_ domain.PlanRecord, err error) {
	defer obs.Time(ctx, "plans.TransitionStatus")(&err)

	if s.DB == nil {
		return domain.PlanRecord{}, errors.New("plan store: DB is nil")
	}

	id, err := uuid.Parse(planID)
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("transition plan %q: %w", planID, domain.ErrNotFound)
	}

	rec := domain.PlanRecord{ID: id.String()}
	err = db.InTx(ctx, s.DB, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `
		SELECT display_id, status FROM route_plans
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE;
		`, tenantID, rec.ID).Scan(&rec.DisplayID, &current)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}

		from := domain.PlanStatus(current)
		if !from.CanTransition(next) {
			return fmt.Errorf("%s -> %s: %w", from, next, domain.ErrInvalidTransition)
		}

		if _, err := tx.ExecContext(ctx, `
		UPDATE route_plans SET status = $1, updated_at = now()
		WHERE id = $2;
		`, string(next), rec.ID); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.PlanRecord{}, fmt.Errorf("transition plan %q: %w", planID, err)
	}

	rec.Status = next
	return rec, nil
}
