package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/idhash"
	"trendbuild/internal/storage"
)

// RecommendationStore implements storage.RecommendationStore using ClickHouse.
type RecommendationStore struct {
	conn *Conn
}

// NewRecommendationStore creates a new RecommendationStore.
func NewRecommendationStore(conn *Conn) *RecommendationStore {
	return &RecommendationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RecommendationStore = (*RecommendationStore)(nil)

const recommendationColumns = `
	run_id, run_date, run_at, position, identity_key,
	url, author, caption, market, is_ai,
	shares, likes, views, created_at_raw,
	age_hours, shares_per_hour, likes_per_hour, views_per_hour, momentum,
	velocity, acceleration, acceleration_capped,
	predicted_6h, predicted_12h, predicted_24h,
	trajectory, peak_estimate_hours, confidence, has_history,
	momentum_yesterday, momentum_two_days,
	action_window, variants, streak, stop_building, stop_reason, opportunity_score
`

// InsertBulk adds all recommendations of one run.
// MergeTree does not enforce uniqueness, so the run ID is checked first.
func (s *RecommendationStore) InsertBulk(ctx context.Context, run domain.RunInfo, recs []domain.Recommendation) (err error) {
	if run.RunID == "" {
		return storage.ErrInvalidInput
	}
	runDate, err := time.Parse(domain.DateLayout, run.RunDate)
	if err != nil {
		return fmt.Errorf("run date %q: %w", run.RunDate, storage.ErrInvalidInput)
	}
	start := time.Now()
	defer func() { observe("insert_recommendations", start, err) }()

	exists, err := s.runExists(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}
	if len(recs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO recommendations (`+recommendationColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, r := range recs {
		v := r.Velocity
		err = batch.Append(
			run.RunID, runDate, run.RunAt.UTC(), uint32(i), idhash.IdentityKey(r.Record.URL),
			r.Record.URL, r.Record.Author, r.Record.Caption, r.Record.Market.String(), boolToUInt8(r.Record.IsAI),
			r.Record.Shares, r.Record.Likes, r.Record.Views, r.Record.CreatedAt,
			r.Metrics.AgeHours, r.Metrics.SharesPerHour, r.Metrics.LikesPerHour, r.Metrics.ViewsPerHour, r.Metrics.Momentum,
			v.Velocity, v.Acceleration, v.AccelerationCapped,
			v.Predicted6h, v.Predicted12h, v.Predicted24h,
			v.Trajectory.String(), v.PeakEstimateHours, v.Confidence.String(), boolToUInt8(v.HasHistory),
			v.MomentumYesterday, v.MomentumTwoDaysAgo,
			r.Window.String(), uint8(r.Variants), uint32(r.Streak), boolToUInt8(r.Stop), r.StopReason.String(), r.OpportunityScore,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun returns a run's recommendations in their stored order.
func (s *RecommendationStore) GetByRun(ctx context.Context, runID string) (result []*domain.StoredRecommendation, err error) {
	start := time.Now()
	defer func() { observe("get_recommendations_by_run", start, err) }()

	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE run_id = ? ORDER BY position ASC`
	result, err = s.query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	if len(result) == 0 {
		return nil, storage.ErrNotFound
	}
	return result, nil
}

// GetByIdentity returns every stored recommendation for url, ordered by run time ASC.
func (s *RecommendationStore) GetByIdentity(ctx context.Context, url string) (result []*domain.StoredRecommendation, err error) {
	start := time.Now()
	defer func() { observe("get_recommendations_by_identity", start, err) }()

	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE identity_key = ? ORDER BY run_at ASC, position ASC`
	result, err = s.query(ctx, query, idhash.IdentityKey(url))
	if err != nil {
		return nil, fmt.Errorf("query by identity: %w", err)
	}
	return result, nil
}

// LatestRun returns the most recent run. Returns ErrNotFound when empty.
func (s *RecommendationStore) LatestRun(ctx context.Context) (run domain.RunInfo, err error) {
	start := time.Now()
	defer func() { observe("latest_run", start, err) }()

	var count uint64
	if err = s.conn.QueryRow(ctx, `SELECT count() FROM recommendations`).Scan(&count); err != nil {
		return domain.RunInfo{}, fmt.Errorf("count recommendations: %w", err)
	}
	if count == 0 {
		return domain.RunInfo{}, storage.ErrNotFound
	}

	var runDate time.Time
	err = s.conn.QueryRow(ctx, `
		SELECT run_id, run_date, run_at
		FROM recommendations
		ORDER BY run_at DESC, run_id DESC
		LIMIT 1
	`).Scan(&run.RunID, &runDate, &run.RunAt)
	if err != nil {
		return domain.RunInfo{}, fmt.Errorf("latest run: %w", err)
	}
	run.RunDate = runDate.Format(domain.DateLayout)
	run.RunAt = run.RunAt.UTC()
	return run, nil
}

func (s *RecommendationStore) runExists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM recommendations WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *RecommendationStore) query(ctx context.Context, query string, args ...any) ([]*domain.StoredRecommendation, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.StoredRecommendation
	for rows.Next() {
		var (
			r            domain.StoredRecommendation
			runDate      time.Time
			position     uint32
			identityKey  string
			market       string
			trajectory   string
			confidence   string
			window       string
			stopReason   string
			isAI         uint8
			hasHistory   uint8
			stopBuilding uint8
			variants     uint8
			streak       uint32
		)
		v := &r.Velocity
		err := rows.Scan(
			&r.Run.RunID, &runDate, &r.Run.RunAt, &position, &identityKey,
			&r.Record.URL, &r.Record.Author, &r.Record.Caption, &market, &isAI,
			&r.Record.Shares, &r.Record.Likes, &r.Record.Views, &r.Record.CreatedAt,
			&r.Metrics.AgeHours, &r.Metrics.SharesPerHour, &r.Metrics.LikesPerHour, &r.Metrics.ViewsPerHour, &r.Metrics.Momentum,
			&v.Velocity, &v.Acceleration, &v.AccelerationCapped,
			&v.Predicted6h, &v.Predicted12h, &v.Predicted24h,
			&trajectory, &v.PeakEstimateHours, &confidence, &hasHistory,
			&v.MomentumYesterday, &v.MomentumTwoDaysAgo,
			&window, &variants, &streak, &stopBuilding, &stopReason, &r.OpportunityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		r.Run.RunDate = runDate.Format(domain.DateLayout)
		r.Run.RunAt = r.Run.RunAt.UTC()
		r.Record.Market = domain.Market(market)
		r.Record.IsAI = isAI == 1
		v.Trajectory = domain.Trajectory(trajectory)
		v.Confidence = domain.Confidence(confidence)
		v.HasHistory = hasHistory == 1
		r.Window = domain.ActionWindow(window)
		r.Variants = int(variants)
		r.Streak = int(streak)
		r.Stop = stopBuilding == 1
		r.StopReason = domain.StopReason(stopReason)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return result, nil
}
