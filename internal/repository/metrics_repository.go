package repository

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/cleanup"
	"github.com/limbo/caltrack/pkg/entity"
)

// MetricsRepository stores the weight series and the sparse daily goal
// series of a profile.
type MetricsRepository struct {
	conn PgConnection
}

func NewMetricsRepo(cfg DBConfig) *MetricsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for metricsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for metricsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &MetricsRepository{
		conn: pool,
	}
}

func NewMetricsRepoWithConn(conn PgConnection) *MetricsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for metricsRepo: " + err.Error())
	}
	return &MetricsRepository{
		conn: conn,
	}
}

func (mr *MetricsRepository) LogWeight(ctx context.Context, profile, date string, weight float64) error {
	tx, err := mr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for weight log error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO weights (profile_name, log_date, weight) VALUES ($1, $2, $3) ON CONFLICT (profile_name, log_date) DO UPDATE SET weight = EXCLUDED.weight;`,
		profile,
		date,
		weight,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrProfileNotFound
			}
		}
		return errors.New("logging weight error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (mr *MetricsRepository) GetWeight(ctx context.Context, profile, date string) (float64, error) {
	var weight float64
	row := mr.conn.QueryRow(ctx, `SELECT weight FROM weights WHERE profile_name = $1 AND log_date = $2;`, profile, date)
	if err := row.Scan(&weight); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errorvalues.ErrNoWeightData
		}
		return 0, errors.New("getting weight error: " + err.Error())
	}
	return weight, nil
}

func (mr *MetricsRepository) PreviousWeight(ctx context.Context, profile, date string) (float64, error) {
	var weight float64
	row := mr.conn.QueryRow(ctx, `SELECT weight FROM weights WHERE profile_name = $1 AND log_date < $2 ORDER BY log_date DESC LIMIT 1;`, profile, date)
	if err := row.Scan(&weight); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errorvalues.ErrNoWeightData
		}
		return 0, errors.New("getting previous weight error: " + err.Error())
	}
	return weight, nil
}

func (mr *MetricsRepository) WeightSeries(ctx context.Context, profile string) ([]entity.WeightEntry, error) {
	rows, err := mr.conn.Query(ctx, `SELECT log_date, weight FROM weights WHERE profile_name = $1 ORDER BY log_date;`, profile)
	if err != nil {
		return nil, errors.New("getting weight series error: " + err.Error())
	}
	defer rows.Close()
	series := make([]entity.WeightEntry, 0)
	for rows.Next() {
		var w entity.WeightEntry
		err = rows.Scan(&w.Date, &w.Weight)
		if err != nil {
			return nil, errors.New("weight row parsing error: " + err.Error())
		}
		series = append(series, w)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected weight rows error: " + rows.Err().Error())
	}
	return series, nil
}

func (mr *MetricsRepository) SetDailyGoal(ctx context.Context, profile, date string, calories int) error {
	tx, err := mr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for goal set error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO daily_goals (profile_name, log_date, calories) VALUES ($1, $2, $3) ON CONFLICT (profile_name, log_date) DO UPDATE SET calories = EXCLUDED.calories;`,
		profile,
		date,
		calories,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return errorvalues.ErrProfileNotFound
			}
		}
		return errors.New("setting daily goal error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EffectiveDailyGoal resolves the sparse goal series: the most recent
// explicit goal at or before date.
func (mr *MetricsRepository) EffectiveDailyGoal(ctx context.Context, profile, date string) (int, error) {
	var calories int
	row := mr.conn.QueryRow(ctx, `SELECT calories FROM daily_goals WHERE profile_name = $1 AND log_date <= $2 ORDER BY log_date DESC LIMIT 1;`, profile, date)
	if err := row.Scan(&calories); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errorvalues.ErrGoalNotSet
		}
		return 0, errors.New("resolving daily goal error: " + err.Error())
	}
	return calories, nil
}
