package repository

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/cleanup"
	"github.com/limbo/caltrack/pkg/entity"
)

type LogRepository struct {
	conn PgConnection
}

func NewLogRepo(cfg DBConfig) *LogRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for logRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for logRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &LogRepository{
		conn: pool,
	}
}

func NewLogRepoWithConn(conn PgConnection) *LogRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for logRepo: " + err.Error())
	}
	return &LogRepository{
		conn: conn,
	}
}

func (lr *LogRepository) InitDay(ctx context.Context, profile, date string) (bool, error) {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return false, errors.New("opening tx for day init error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `INSERT INTO log_days (profile_name, log_date) VALUES ($1, $2) ON CONFLICT (profile_name, log_date) DO NOTHING;`, profile, date)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return false, errorvalues.ErrProfileNotFound
			}
		}
		return false, errors.New("initializing day error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		// Already initialized, nothing to persist
		return false, tx.Commit(ctx)
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (lr *LogRepository) GetDay(ctx context.Context, profile, date string) (*entity.DayLog, error) {
	rows, err := lr.conn.Query(ctx, `SELECT id, meal_slot, food_name, calories, quantity, manual_override FROM log_entries WHERE profile_name = $1 AND log_date = $2 ORDER BY created_at;`, profile, date)
	if err != nil {
		return nil, errors.New("getting day entries error: " + err.Error())
	}
	defer rows.Close()
	day := entity.NewDayLog(date)
	for rows.Next() {
		var e entity.LogEntry
		var slot entity.MealSlot
		err = rows.Scan(&e.ID, &slot, &e.FoodName, &e.Calories, &e.Quantity, &e.ManualOverride)
		if err != nil {
			return nil, errors.New("day entry row parsing error: " + err.Error())
		}
		day.Meals[slot] = append(day.Meals[slot], e)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected day entry rows error: " + rows.Err().Error())
	}
	return day, nil
}

func (lr *LogRepository) AddEntry(ctx context.Context, profile, date string, slot entity.MealSlot, entry *entity.LogEntry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for entry add error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO log_days (profile_name, log_date) VALUES ($1, $2) ON CONFLICT (profile_name, log_date) DO NOTHING;`, profile, date)
	if err != nil {
		return errors.New("ensuring day row error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `INSERT INTO log_entries (id, profile_name, log_date, meal_slot, food_name, quantity, calories, manual_override) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		entry.ID,
		profile,
		date,
		slot,
		entry.FoodName,
		entry.Quantity,
		entry.Calories,
		entry.ManualOverride,
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
		return errors.New("adding log entry error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (lr *LogRepository) DeleteEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID) error {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for entry delete error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `DELETE FROM log_entries WHERE profile_name = $1 AND log_date = $2 AND meal_slot = $3 AND id = $4;`, profile, date, slot, id)
	if err != nil {
		return errors.New("deleting log entry error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		// Deleting a missing entry is a no-op
		return tx.Commit(ctx)
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (lr *LogRepository) UpdateEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, name string, quantity, calories int, manualOverride bool) error {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for entry update error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `UPDATE log_entries SET food_name = $1, quantity = $2, calories = $3, manual_override = $4 WHERE profile_name = $5 AND log_date = $6 AND meal_slot = $7 AND id = $8;`,
		name,
		quantity,
		calories,
		manualOverride,
		profile,
		date,
		slot,
		id,
	)
	if err != nil {
		return errors.New("updating log entry error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrEntryNotFound
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (lr *LogRepository) UpdateEntryCalories(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, calories int) error {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for calories update error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `UPDATE log_entries SET calories = $1 WHERE profile_name = $2 AND log_date = $3 AND meal_slot = $4 AND id = $5;`,
		calories,
		profile,
		date,
		slot,
		id,
	)
	if err != nil {
		return errors.New("updating entry calories error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrEntryNotFound
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecalculateDay re-derives calories of non-override entries from current
// catalog prices. Entries whose food name is absent from the catalog are
// left untouched. Safe to run repeatedly: a second pass changes nothing.
func (lr *LogRepository) RecalculateDay(ctx context.Context, profile, date string) (int, error) {
	tx, err := lr.conn.Begin(ctx)
	if err != nil {
		return 0, errors.New("opening tx for day recalculation error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `UPDATE log_entries e SET calories = c.calories_per_unit * e.quantity FROM catalog_foods c WHERE c.profile_name = e.profile_name AND c.food_name = e.food_name AND e.profile_name = $1 AND e.log_date = $2 AND NOT e.manual_override AND e.calories <> c.calories_per_unit * e.quantity;`,
		profile,
		date,
	)
	if err != nil {
		return 0, errors.New("recalculating day error: " + err.Error())
	}
	repaired := int(ct.RowsAffected())
	if repaired == 0 {
		return 0, tx.Commit(ctx)
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return 0, err
	}
	return repaired, tx.Commit(ctx)
}

func (lr *LogRepository) DailyTotals(ctx context.Context, profile string) ([]entity.DayTotal, error) {
	rows, err := lr.conn.Query(ctx, `SELECT d.log_date, COALESCE(SUM(e.calories), 0) FROM log_days d LEFT JOIN log_entries e ON e.profile_name = d.profile_name AND e.log_date = d.log_date WHERE d.profile_name = $1 GROUP BY d.log_date ORDER BY d.log_date DESC;`, profile)
	if err != nil {
		return nil, errors.New("getting daily totals error: " + err.Error())
	}
	defer rows.Close()
	totals := make([]entity.DayTotal, 0)
	for rows.Next() {
		var t entity.DayTotal
		err = rows.Scan(&t.Date, &t.TotalCalories)
		if err != nil {
			return nil, errors.New("daily total row parsing error: " + err.Error())
		}
		totals = append(totals, t)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected daily total rows error: " + rows.Err().Error())
	}
	return totals, nil
}

func (lr *LogRepository) MealTotals(ctx context.Context, profile, date string) (map[entity.MealSlot]int, error) {
	rows, err := lr.conn.Query(ctx, `SELECT meal_slot, SUM(calories) FROM log_entries WHERE profile_name = $1 AND log_date = $2 GROUP BY meal_slot;`, profile, date)
	if err != nil {
		return nil, errors.New("getting meal totals error: " + err.Error())
	}
	defer rows.Close()
	totals := make(map[entity.MealSlot]int, len(entity.MealSlots))
	for _, slot := range entity.MealSlots {
		totals[slot] = 0
	}
	for rows.Next() {
		var slot entity.MealSlot
		var total int
		err = rows.Scan(&slot, &total)
		if err != nil {
			return nil, errors.New("meal total row parsing error: " + err.Error())
		}
		totals[slot] = total
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected meal total rows error: " + rows.Err().Error())
	}
	return totals, nil
}

func (lr *LogRepository) ListDays(ctx context.Context, profile, start, end string) ([]string, error) {
	rows, err := lr.conn.Query(ctx, `SELECT log_date FROM log_days WHERE profile_name = $1 AND ($2 = '' OR log_date >= $2) AND ($3 = '' OR log_date <= $3) ORDER BY log_date DESC;`, profile, start, end)
	if err != nil {
		return nil, errors.New("listing days error: " + err.Error())
	}
	defer rows.Close()
	days := make([]string, 0)
	for rows.Next() {
		var date string
		err = rows.Scan(&date)
		if err != nil {
			return nil, errors.New("day row parsing error: " + err.Error())
		}
		days = append(days, date)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected day rows error: " + rows.Err().Error())
	}
	return days, nil
}
