package repository

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/entity"
)

// pgQuerier is the slice of PgConnection both pgx.Tx and the pool satisfy.
// Document generation runs inside the mutation's transaction so the rows
// and the document commit or roll back together.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// syncDocument regenerates the legacy JSON document of a profile from the
// relational rows and stores it on the profile row.
func syncDocument(ctx context.Context, q pgQuerier, profile string) error {
	doc, err := buildDocument(ctx, q, profile)
	if err != nil {
		return err
	}
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return errors.New("marshalling profile document error: " + err.Error())
	}
	ct, err := q.Exec(ctx, `UPDATE profiles SET document = $1 WHERE name = $2;`, raw, profile)
	if err != nil {
		return errors.New("storing profile document error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrProfileNotFound
	}
	return nil
}

func buildDocument(ctx context.Context, q pgQuerier, profile string) (*entity.ProfileDocument, error) {
	doc := &entity.ProfileDocument{
		FoodDatabase:  make(map[string]int),
		WeeklyLog:     make(map[string]map[entity.MealSlot][]entity.LogEntry),
		Weights:       make(map[string]float64),
		DailyCalories: make(map[string]int),
	}

	row := q.QueryRow(ctx, `SELECT magic_token, weight_goal FROM profiles WHERE name = $1;`, profile)
	var token string
	if err := row.Scan(&token, &doc.WeightGoal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProfileNotFound
		}
		return nil, errors.New("reading profile row error: " + err.Error())
	}
	doc.UUID = token

	rows, err := q.Query(ctx, `SELECT food_name, calories_per_unit FROM catalog_foods WHERE profile_name = $1;`, profile)
	if err != nil {
		return nil, errors.New("reading catalog rows error: " + err.Error())
	}
	for rows.Next() {
		var name string
		var calories int
		if err = rows.Scan(&name, &calories); err != nil {
			rows.Close()
			return nil, errors.New("catalog row parsing error: " + err.Error())
		}
		doc.FoodDatabase[name] = calories
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.New("unexpected catalog rows error: " + rows.Err().Error())
	}

	rows, err = q.Query(ctx, `SELECT log_date FROM log_days WHERE profile_name = $1;`, profile)
	if err != nil {
		return nil, errors.New("reading day rows error: " + err.Error())
	}
	for rows.Next() {
		var date string
		if err = rows.Scan(&date); err != nil {
			rows.Close()
			return nil, errors.New("day row parsing error: " + err.Error())
		}
		doc.WeeklyLog[date] = entity.NewDayLog(date).Meals
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.New("unexpected day rows error: " + rows.Err().Error())
	}

	rows, err = q.Query(ctx, `SELECT id, log_date, meal_slot, food_name, calories, quantity, manual_override FROM log_entries WHERE profile_name = $1 ORDER BY created_at;`, profile)
	if err != nil {
		return nil, errors.New("reading log rows error: " + err.Error())
	}
	for rows.Next() {
		var e entity.LogEntry
		var date string
		var slot entity.MealSlot
		if err = rows.Scan(&e.ID, &date, &slot, &e.FoodName, &e.Calories, &e.Quantity, &e.ManualOverride); err != nil {
			rows.Close()
			return nil, errors.New("log row parsing error: " + err.Error())
		}
		if _, ok := doc.WeeklyLog[date]; !ok {
			doc.WeeklyLog[date] = entity.NewDayLog(date).Meals
		}
		doc.WeeklyLog[date][slot] = append(doc.WeeklyLog[date][slot], e)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.New("unexpected log rows error: " + rows.Err().Error())
	}

	rows, err = q.Query(ctx, `SELECT log_date, weight FROM weights WHERE profile_name = $1;`, profile)
	if err != nil {
		return nil, errors.New("reading weight rows error: " + err.Error())
	}
	for rows.Next() {
		var date string
		var weight float64
		if err = rows.Scan(&date, &weight); err != nil {
			rows.Close()
			return nil, errors.New("weight row parsing error: " + err.Error())
		}
		doc.Weights[date] = weight
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.New("unexpected weight rows error: " + rows.Err().Error())
	}

	rows, err = q.Query(ctx, `SELECT log_date, calories FROM daily_goals WHERE profile_name = $1;`, profile)
	if err != nil {
		return nil, errors.New("reading goal rows error: " + err.Error())
	}
	for rows.Next() {
		var date string
		var calories int
		if err = rows.Scan(&date, &calories); err != nil {
			rows.Close()
			return nil, errors.New("goal row parsing error: " + err.Error())
		}
		doc.DailyCalories[date] = calories
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, errors.New("unexpected goal rows error: " + rows.Err().Error())
	}

	return doc, nil
}
