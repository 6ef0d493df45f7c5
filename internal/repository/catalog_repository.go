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
)

type CatalogRepository struct {
	conn PgConnection
}

func NewCatalogRepo(cfg DBConfig) *CatalogRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for catalogRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for catalogRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &CatalogRepository{
		conn: pool,
	}
}

func NewCatalogRepoWithConn(conn PgConnection) *CatalogRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for catalogRepo: " + err.Error())
	}
	return &CatalogRepository{
		conn: conn,
	}
}

func (cr *CatalogRepository) Get(ctx context.Context, profile, food string) (int, error) {
	var calories int
	row := cr.conn.QueryRow(ctx, `SELECT calories_per_unit FROM catalog_foods WHERE profile_name = $1 AND food_name = $2;`, profile, food)
	if err := row.Scan(&calories); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errorvalues.ErrFoodNotFound
		}
		return 0, errors.New("getting food calories error: " + err.Error())
	}
	return calories, nil
}

func (cr *CatalogRepository) GetAll(ctx context.Context, profile string) (map[string]int, error) {
	rows, err := cr.conn.Query(ctx, `SELECT food_name, calories_per_unit FROM catalog_foods WHERE profile_name = $1;`, profile)
	if err != nil {
		return nil, errors.New("listing catalog error: " + err.Error())
	}
	defer rows.Close()
	catalog := make(map[string]int)
	for rows.Next() {
		var name string
		var calories int
		err = rows.Scan(&name, &calories)
		if err != nil {
			return nil, errors.New("catalog row parsing error: " + err.Error())
		}
		catalog[name] = calories
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected catalog rows error: " + rows.Err().Error())
	}
	return catalog, nil
}

func (cr *CatalogRepository) Set(ctx context.Context, profile, food string, caloriesPerUnit int) error {
	tx, err := cr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for catalog set error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO catalog_foods (profile_name, food_name, calories_per_unit) VALUES ($1, $2, $3) ON CONFLICT (profile_name, food_name) DO UPDATE SET calories_per_unit = EXCLUDED.calories_per_unit;`,
		profile,
		food,
		caloriesPerUnit,
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
		return errors.New("setting food calories error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the catalog entry and purges every log entry with that
// food name across all dates and meals in one transaction. A name absent
// from the catalog is not an error: the log purge still runs, so entries
// logged against an uncataloged name remain removable.
func (cr *CatalogRepository) Delete(ctx context.Context, profile, food string) error {
	tx, err := cr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for catalog delete error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `DELETE FROM catalog_foods WHERE profile_name = $1 AND food_name = $2;`, profile, food)
	if err != nil {
		return errors.New("deleting catalog food error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `DELETE FROM log_entries WHERE profile_name = $1 AND food_name = $2;`, profile, food)
	if err != nil {
		return errors.New("purging log entries error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RenameAndReprice rewrites the catalog entry and cascades into every log
// entry with the old name: new name, calories = per unit * quantity. The
// cascade deliberately ignores the manual override flag. A missing old
// name is not an error: the new name is registered and the cascade runs
// over whatever log entries carry the old one.
func (cr *CatalogRepository) RenameAndReprice(ctx context.Context, profile, oldName, newName string, caloriesPerUnit int) error {
	tx, err := cr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for catalog rename error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `DELETE FROM catalog_foods WHERE profile_name = $1 AND food_name = $2;`, profile, oldName)
	if err != nil {
		return errors.New("removing old catalog food error: " + err.Error())
	}
	// Renaming onto an existing name overwrites it
	_, err = tx.Exec(ctx, `INSERT INTO catalog_foods (profile_name, food_name, calories_per_unit) VALUES ($1, $2, $3) ON CONFLICT (profile_name, food_name) DO UPDATE SET calories_per_unit = EXCLUDED.calories_per_unit;`,
		profile,
		newName,
		caloriesPerUnit,
	)
	if err != nil {
		return errors.New("inserting renamed catalog food error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `UPDATE log_entries SET food_name = $1, calories = $2 * quantity WHERE profile_name = $3 AND food_name = $4;`,
		newName,
		caloriesPerUnit,
		profile,
		oldName,
	)
	if err != nil {
		return errors.New("cascading rename into log entries error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (cr *CatalogRepository) FoodCounts(ctx context.Context, profile string) (map[string]int, error) {
	rows, err := cr.conn.Query(ctx, `SELECT food_name, COUNT(*) FROM log_entries WHERE profile_name = $1 GROUP BY food_name;`, profile)
	if err != nil {
		return nil, errors.New("counting food references error: " + err.Error())
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		err = rows.Scan(&name, &count)
		if err != nil {
			return nil, errors.New("food count row parsing error: " + err.Error())
		}
		counts[name] = count
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected food count rows error: " + rows.Err().Error())
	}
	return counts, nil
}
