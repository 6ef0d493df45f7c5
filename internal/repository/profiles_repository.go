package repository

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/pkg/cleanup"
	"github.com/limbo/caltrack/pkg/entity"
)

type ProfilesRepository struct {
	conn PgConnection
}

func NewProfilesRepo(cfg DBConfig) *ProfilesRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for profilesRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for profilesRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &ProfilesRepository{
		conn: pool,
	}
}

func NewProfilesRepoWithConn(conn PgConnection) *ProfilesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for profilesRepo: " + err.Error())
	}
	return &ProfilesRepository{
		conn: conn,
	}
}

func (pr *ProfilesRepository) Create(ctx context.Context, name string, token uuid.UUID) error {
	tx, err := pr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for profile creation error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO profiles (name, magic_token) VALUES ($1, $2);`, name, token)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return errorvalues.ErrProfileExists
			}
		}
		return errors.New("creating profile db error: " + err.Error())
	}
	if err = syncDocument(ctx, tx, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (pr *ProfilesRepository) GetByName(ctx context.Context, name string) (*entity.Profile, error) {
	var profile entity.Profile
	row := pr.conn.QueryRow(ctx, `SELECT name, magic_token, weight_goal, created_at FROM profiles WHERE name = $1;`, name)
	if err := row.Scan(&profile.Name, &profile.MagicToken, &profile.WeightGoal, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProfileNotFound
		}
		return nil, errors.New("searching profile by name error: " + err.Error())
	}
	return &profile, nil
}

func (pr *ProfilesRepository) GetByToken(ctx context.Context, token uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	row := pr.conn.QueryRow(ctx, `SELECT name, magic_token, weight_goal, created_at FROM profiles WHERE magic_token = $1;`, token)
	if err := row.Scan(&profile.Name, &profile.MagicToken, &profile.WeightGoal, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProfileNotFound
		}
		return nil, errors.New("searching profile by token error: " + err.Error())
	}
	return &profile, nil
}

func (pr *ProfilesRepository) List(ctx context.Context) ([]entity.Profile, error) {
	rows, err := pr.conn.Query(ctx, `SELECT name, magic_token, weight_goal, created_at FROM profiles ORDER BY name;`)
	if err != nil {
		return nil, errors.New("listing profiles error: " + err.Error())
	}
	defer rows.Close()
	profiles := make([]entity.Profile, 0)
	for rows.Next() {
		var p entity.Profile
		err = rows.Scan(&p.Name, &p.MagicToken, &p.WeightGoal, &p.CreatedAt)
		if err != nil {
			return nil, errors.New("profile row parsing error: " + err.Error())
		}
		profiles = append(profiles, p)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected profile rows error: " + rows.Err().Error())
	}
	return profiles, nil
}

func (pr *ProfilesRepository) Count(ctx context.Context) (int, error) {
	var count int
	row := pr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM profiles;`)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("counting profiles error: " + err.Error())
	}
	return count, nil
}

func (pr *ProfilesRepository) Delete(ctx context.Context, name string) error {
	ct, err := pr.conn.Exec(ctx, `DELETE FROM profiles WHERE name = $1;`, name)
	if err != nil {
		return errors.New("deleting profile error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrProfileNotFound
	}
	return nil
}

func (pr *ProfilesRepository) SetWeightGoal(ctx context.Context, name string, goal *float64) error {
	tx, err := pr.conn.Begin(ctx)
	if err != nil {
		return errors.New("opening tx for weight goal error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	ct, err := tx.Exec(ctx, `UPDATE profiles SET weight_goal = $1 WHERE name = $2;`, goal, name)
	if err != nil {
		return errors.New("setting weight goal error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrProfileNotFound
	}
	if err = syncDocument(ctx, tx, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (pr *ProfilesRepository) ExportDocument(ctx context.Context, name string) ([]byte, error) {
	var raw []byte
	row := pr.conn.QueryRow(ctx, `SELECT document FROM profiles WHERE name = $1;`, name)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrProfileNotFound
		}
		return nil, errors.New("exporting profile document error: " + err.Error())
	}
	return raw, nil
}

func (pr *ProfilesRepository) VerifyConsistency(ctx context.Context, name string) (*entity.ConsistencyReport, error) {
	raw, err := pr.ExportDocument(ctx, name)
	if err != nil {
		return nil, err
	}
	var doc entity.ProfileDocument
	if err = sonic.Unmarshal(raw, &doc); err != nil {
		return nil, errors.New("parsing profile document error: " + err.Error())
	}
	docEntries := 0
	for _, meals := range doc.WeeklyLog {
		for _, foods := range meals {
			docEntries += len(foods)
		}
	}
	var rowEntries int
	row := pr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM log_entries WHERE profile_name = $1;`, name)
	if err = row.Scan(&rowEntries); err != nil {
		return nil, errors.New("counting log rows error: " + err.Error())
	}
	report := &entity.ConsistencyReport{
		Profile:         name,
		DocumentEntries: docEntries,
		RowEntries:      rowEntries,
		Consistent:      docEntries == rowEntries,
	}
	if !report.Consistent {
		slog.Warn("profile document diverged from log rows",
			slog.String("profile", name),
			slog.Int("document_entries", docEntries),
			slog.Int("row_entries", rowEntries),
		)
	}
	return report, nil
}
