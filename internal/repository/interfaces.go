package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/caltrack/pkg/entity"
)

type ProfilesRepositoryI interface {
	// Creates a profile row with a fresh magic token
	Create(ctx context.Context, name string, token uuid.UUID) error
	// Looks up a profile by its unique name
	GetByName(ctx context.Context, name string) (*entity.Profile, error)
	// Looks up a profile by its magic token. Used for cookie/link re-selection
	GetByToken(ctx context.Context, token uuid.UUID) (*entity.Profile, error)
	// Lists all profiles with their tokens
	List(ctx context.Context) ([]entity.Profile, error)
	// Counts existing profiles. Needed for the last-profile guard
	Count(ctx context.Context) (int, error)
	// Deletes the profile and all owned rows transitively
	Delete(ctx context.Context, name string) error
	// Sets or clears the single weight goal scalar
	SetWeightGoal(ctx context.Context, name string, goal *float64) error
	// Returns the generated legacy document verbatim
	ExportDocument(ctx context.Context, name string) ([]byte, error)
	// Compares the generated document against the log rows
	VerifyConsistency(ctx context.Context, name string) (*entity.ConsistencyReport, error)
}

type CatalogRepositoryI interface {
	// Returns calories per unit for a food name
	Get(ctx context.Context, profile, food string) (int, error)
	// Returns the whole catalog of a profile
	GetAll(ctx context.Context, profile string) (map[string]int, error)
	// Inserts or overwrites a catalog entry. No effect on logged entries
	Set(ctx context.Context, profile, food string, caloriesPerUnit int) error
	// Removes the catalog entry AND purges every log entry with that name
	Delete(ctx context.Context, profile, food string) error
	// Renames and reprices a food, cascading into every log entry with the
	// old name regardless of manual override
	RenameAndReprice(ctx context.Context, profile, oldName, newName string, caloriesPerUnit int) error
	// Counts log references per food name across all days
	FoodCounts(ctx context.Context, profile string) (map[string]int, error)
}

type LogRepositoryI interface {
	// Persists the day marker once; reports whether this call created it
	InitDay(ctx context.Context, profile, date string) (bool, error)
	// Returns the day with all four slots populated (empty lists if unseen)
	GetDay(ctx context.Context, profile, date string) (*entity.DayLog, error)
	// Appends an entry with a pre-generated id
	AddEntry(ctx context.Context, profile, date string, slot entity.MealSlot, entry *entity.LogEntry) error
	// Removes an entry. Missing entries are a no-op, not an error
	DeleteEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID) error
	// Rewrites name, quantity, calories and the override flag of an entry
	UpdateEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, name string, quantity, calories int, manualOverride bool) error
	// Rewrites calories only, leaving the override flag untouched
	UpdateEntryCalories(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, calories int) error
	// Re-derives calories of non-override entries from current catalog
	// prices. Returns the number of repaired entries
	RecalculateDay(ctx context.Context, profile, date string) (int, error)
	// Per-day totals over all initialized days, most recent first
	DailyTotals(ctx context.Context, profile string) ([]entity.DayTotal, error)
	// Per-slot totals for one day, zero for empty slots
	MealTotals(ctx context.Context, profile, date string) (map[entity.MealSlot]int, error)
	// Initialized dates inside an optional [start, end] range, descending
	ListDays(ctx context.Context, profile, start, end string) ([]string, error)
}

type MetricsRepositoryI interface {
	// Upserts the weight for one date
	LogWeight(ctx context.Context, profile, date string, weight float64) error
	// Weight recorded exactly on date
	GetWeight(ctx context.Context, profile, date string) (float64, error)
	// Latest weight strictly before date
	PreviousWeight(ctx context.Context, profile, date string) (float64, error)
	// All weight entries ordered by date ascending
	WeightSeries(ctx context.Context, profile string) ([]entity.WeightEntry, error)
	// Upserts the calorie goal for one date
	SetDailyGoal(ctx context.Context, profile, date string, calories int) error
	// Most recent explicit goal at or before date
	EffectiveDailyGoal(ctx context.Context, profile, date string) (int, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
