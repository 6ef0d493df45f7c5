package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/limbo/caltrack/pkg/entity"
)

type CreateProfileRequest struct {
	Name string `validate:"required,min=1,max=100"`
}

type SetFoodRequest struct {
	Name            string `validate:"required,min=1"`
	CaloriesPerUnit int    `validate:"required,min=1"`
}

type RenameFoodRequest struct {
	OldName         string `validate:"required,min=1"`
	NewName         string `validate:"required,min=1"`
	CaloriesPerUnit int    `validate:"required,min=1"`
}

type AddEntryRequest struct {
	Date     string          `validate:"required,calendar_date"`
	MealSlot entity.MealSlot `validate:"required,meal_slot"`
	FoodName string          `validate:"required,min=1"`
	Quantity int             `validate:"required,min=1"`
	// Total for the entry, already multiplied by quantity
	Calories int `validate:"required,min=1"`
}

type UpdateEntryRequest struct {
	Date        string          `validate:"required,calendar_date"`
	MealSlot    entity.MealSlot `validate:"required,meal_slot"`
	EntryID     uuid.UUID       `validate:"required"`
	NewName     string          `validate:"required,min=1"`
	NewQuantity int             `validate:"required,min=1"`
	NewCalories int             `validate:"required,min=1"`
}

type ProfileServiceI interface {
	// Creates a profile with a fresh magic token. Fails on duplicate names
	Create(ctx context.Context, req *CreateProfileRequest) (*entity.Profile, error)
	// Returns the existing profile or creates it. The selection-path policy
	GetOrCreate(ctx context.Context, name string) (*entity.Profile, error)
	Get(ctx context.Context, name string) (*entity.Profile, error)
	// Resolves a magic-link token back to its profile
	GetByToken(ctx context.Context, token string) (*entity.Profile, error)
	List(ctx context.Context) ([]entity.Profile, error)
	// Refuses to delete the sole remaining profile
	Delete(ctx context.Context, name string) error
	// Sets or clears the weight goal scalar
	SetWeightGoal(ctx context.Context, name string, goal *float64) error
	// Returns the generated legacy document
	Export(ctx context.Context, name string) ([]byte, error)
	// Compares document and rows, reporting divergence
	CheckConsistency(ctx context.Context, name string) (*entity.ConsistencyReport, error)
}

type CatalogServiceI interface {
	GetFood(ctx context.Context, profile, food string) (int, error)
	ListFoods(ctx context.Context, profile string) (map[string]int, error)
	SetFood(ctx context.Context, profile string, req *SetFoodRequest) error
	// Removes the food and purges all matching log entries
	DeleteFood(ctx context.Context, profile, food string) error
	// Global rename+reprice cascade, ignoring manual overrides
	RenameFood(ctx context.Context, profile string, req *RenameFoodRequest) error
	// Most-logged foods still present in the catalog
	FrequentFoods(ctx context.Context, profile string, limit int) ([]entity.FoodCount, error)
}

type LogServiceI interface {
	// Initializes the day once, reconciles it against the catalog and
	// returns all four slots
	GetDay(ctx context.Context, profile, date string) (*entity.DayLog, error)
	AddEntry(ctx context.Context, profile string, req *AddEntryRequest) (*entity.LogEntry, error)
	// Missing entries are a no-op
	DeleteEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID) error
	UpdateEntry(ctx context.Context, profile string, req *UpdateEntryRequest) error
	// Raw calorie rewrite, override flag untouched. The quick-edit path
	UpdateEntryCalories(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, calories int) error
	// Explicit repair pass; returns the number of repaired entries
	ReconcileDay(ctx context.Context, profile, date string) (int, error)
}

type MetricsServiceI interface {
	LogWeight(ctx context.Context, profile, date string, weight float64) error
	WeightSeries(ctx context.Context, profile string) ([]entity.WeightEntry, error)
	SetDailyGoal(ctx context.Context, profile, date string, calories int) error
}

type StatsServiceI interface {
	TotalCalories(ctx context.Context, profile, date string) (int, error)
	MealTotals(ctx context.Context, profile, date string) (map[entity.MealSlot]int, error)
	EffectiveDailyGoal(ctx context.Context, profile, date string) (int, error)
	DaySummary(ctx context.Context, profile, date string) (*DaySummary, error)
	WeeklyAverages(ctx context.Context, profile string) (*WeeklyAverages, error)
	WeeklyReport(ctx context.Context, profile string) (*WeeklyReport, error)
	History(ctx context.Context, profile, start, end string, page, perPage int) (*HistoryPage, error)
	WeightChange(ctx context.Context, profile string) (float64, error)
	PreviousWeight(ctx context.Context, profile, date string) (float64, error)
}
