package service_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/service"
	"github.com/limbo/caltrack/pkg/entity"
	"github.com/stretchr/testify/assert"
)

// In-memory fakes: the reconciliation and override semantics live in the
// interplay of log and catalog state, so canned returns are not enough.

type catalogRepoFake struct {
	prices map[string]int
	counts map[string]int
}

func newCatalogRepoFake() *catalogRepoFake {
	return &catalogRepoFake{
		prices: make(map[string]int),
		counts: make(map[string]int),
	}
}

func (crf *catalogRepoFake) Get(ctx context.Context, profile, food string) (int, error) {
	calories, ok := crf.prices[food]
	if !ok {
		return 0, errorvalues.ErrFoodNotFound
	}
	return calories, nil
}

func (crf *catalogRepoFake) GetAll(ctx context.Context, profile string) (map[string]int, error) {
	return crf.prices, nil
}

func (crf *catalogRepoFake) Set(ctx context.Context, profile, food string, caloriesPerUnit int) error {
	crf.prices[food] = caloriesPerUnit
	return nil
}

// Delete mirrors the repository contract: a missing catalog entry is not an
// error and the log purge still runs, here modeled on the reference counts.
func (crf *catalogRepoFake) Delete(ctx context.Context, profile, food string) error {
	delete(crf.prices, food)
	delete(crf.counts, food)
	return nil
}

func (crf *catalogRepoFake) RenameAndReprice(ctx context.Context, profile, oldName, newName string, caloriesPerUnit int) error {
	delete(crf.prices, oldName)
	crf.prices[newName] = caloriesPerUnit
	return nil
}

func (crf *catalogRepoFake) FoodCounts(ctx context.Context, profile string) (map[string]int, error) {
	return crf.counts, nil
}

type entryRecord struct {
	date  string
	slot  entity.MealSlot
	entry entity.LogEntry
}

type logRepoFake struct {
	catalog *catalogRepoFake
	days    map[string]bool
	entries []*entryRecord
	// Number of InitDay calls that actually persisted a new day
	initialized int
}

func newLogRepoFake(catalog *catalogRepoFake) *logRepoFake {
	return &logRepoFake{
		catalog: catalog,
		days:    make(map[string]bool),
	}
}

func (lrf *logRepoFake) InitDay(ctx context.Context, profile, date string) (bool, error) {
	if lrf.days[date] {
		return false, nil
	}
	lrf.days[date] = true
	lrf.initialized++
	return true, nil
}

func (lrf *logRepoFake) GetDay(ctx context.Context, profile, date string) (*entity.DayLog, error) {
	day := entity.NewDayLog(date)
	for _, rec := range lrf.entries {
		if rec.date == date {
			day.Meals[rec.slot] = append(day.Meals[rec.slot], rec.entry)
		}
	}
	return day, nil
}

func (lrf *logRepoFake) AddEntry(ctx context.Context, profile, date string, slot entity.MealSlot, entry *entity.LogEntry) error {
	lrf.days[date] = true
	lrf.entries = append(lrf.entries, &entryRecord{date: date, slot: slot, entry: *entry})
	return nil
}

func (lrf *logRepoFake) DeleteEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID) error {
	for i, rec := range lrf.entries {
		if rec.date == date && rec.slot == slot && rec.entry.ID == id {
			lrf.entries = append(lrf.entries[:i], lrf.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (lrf *logRepoFake) UpdateEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, name string, quantity, calories int, manualOverride bool) error {
	for _, rec := range lrf.entries {
		if rec.date == date && rec.slot == slot && rec.entry.ID == id {
			rec.entry.FoodName = name
			rec.entry.Quantity = quantity
			rec.entry.Calories = calories
			rec.entry.ManualOverride = manualOverride
			return nil
		}
	}
	return errorvalues.ErrEntryNotFound
}

func (lrf *logRepoFake) UpdateEntryCalories(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, calories int) error {
	for _, rec := range lrf.entries {
		if rec.date == date && rec.slot == slot && rec.entry.ID == id {
			rec.entry.Calories = calories
			return nil
		}
	}
	return errorvalues.ErrEntryNotFound
}

func (lrf *logRepoFake) RecalculateDay(ctx context.Context, profile, date string) (int, error) {
	repaired := 0
	for _, rec := range lrf.entries {
		if rec.date != date || rec.entry.ManualOverride {
			continue
		}
		perUnit, ok := lrf.catalog.prices[rec.entry.FoodName]
		if !ok {
			continue
		}
		if rec.entry.Calories != perUnit*rec.entry.Quantity {
			rec.entry.Calories = perUnit * rec.entry.Quantity
			repaired++
		}
	}
	return repaired, nil
}

func (lrf *logRepoFake) DailyTotals(ctx context.Context, profile string) ([]entity.DayTotal, error) {
	byDate := make(map[string]int)
	for date := range lrf.days {
		byDate[date] = 0
	}
	for _, rec := range lrf.entries {
		byDate[rec.date] += rec.entry.Calories
	}
	totals := make([]entity.DayTotal, 0, len(byDate))
	for date, total := range byDate {
		totals = append(totals, entity.DayTotal{Date: date, TotalCalories: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date > totals[j].Date })
	return totals, nil
}

func (lrf *logRepoFake) MealTotals(ctx context.Context, profile, date string) (map[entity.MealSlot]int, error) {
	totals := make(map[entity.MealSlot]int, len(entity.MealSlots))
	for _, slot := range entity.MealSlots {
		totals[slot] = 0
	}
	for _, rec := range lrf.entries {
		if rec.date == date {
			totals[rec.slot] += rec.entry.Calories
		}
	}
	return totals, nil
}

func (lrf *logRepoFake) ListDays(ctx context.Context, profile, start, end string) ([]string, error) {
	days := make([]string, 0, len(lrf.days))
	for date := range lrf.days {
		if start != "" && date < start {
			continue
		}
		if end != "" && date > end {
			continue
		}
		days = append(days, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

func TestGetDay(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	t.Run("invalid date", func(t *testing.T) {
		_, err := s.GetDay(ctx, profileName, "01-08-2026")
		assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
	})
	t.Run("first view initializes all four slots", func(t *testing.T) {
		day, err := s.GetDay(ctx, profileName, "2026-08-01")
		assert.NoError(t, err)
		assert.Equal(t, 4, len(day.Meals))
		for _, slot := range entity.MealSlots {
			assert.Equal(t, 0, len(day.Meals[slot]))
		}
	})
	t.Run("repeated views persist only one initialization", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := s.GetDay(ctx, profileName, "2026-08-01")
			assert.NoError(t, err)
		}
		assert.Equal(t, 1, logs.initialized)
	})
	t.Run("view repairs drifted entries", func(t *testing.T) {
		catalog.prices["Apple"] = 95
		entry, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
			Date:     "2026-08-01",
			MealSlot: entity.Breakfast,
			FoodName: "Apple",
			Quantity: 2,
			Calories: 190,
		})
		assert.NoError(t, err)
		catalog.prices["Apple"] = 120
		day, err := s.GetDay(ctx, profileName, "2026-08-01")
		assert.NoError(t, err)
		assert.Equal(t, 240, day.Meals[entity.Breakfast][0].Calories)
		assert.Equal(t, entry.ID, day.Meals[entity.Breakfast][0].ID)
	})
}

func TestAddEntry(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	t.Run("fresh entry carries no override", func(t *testing.T) {
		entry, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
			Date:     "2026-08-01",
			MealSlot: entity.Lunch,
			FoodName: "Sandwich",
			Quantity: 1,
			Calories: 350,
		})
		assert.NoError(t, err)
		assert.False(t, entry.ManualOverride)
		assert.Equal(t, 350, entry.Calories)
		assert.NotEqual(t, uuid.UUID{}, entry.ID)
	})
	t.Run("invalid meal slot", func(t *testing.T) {
		_, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
			Date:     "2026-08-01",
			MealSlot: "brunch",
			FoodName: "Sandwich",
			Quantity: 1,
			Calories: 350,
		})
		assert.Error(t, err)
	})
	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
			Date:     "2026-08-01",
			MealSlot: entity.Lunch,
			FoodName: "Sandwich",
			Quantity: 0,
			Calories: 350,
		})
		assert.Error(t, err)
	})
}

func TestUpdateEntry(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	catalog.prices["Apple"] = 95
	entry, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
		Date:     "2026-08-01",
		MealSlot: entity.Breakfast,
		FoodName: "Apple",
		Quantity: 2,
		Calories: 190,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Run("matching calories clear the override", func(t *testing.T) {
		err := s.UpdateEntry(ctx, profileName, &service.UpdateEntryRequest{
			Date:        "2026-08-01",
			MealSlot:    entity.Breakfast,
			EntryID:     entry.ID,
			NewName:     "Apple",
			NewQuantity: 3,
			NewCalories: 285,
		})
		assert.NoError(t, err)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.False(t, day.Meals[entity.Breakfast][0].ManualOverride)
		assert.Equal(t, 285, day.Meals[entity.Breakfast][0].Calories)
	})
	t.Run("diverging calories set the override", func(t *testing.T) {
		err := s.UpdateEntry(ctx, profileName, &service.UpdateEntryRequest{
			Date:        "2026-08-01",
			MealSlot:    entity.Breakfast,
			EntryID:     entry.ID,
			NewName:     "Apple",
			NewQuantity: 2,
			NewCalories: 500,
		})
		assert.NoError(t, err)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.True(t, day.Meals[entity.Breakfast][0].ManualOverride)
		assert.Equal(t, 500, day.Meals[entity.Breakfast][0].Calories)
	})
	t.Run("override survives reconciliation", func(t *testing.T) {
		repaired, err := s.ReconcileDay(ctx, profileName, "2026-08-01")
		assert.NoError(t, err)
		assert.Equal(t, 0, repaired)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.Equal(t, 500, day.Meals[entity.Breakfast][0].Calories)
	})
	t.Run("uncatalogued food always overrides", func(t *testing.T) {
		err := s.UpdateEntry(ctx, profileName, &service.UpdateEntryRequest{
			Date:        "2026-08-01",
			MealSlot:    entity.Breakfast,
			EntryID:     entry.ID,
			NewName:     "Mystery Dish",
			NewQuantity: 1,
			NewCalories: 400,
		})
		assert.NoError(t, err)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.True(t, day.Meals[entity.Breakfast][0].ManualOverride)
	})
	t.Run("entry not found", func(t *testing.T) {
		err := s.UpdateEntry(ctx, profileName, &service.UpdateEntryRequest{
			Date:        "2026-08-01",
			MealSlot:    entity.Breakfast,
			EntryID:     uuid.New(),
			NewName:     "Apple",
			NewQuantity: 1,
			NewCalories: 95,
		})
		assert.ErrorIs(t, err, errorvalues.ErrEntryNotFound)
	})
}

func TestUpdateEntryCalories(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	entry, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
		Date:     "2026-08-01",
		MealSlot: entity.Snack,
		FoodName: "Cookie",
		Quantity: 1,
		Calories: 200,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Run("raw rewrite leaves the flag alone", func(t *testing.T) {
		err := s.UpdateEntryCalories(ctx, profileName, "2026-08-01", entity.Snack, entry.ID, 250)
		assert.NoError(t, err)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.Equal(t, 250, day.Meals[entity.Snack][0].Calories)
		assert.False(t, day.Meals[entity.Snack][0].ManualOverride)
	})
	t.Run("non-positive calories", func(t *testing.T) {
		err := s.UpdateEntryCalories(ctx, profileName, "2026-08-01", entity.Snack, entry.ID, 0)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidCalories)
	})
	t.Run("invalid slot", func(t *testing.T) {
		err := s.UpdateEntryCalories(ctx, profileName, "2026-08-01", "brunch", entry.ID, 250)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidMealSlot)
	})
}

func TestDeleteEntry(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	entry, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
		Date:     "2026-08-01",
		MealSlot: entity.Dinner,
		FoodName: "Pasta",
		Quantity: 1,
		Calories: 600,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Run("success", func(t *testing.T) {
		err := s.DeleteEntry(ctx, profileName, "2026-08-01", entity.Dinner, entry.ID)
		assert.NoError(t, err)
		day, _ := logs.GetDay(ctx, profileName, "2026-08-01")
		assert.Equal(t, 0, len(day.Meals[entity.Dinner]))
	})
	t.Run("missing entry is a no-op", func(t *testing.T) {
		err := s.DeleteEntry(ctx, profileName, "2026-08-01", entity.Dinner, uuid.New())
		assert.NoError(t, err)
	})
}

func TestReconcileDay(t *testing.T) {
	catalog := newCatalogRepoFake()
	logs := newLogRepoFake(catalog)
	s := service.NewLogService(logs, catalog)
	ctx := context.Background()
	catalog.prices["Apple"] = 95
	if _, err := s.AddEntry(ctx, profileName, &service.AddEntryRequest{
		Date:     "2026-08-01",
		MealSlot: entity.Breakfast,
		FoodName: "Apple",
		Quantity: 2,
		Calories: 190,
	}); err != nil {
		t.Fatal(err)
	}
	t.Run("repairs after a reprice and then converges", func(t *testing.T) {
		catalog.prices["Apple"] = 120
		repaired, err := s.ReconcileDay(ctx, profileName, "2026-08-01")
		assert.NoError(t, err)
		assert.Equal(t, 1, repaired)
		repaired, err = s.ReconcileDay(ctx, profileName, "2026-08-01")
		assert.NoError(t, err)
		assert.Equal(t, 0, repaired)
	})
	t.Run("invalid date", func(t *testing.T) {
		_, err := s.ReconcileDay(ctx, profileName, "tomorrow")
		assert.ErrorIs(t, err, errorvalues.ErrInvalidDate)
	})
}
