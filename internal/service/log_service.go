package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/repository"
	"github.com/limbo/caltrack/pkg/entity"
)

type LogService struct {
	logRepo     repository.LogRepositoryI
	catalogRepo repository.CatalogRepositoryI
}

func NewLogService(logRepo repository.LogRepositoryI, catalogRepo repository.CatalogRepositoryI) *LogService {
	if logRepo == nil || catalogRepo == nil {
		log.Fatal("on log service provided nil repos")
	}
	return &LogService{
		logRepo:     logRepo,
		catalogRepo: catalogRepo,
	}
}

// GetDay initializes the day on first access, repairs catalog drift and
// returns all four slots. Both steps are idempotent, so concurrent day
// views converge on the same state.
func (serv *LogService) GetDay(ctx context.Context, profile, date string) (*entity.DayLog, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	_, err := serv.logRepo.InitDay(ctx, profile, date)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("log repository error: " + err.Error())
	}
	_, err = serv.logRepo.RecalculateDay(ctx, profile, date)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	day, err := serv.logRepo.GetDay(ctx, profile, date)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	return day, nil
}

func (serv *LogService) AddEntry(ctx context.Context, profile string, req *AddEntryRequest) (*entity.LogEntry, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	entry := entity.LogEntry{
		ID:       uuid.New(),
		FoodName: req.FoodName,
		Calories: req.Calories,
		Quantity: req.Quantity,
	}
	err := serv.logRepo.AddEntry(ctx, profile, req.Date, req.MealSlot, &entry)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("log repository error: " + err.Error())
	}
	return &entry, nil
}

func (serv *LogService) DeleteEntry(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if err := ValidateMealSlot(slot); err != nil {
		return err
	}
	err := serv.logRepo.DeleteEntry(ctx, profile, date, slot, id)
	if err != nil {
		return errors.New("log repository error: " + err.Error())
	}
	return nil
}

// UpdateEntry decides the manual-override flag: when the new name resolves
// in the catalog and the caller's calories match per-unit * quantity, the
// flag is cleared and calories are recomputed; otherwise the caller's
// calories are stored verbatim and the flag is set.
func (serv *LogService) UpdateEntry(ctx context.Context, profile string, req *UpdateEntryRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	calories := req.NewCalories
	manualOverride := true
	perUnit, err := serv.catalogRepo.Get(ctx, profile, req.NewName)
	if err == nil && perUnit*req.NewQuantity == req.NewCalories {
		manualOverride = false
		calories = perUnit * req.NewQuantity
	}
	err = serv.logRepo.UpdateEntry(ctx, profile, req.Date, req.MealSlot, req.EntryID, req.NewName, req.NewQuantity, calories, manualOverride)
	if err != nil {
		if errors.Is(err, errorvalues.ErrEntryNotFound) {
			return err
		}
		return errors.New("log repository error: " + err.Error())
	}
	return nil
}

func (serv *LogService) UpdateEntryCalories(ctx context.Context, profile, date string, slot entity.MealSlot, id uuid.UUID, calories int) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if err := ValidateMealSlot(slot); err != nil {
		return err
	}
	if calories < 1 {
		return errorvalues.ErrInvalidCalories
	}
	err := serv.logRepo.UpdateEntryCalories(ctx, profile, date, slot, id, calories)
	if err != nil {
		if errors.Is(err, errorvalues.ErrEntryNotFound) {
			return err
		}
		return errors.New("log repository error: " + err.Error())
	}
	return nil
}

func (serv *LogService) ReconcileDay(ctx context.Context, profile, date string) (int, error) {
	if err := ValidateDate(date); err != nil {
		return 0, err
	}
	repaired, err := serv.logRepo.RecalculateDay(ctx, profile, date)
	if err != nil {
		return 0, errors.New("log repository error: " + err.Error())
	}
	return repaired, nil
}
