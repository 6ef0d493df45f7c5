package service

import (
	"context"
	"errors"
	"log"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/repository"
	"github.com/limbo/caltrack/pkg/entity"
)

type MetricsService struct {
	repo repository.MetricsRepositoryI
}

func NewMetricsService(metricsRepo repository.MetricsRepositoryI) *MetricsService {
	if metricsRepo == nil {
		log.Fatal("provided nil metricsRepo")
	}
	return &MetricsService{
		repo: metricsRepo,
	}
}

// LogWeight upserts the weight for one date; a later write for the same
// date replaces the earlier one.
func (ms *MetricsService) LogWeight(ctx context.Context, profile, date string, weight float64) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if weight <= 0 {
		return errorvalues.ErrInvalidWeight
	}
	err := ms.repo.LogWeight(ctx, profile, date, weight)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("metrics repository error: " + err.Error())
	}
	return nil
}

func (ms *MetricsService) WeightSeries(ctx context.Context, profile string) ([]entity.WeightEntry, error) {
	series, err := ms.repo.WeightSeries(ctx, profile)
	if err != nil {
		return nil, errors.New("metrics repository error: " + err.Error())
	}
	return series, nil
}

func (ms *MetricsService) SetDailyGoal(ctx context.Context, profile, date string, calories int) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if calories < 1 {
		return errorvalues.ErrInvalidCalories
	}
	err := ms.repo.SetDailyGoal(ctx, profile, date, calories)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("metrics repository error: " + err.Error())
	}
	return nil
}
