package service

import (
	"context"
	"errors"
	"log"
	"sort"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/repository"
	"github.com/limbo/caltrack/pkg/entity"
)

type CatalogService struct {
	repo repository.CatalogRepositoryI
}

func NewCatalogService(catalogRepo repository.CatalogRepositoryI) *CatalogService {
	if catalogRepo == nil {
		log.Fatal("provided nil catalogRepo")
	}
	return &CatalogService{
		repo: catalogRepo,
	}
}

func (cs *CatalogService) GetFood(ctx context.Context, profile, food string) (int, error) {
	calories, err := cs.repo.Get(ctx, profile, food)
	if err != nil {
		if errors.Is(err, errorvalues.ErrFoodNotFound) {
			return 0, err
		}
		return 0, errors.New("catalog repository error: " + err.Error())
	}
	return calories, nil
}

func (cs *CatalogService) ListFoods(ctx context.Context, profile string) (map[string]int, error) {
	catalog, err := cs.repo.GetAll(ctx, profile)
	if err != nil {
		return nil, errors.New("catalog repository error: " + err.Error())
	}
	return catalog, nil
}

func (cs *CatalogService) SetFood(ctx context.Context, profile string, req *SetFoodRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	err := cs.repo.Set(ctx, profile, req.Name, req.CaloriesPerUnit)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("catalog repository error: " + err.Error())
	}
	return nil
}

func (cs *CatalogService) DeleteFood(ctx context.Context, profile, food string) error {
	if food == "" {
		return errorvalues.ErrEmptyFoodName
	}
	err := cs.repo.Delete(ctx, profile, food)
	if err != nil {
		return errors.New("catalog repository error: " + err.Error())
	}
	return nil
}

func (cs *CatalogService) RenameFood(ctx context.Context, profile string, req *RenameFoodRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	err := cs.repo.RenameAndReprice(ctx, profile, req.OldName, req.NewName, req.CaloriesPerUnit)
	if err != nil {
		return errors.New("catalog repository error: " + err.Error())
	}
	return nil
}

// FrequentFoods returns the most-logged foods that still exist in the
// catalog, for the quick-add list.
func (cs *CatalogService) FrequentFoods(ctx context.Context, profile string, limit int) ([]entity.FoodCount, error) {
	counts, err := cs.repo.FoodCounts(ctx, profile)
	if err != nil {
		return nil, errors.New("catalog repository error: " + err.Error())
	}
	catalog, err := cs.repo.GetAll(ctx, profile)
	if err != nil {
		return nil, errors.New("catalog repository error: " + err.Error())
	}
	frequent := make([]entity.FoodCount, 0, len(counts))
	for name, count := range counts {
		calories, ok := catalog[name]
		if !ok {
			continue
		}
		frequent = append(frequent, entity.FoodCount{Name: name, Calories: calories, Count: count})
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].Count != frequent[j].Count {
			return frequent[i].Count > frequent[j].Count
		}
		return frequent[i].Name < frequent[j].Name
	})
	if limit > 0 && len(frequent) > limit {
		frequent = frequent[:limit]
	}
	return frequent, nil
}
