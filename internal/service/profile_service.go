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

type ProfileService struct {
	repo repository.ProfilesRepositoryI
}

func NewProfileService(profilesRepo repository.ProfilesRepositoryI) *ProfileService {
	if profilesRepo == nil {
		log.Fatal("provided nil profilesRepo")
	}
	return &ProfileService{
		repo: profilesRepo,
	}
}

func (ps *ProfileService) Create(ctx context.Context, req *CreateProfileRequest) (*entity.Profile, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	token := uuid.New()
	err := ps.repo.Create(ctx, req.Name, token)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileExists) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	profile, err := ps.repo.GetByName(ctx, req.Name)
	if err != nil {
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return profile, nil
}

// GetOrCreate reuses an existing profile silently. This is the
// profile-selection path; explicit creation goes through Create and fails
// on duplicates.
func (ps *ProfileService) GetOrCreate(ctx context.Context, name string) (*entity.Profile, error) {
	profile, err := ps.repo.GetByName(ctx, name)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, errorvalues.ErrProfileNotFound) {
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return ps.Create(ctx, &CreateProfileRequest{Name: name})
}

func (ps *ProfileService) Get(ctx context.Context, name string) (*entity.Profile, error) {
	profile, err := ps.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return profile, nil
}

func (ps *ProfileService) GetByToken(ctx context.Context, token string) (*entity.Profile, error) {
	parsed, err := uuid.Parse(token)
	if err != nil {
		return nil, errorvalues.ErrProfileNotFound
	}
	profile, err := ps.repo.GetByToken(ctx, parsed)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return profile, nil
}

func (ps *ProfileService) List(ctx context.Context) ([]entity.Profile, error) {
	profiles, err := ps.repo.List(ctx)
	if err != nil {
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return profiles, nil
}

func (ps *ProfileService) Delete(ctx context.Context, name string) error {
	_, err := ps.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("profiles repository error: " + err.Error())
	}
	// The last-profile guard runs before any destructive side effect
	count, err := ps.repo.Count(ctx)
	if err != nil {
		return errors.New("profiles repository error: " + err.Error())
	}
	if count <= 1 {
		return errorvalues.ErrLastProfile
	}
	err = ps.repo.Delete(ctx, name)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("profiles repository error: " + err.Error())
	}
	return nil
}

func (ps *ProfileService) SetWeightGoal(ctx context.Context, name string, goal *float64) error {
	if goal != nil && *goal <= 0 {
		return errorvalues.ErrInvalidWeight
	}
	err := ps.repo.SetWeightGoal(ctx, name, goal)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return err
		}
		return errors.New("profiles repository error: " + err.Error())
	}
	return nil
}

func (ps *ProfileService) Export(ctx context.Context, name string) ([]byte, error) {
	raw, err := ps.repo.ExportDocument(ctx, name)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return raw, nil
}

func (ps *ProfileService) CheckConsistency(ctx context.Context, name string) (*entity.ConsistencyReport, error) {
	report, err := ps.repo.VerifyConsistency(ctx, name)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	return report, nil
}
