package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/service"
	"github.com/limbo/caltrack/pkg/entity"
	"github.com/stretchr/testify/assert"
)

func init() {
	service.InitValidator()
}

type mockState int

const (
	stateSuccess mockState = iota
	stateDBError
	stateProfileExists
	stateProfileNotFound
	stateLastProfile
)

var (
	profileName  = "test_profile"
	profileToken = uuid.New()
	testProfile  = entity.Profile{
		Name:       profileName,
		MagicToken: profileToken,
		CreatedAt:  time.Now(),
	}
)

type profilesRepoMock struct {
	state mockState
	// Name and goal of the last successful SetWeightGoal call
	goalSetFor string
	goalSet    *float64
}

func (prmock *profilesRepoMock) Create(ctx context.Context, name string, token uuid.UUID) error {
	switch prmock.state {
	case stateProfileExists:
		return errorvalues.ErrProfileExists
	case stateDBError:
		return errors.New("db error")
	default:
		return nil
	}
}

func (prmock *profilesRepoMock) GetByName(ctx context.Context, name string) (*entity.Profile, error) {
	switch prmock.state {
	case stateProfileNotFound:
		return nil, errorvalues.ErrProfileNotFound
	case stateDBError:
		return nil, errors.New("db error")
	default:
		return &testProfile, nil
	}
}

func (prmock *profilesRepoMock) GetByToken(ctx context.Context, token uuid.UUID) (*entity.Profile, error) {
	switch prmock.state {
	case stateProfileNotFound:
		return nil, errorvalues.ErrProfileNotFound
	case stateDBError:
		return nil, errors.New("db error")
	default:
		return &testProfile, nil
	}
}

func (prmock *profilesRepoMock) List(ctx context.Context) ([]entity.Profile, error) {
	switch prmock.state {
	case stateDBError:
		return nil, errors.New("db error")
	default:
		return []entity.Profile{testProfile}, nil
	}
}

func (prmock *profilesRepoMock) Count(ctx context.Context) (int, error) {
	switch prmock.state {
	case stateDBError:
		return 0, errors.New("db error")
	case stateLastProfile:
		return 1, nil
	default:
		return 2, nil
	}
}

func (prmock *profilesRepoMock) Delete(ctx context.Context, name string) error {
	switch prmock.state {
	case stateProfileNotFound:
		return errorvalues.ErrProfileNotFound
	case stateDBError:
		return errors.New("db error")
	default:
		return nil
	}
}

func (prmock *profilesRepoMock) SetWeightGoal(ctx context.Context, name string, goal *float64) error {
	switch prmock.state {
	case stateProfileNotFound:
		return errorvalues.ErrProfileNotFound
	case stateDBError:
		return errors.New("db error")
	default:
		prmock.goalSetFor = name
		prmock.goalSet = goal
		return nil
	}
}

func (prmock *profilesRepoMock) ExportDocument(ctx context.Context, name string) ([]byte, error) {
	switch prmock.state {
	case stateProfileNotFound:
		return nil, errorvalues.ErrProfileNotFound
	case stateDBError:
		return nil, errors.New("db error")
	default:
		return []byte(`{"uuid":"` + profileToken.String() + `"}`), nil
	}
}

func (prmock *profilesRepoMock) VerifyConsistency(ctx context.Context, name string) (*entity.ConsistencyReport, error) {
	switch prmock.state {
	case stateProfileNotFound:
		return nil, errorvalues.ErrProfileNotFound
	case stateDBError:
		return nil, errors.New("db error")
	default:
		return &entity.ConsistencyReport{Profile: name, Consistent: true}, nil
	}
}

func TestCreateProfile(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		p, err := s.Create(ctx, &service.CreateProfileRequest{Name: profileName})
		assert.NoError(t, err)
		assert.Equal(t, testProfile, *p)
	})
	t.Run("empty name", func(t *testing.T) {
		_, err := s.Create(ctx, &service.CreateProfileRequest{Name: ""})
		assert.Error(t, err)
	})
	t.Run("duplicate name", func(t *testing.T) {
		mock.state = stateProfileExists
		_, err := s.Create(ctx, &service.CreateProfileRequest{Name: profileName})
		assert.ErrorIs(t, err, errorvalues.ErrProfileExists)
	})
	t.Run("db error", func(t *testing.T) {
		mock.state = stateDBError
		_, err := s.Create(ctx, &service.CreateProfileRequest{Name: profileName})
		assert.Error(t, err)
	})
}

func TestGetOrCreateProfile(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("existing profile reused silently", func(t *testing.T) {
		p, err := s.GetOrCreate(ctx, profileName)
		assert.NoError(t, err)
		assert.Equal(t, testProfile, *p)
	})
	t.Run("db error", func(t *testing.T) {
		mock.state = stateDBError
		_, err := s.GetOrCreate(ctx, profileName)
		assert.Error(t, err)
	})
}

func TestGetProfileByToken(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		p, err := s.GetByToken(ctx, profileToken.String())
		assert.NoError(t, err)
		assert.Equal(t, testProfile, *p)
	})
	t.Run("malformed token reads as not found", func(t *testing.T) {
		_, err := s.GetByToken(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, errorvalues.ErrProfileNotFound)
	})
	t.Run("unknown token", func(t *testing.T) {
		mock.state = stateProfileNotFound
		_, err := s.GetByToken(ctx, profileToken.String())
		assert.ErrorIs(t, err, errorvalues.ErrProfileNotFound)
	})
}

func TestDeleteProfile(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		err := s.Delete(ctx, profileName)
		assert.NoError(t, err)
	})
	t.Run("last profile refused", func(t *testing.T) {
		mock.state = stateLastProfile
		err := s.Delete(ctx, profileName)
		assert.ErrorIs(t, err, errorvalues.ErrLastProfile)
	})
	t.Run("not found", func(t *testing.T) {
		mock.state = stateProfileNotFound
		err := s.Delete(ctx, profileName)
		assert.ErrorIs(t, err, errorvalues.ErrProfileNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		mock.state = stateDBError
		err := s.Delete(ctx, profileName)
		assert.Error(t, err)
	})
}

func TestSetWeightGoal(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		goal := 70.0
		err := s.SetWeightGoal(ctx, profileName, &goal)
		assert.NoError(t, err)
		assert.Equal(t, profileName, mock.goalSetFor)
		assert.Equal(t, &goal, mock.goalSet)
	})
	t.Run("clearing the goal is allowed", func(t *testing.T) {
		err := s.SetWeightGoal(ctx, profileName, nil)
		assert.NoError(t, err)
		assert.Nil(t, mock.goalSet)
	})
	t.Run("non-positive goal", func(t *testing.T) {
		goal := -5.0
		err := s.SetWeightGoal(ctx, profileName, &goal)
		assert.ErrorIs(t, err, errorvalues.ErrInvalidWeight)
	})
}

func TestExportProfile(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		raw, err := s.Export(ctx, profileName)
		assert.NoError(t, err)
		assert.Contains(t, string(raw), profileToken.String())
	})
	t.Run("not found", func(t *testing.T) {
		mock.state = stateProfileNotFound
		_, err := s.Export(ctx, profileName)
		assert.ErrorIs(t, err, errorvalues.ErrProfileNotFound)
	})
}

func TestCheckConsistency(t *testing.T) {
	mock := &profilesRepoMock{state: stateSuccess}
	s := service.NewProfileService(mock)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		report, err := s.CheckConsistency(ctx, profileName)
		assert.NoError(t, err)
		assert.True(t, report.Consistent)
	})
	t.Run("db error", func(t *testing.T) {
		mock.state = stateDBError
		_, err := s.CheckConsistency(ctx, profileName)
		assert.Error(t, err)
	})
}
