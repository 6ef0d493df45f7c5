package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/service"
	"github.com/limbo/caltrack/pkg/entity"
	"github.com/limbo/caltrack/pkg/httputil"
)

type CreateProfileRequest struct {
	Name string `json:"name"`
}

type SetFoodRequest struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

type RenameFoodRequest struct {
	NewName  string `json:"new_name"`
	Calories int    `json:"calories"`
}

type AddEntryRequest struct {
	MealType string `json:"meal_type"`
	FoodName string `json:"food_name"`
	Quantity int    `json:"quantity"`
	Calories int    `json:"calories"`
}

type UpdateEntryRequest struct {
	MealType    string `json:"meal_type"`
	NewName     string `json:"new_name"`
	NewQuantity int    `json:"new_quantity"`
	NewCalories int    `json:"new_calories"`
}

type UpdateCaloriesRequest struct {
	MealType    string `json:"meal_type"`
	NewCalories int    `json:"new_calories"`
}

type LogWeightRequest struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

type SetGoalRequest struct {
	Calories int `json:"calories"`
}

type SetWeightGoalRequest struct {
	WeightGoal *float64 `json:"weight_goal"`
}

// isValidationErr reports whether the error is caller's fault rather than
// an internal failure.
func isValidationErr(err error) bool {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return true
	}
	switch {
	case errors.Is(err, errorvalues.ErrInvalidDate),
		errors.Is(err, errorvalues.ErrInvalidMealSlot),
		errors.Is(err, errorvalues.ErrInvalidQuantity),
		errors.Is(err, errorvalues.ErrInvalidCalories),
		errors.Is(err, errorvalues.ErrInvalidWeight),
		errors.Is(err, errorvalues.ErrEmptyFoodName):
		return true
	}
	return false
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profiles, err := s.profileService.List(ctx)
	if err != nil {
		logger.Error("listing profiles error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing profiles", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req CreateProfileRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("creating profile error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.profileService.Create(ctx, &service.CreateProfileRequest{Name: req.Name})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrProfileExists):
			logger.Error("creating profile error: duplicate name")
			httputil.WriteErrorResponse(w, http.StatusConflict, "profile with such name already exists", nil)
			return
		case isValidationErr(err):
			logger.Error("creating profile error: invalid name")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid profile name", err)
			return
		default:
			logger.Error("creating profile error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during profile creation", nil)
			return
		}
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, profile)
	logger.Info("profile created", slog.String("profile", profile.Name))
}

func (s *Server) SelectProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req CreateProfileRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("selecting profile error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.profileService.GetOrCreate(ctx, req.Name)
	if err != nil {
		if isValidationErr(err) {
			logger.Error("selecting profile error: invalid name")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid profile name", err)
			return
		}
		logger.Error("selecting profile error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during profile selection", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
	logger.Info("profile selected", slog.String("profile", profile.Name))
}

func (s *Server) MagicLogin(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	token := r.URL.Query().Get("token")
	if token == "" {
		logger.Error("magic login error: missing token")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "token query param is required", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.profileService.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			logger.Error("magic login error: unknown token")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "invalid or expired magic link", nil)
			return
		}
		logger.Error("magic login error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during magic login", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
	logger.Info("magic login", slog.String("profile", profile.Name))
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	profile, err := s.profileService.Get(ctx, name)
	if err != nil {
		logger.Error("getting profile error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting profile", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
}

func (s *Server) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.profileService.Delete(ctx, name)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrLastProfile):
			logger.Error("deleting profile error: last profile")
			httputil.WriteErrorResponse(w, http.StatusConflict, "cannot delete the last remaining profile", nil)
			return
		case errors.Is(err, errorvalues.ErrProfileNotFound):
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile not found", nil)
			return
		default:
			logger.Error("deleting profile error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during profile deletion", nil)
			return
		}
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"deleted": name})
	logger.Info("profile deleted", slog.String("profile", name))
}

func (s *Server) ExportProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	raw, err := s.profileService.Export(ctx, name)
	if err != nil {
		logger.Error("exporting profile error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during profile export", nil)
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, raw)
}

func (s *Server) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	report, err := s.profileService.CheckConsistency(ctx, name)
	if err != nil {
		logger.Error("consistency check error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during consistency check", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, report)
}

func (s *Server) SetWeightGoal(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	var req SetWeightGoalRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("setting weight goal error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.profileService.SetWeightGoal(ctx, name, req.WeightGoal)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "weight goal must be a positive number", nil)
			return
		}
		logger.Error("setting weight goal error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while setting weight goal", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"weight_goal": req.WeightGoal})
}

func (s *Server) ListFoods(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	catalog, err := s.catalogService.ListFoods(ctx, name)
	if err != nil {
		logger.Error("listing foods error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing foods", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"food_database": catalog})
}

func (s *Server) SetFood(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	var req SetFoodRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("setting food error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.catalogService.SetFood(ctx, name, &service.SetFoodRequest{
		Name:            req.Name,
		CaloriesPerUnit: req.Calories,
	})
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "food name and positive calories are required", err)
			return
		}
		logger.Error("setting food error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while setting food", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{"name": req.Name, "calories": req.Calories})
	logger.Info("food set", slog.String("food", req.Name))
}

func (s *Server) FrequentFoods(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	frequent, err := s.catalogService.FrequentFoods(ctx, name, limit)
	if err != nil {
		logger.Error("getting frequent foods error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting frequent foods", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"frequent_foods": frequent})
}

func (s *Server) GetFood(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	food := chi.URLParam(r, "food")
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	calories, err := s.catalogService.GetFood(ctx, name, food)
	if err != nil {
		if errors.Is(err, errorvalues.ErrFoodNotFound) {
			httputil.WriteErrorResponse(w, http.StatusNotFound, "food is not in the database", nil)
			return
		}
		logger.Error("getting food error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting food", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"name": food, "calories": calories})
}

func (s *Server) RenameFood(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	food := chi.URLParam(r, "food")
	var req RenameFoodRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("renaming food error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.catalogService.RenameFood(ctx, name, &service.RenameFoodRequest{
		OldName:         food,
		NewName:         req.NewName,
		CaloriesPerUnit: req.Calories,
	})
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "new name and positive calories are required", err)
			return
		}
		logger.Error("renaming food error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while renaming food", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"name": req.NewName, "calories": req.Calories})
	logger.Info("food renamed", slog.String("old", food), slog.String("new", req.NewName))
}

func (s *Server) DeleteFood(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	food := chi.URLParam(r, "food")
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.catalogService.DeleteFood(ctx, name, food)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "food name is required", nil)
			return
		}
		logger.Error("deleting food error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting food", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"deleted": food})
	logger.Info("food deleted with its log entries", slog.String("food", food))
}

func (s *Server) GetDay(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	day, err := s.logService.GetDay(ctx, name, date)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form", nil)
			return
		}
		logger.Error("getting day error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting day", nil)
		return
	}
	totals, err := s.statsService.MealTotals(ctx, name, date)
	if err != nil {
		logger.Error("getting meal totals error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting meal totals", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"date":          date,
		"meals":         day.Meals,
		"meal_calories": totals,
	})
}

func (s *Server) DaySummary(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	// The day view initializes and reconciles before aggregating
	_, err = s.logService.GetDay(ctx, name, date)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form", nil)
			return
		}
		logger.Error("preparing day error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while preparing day", nil)
		return
	}
	summary, err := s.statsService.DaySummary(ctx, name, date)
	if err != nil {
		logger.Error("getting day summary error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting day summary", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, summary)
}

func (s *Server) AddEntry(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	var req AddEntryRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("adding entry error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	entry, err := s.logService.AddEntry(ctx, name, &service.AddEntryRequest{
		Date:     date,
		MealSlot: entity.MealSlot(req.MealType),
		FoodName: req.FoodName,
		Quantity: req.Quantity,
		Calories: req.Calories,
	})
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "meal type, food name, positive quantity and calories are required", err)
			return
		}
		logger.Error("adding entry error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while adding entry", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, entry)
	logger.Info("entry added", slog.String("entry_id", entry.ID.String()), slog.String("date", date))
}

func (s *Server) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	entryID, err := uuid.Parse(chi.URLParam(r, "entry"))
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid entry id", nil)
		return
	}
	var req UpdateEntryRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("updating entry error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.logService.UpdateEntry(ctx, name, &service.UpdateEntryRequest{
		Date:        date,
		MealSlot:    entity.MealSlot(req.MealType),
		EntryID:     entryID,
		NewName:     req.NewName,
		NewQuantity: req.NewQuantity,
		NewCalories: req.NewCalories,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrEntryNotFound):
			httputil.WriteErrorResponse(w, http.StatusNotFound, "log entry not found", nil)
			return
		case isValidationErr(err):
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "meal type, name, positive quantity and calories are required", err)
			return
		default:
			logger.Error("updating entry error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating entry", nil)
			return
		}
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"updated": entryID.String()})
	logger.Info("entry updated", slog.String("entry_id", entryID.String()))
}

func (s *Server) UpdateEntryCalories(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	entryID, err := uuid.Parse(chi.URLParam(r, "entry"))
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid entry id", nil)
		return
	}
	var req UpdateCaloriesRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("updating entry calories error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.logService.UpdateEntryCalories(ctx, name, date, entity.MealSlot(req.MealType), entryID, req.NewCalories)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrEntryNotFound):
			httputil.WriteErrorResponse(w, http.StatusNotFound, "log entry not found", nil)
			return
		case isValidationErr(err):
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "meal type and positive calories are required", nil)
			return
		default:
			logger.Error("updating entry calories error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating entry calories", nil)
			return
		}
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"updated": entryID.String(), "calories": req.NewCalories})
}

func (s *Server) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	entryID, err := uuid.Parse(chi.URLParam(r, "entry"))
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid entry id", nil)
		return
	}
	slot := entity.MealSlot(r.URL.Query().Get("meal_type"))
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.logService.DeleteEntry(ctx, name, date, slot, entryID)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "valid date and meal_type are required", nil)
			return
		}
		logger.Error("deleting entry error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting entry", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]string{"deleted": entryID.String()})
}

func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	query := r.URL.Query()
	page := 1
	if v := query.Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "page must be a positive integer", nil)
			return
		}
		page = parsed
	}
	perPage := 5
	if v := query.Get("per_page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "per_page must be a positive integer", nil)
			return
		}
		perPage = parsed
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	history, err := s.statsService.History(ctx, name, query.Get("start_date"), query.Get("end_date"), page, perPage)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "dates must be in YYYY-MM-DD form", nil)
			return
		}
		logger.Error("getting history error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting history", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, history)
}

func (s *Server) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	report, err := s.statsService.WeeklyReport(ctx, name)
	if err != nil {
		logger.Error("getting weekly report error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting weekly report", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, report)
}

func (s *Server) LogWeight(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	var req LogWeightRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("logging weight error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.metricsService.LogWeight(ctx, name, req.Date, req.Weight)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "valid date and positive weight are required", nil)
			return
		}
		logger.Error("logging weight error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while logging weight", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"date": req.Date, "weight": req.Weight})
	logger.Info("weight logged", slog.String("date", req.Date))
}

func (s *Server) WeightHistory(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	series, err := s.metricsService.WeightSeries(ctx, name)
	if err != nil {
		logger.Error("getting weight history error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting weight history", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"weights": series})
}

func (s *Server) SetDailyGoal(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	var req SetGoalRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("setting daily goal error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	err = s.metricsService.SetDailyGoal(ctx, name, date, req.Calories)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "valid date and positive calories are required", nil)
			return
		}
		logger.Error("setting daily goal error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while setting daily goal", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"date": date, "calories": req.Calories})
	logger.Info("daily goal set", slog.String("date", date))
}

func (s *Server) EffectiveDailyGoal(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	name, err := GetProfileFromCtx(r.Context())
	if err != nil {
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "profile missing from context", nil)
		return
	}
	date := chi.URLParam(r, "date")
	ctx, cancel := context.WithTimeout(r.Context(), time.Second*10)
	defer cancel()
	goal, err := s.statsService.EffectiveDailyGoal(ctx, name, date)
	if err != nil {
		if isValidationErr(err) {
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form", nil)
			return
		}
		logger.Error("getting daily goal error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting daily goal", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"date": date, "calories": goal})
}
