package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	errorvalues "github.com/limbo/caltrack/internal/error_values"
	"github.com/limbo/caltrack/internal/repository"
	"github.com/limbo/caltrack/pkg/entity"
)

const (
	// Applied when no explicit goal exists at or before the date
	DefaultDailyGoal = 2000
	// Week-over-week calorie difference below which the trend reads stable
	TrendThreshold = 50

	// Progress colors interpolate between green, yellow and red with these
	// channel bounds
	colorChannelMax = 224
	colorBlue       = 30

	// A weight swing of this many units saturates the indicator color
	weightColorScale = 10.0

	TrendUp     = "↑"
	TrendDown   = "↓"
	TrendStable = "→"

	weekLength = 7
)

type WeeklyAverages struct {
	CurrentWeek  int    `json:"current_week_avg"`
	PreviousWeek int    `json:"last_week_avg"`
	Trend        string `json:"trend,omitempty"`
}

type WeeklyReport struct {
	OverallAverage  float64            `json:"weekly_average"`
	HighestCalories int                `json:"highest_calories"`
	LowestCalories  int                `json:"lowest_calories"`
	MostEaten       []entity.FoodCount `json:"most_eaten"`
	LeastEaten      []entity.FoodCount `json:"least_eaten"`
	WeightChange    *float64           `json:"weight_change,omitempty"`
}

type DaySummary struct {
	Date             string   `json:"date"`
	TotalCalories    int      `json:"total_calories"`
	DailyGoal        int      `json:"daily_calories"`
	CaloriesLeft     int      `json:"calories_left"`
	CaloriesOver     int      `json:"calories_over"`
	ProgressRatio    float64  `json:"progress"`
	ProgressColor    string   `json:"progress_color"`
	WeightGoal       *float64 `json:"weight_goal,omitempty"`
	CurrentWeight    *float64 `json:"current_weight,omitempty"`
	PreviousWeight   *float64 `json:"previous_weight,omitempty"`
	WeightChange     *float64 `json:"weight_change,omitempty"`
	WeightArrow      string   `json:"weight_arrow,omitempty"`
	WeightArrowColor string   `json:"weight_arrow_color,omitempty"`
	CurrentWeekAvg   int      `json:"current_week_avg"`
	LastWeekAvg      int      `json:"last_week_avg"`
	WeekTrend        string   `json:"week_trend,omitempty"`
}

type HistoryDay struct {
	Date          string                                `json:"date"`
	Meals         map[entity.MealSlot][]entity.LogEntry `json:"meals"`
	TotalCalories int                                   `json:"total_calories"`
	DailyGoal     int                                   `json:"daily_calories"`
	OverLimit     bool                                  `json:"over_limit"`
}

type HistoryPage struct {
	Days       []HistoryDay `json:"days"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	TotalItems int          `json:"total_items"`
}

type StatsService struct {
	logRepo      repository.LogRepositoryI
	metricsRepo  repository.MetricsRepositoryI
	profilesRepo repository.ProfilesRepositoryI
	catalogRepo  repository.CatalogRepositoryI
}

func NewStatsService(logRepo repository.LogRepositoryI, metricsRepo repository.MetricsRepositoryI, profilesRepo repository.ProfilesRepositoryI, catalogRepo repository.CatalogRepositoryI) *StatsService {
	if logRepo == nil || metricsRepo == nil || profilesRepo == nil || catalogRepo == nil {
		log.Fatal("on stats service provided nil repos")
	}
	return &StatsService{
		logRepo:      logRepo,
		metricsRepo:  metricsRepo,
		profilesRepo: profilesRepo,
		catalogRepo:  catalogRepo,
	}
}

func (serv *StatsService) TotalCalories(ctx context.Context, profile, date string) (int, error) {
	totals, err := serv.MealTotals(ctx, profile, date)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range totals {
		total += t
	}
	return total, nil
}

func (serv *StatsService) MealTotals(ctx context.Context, profile, date string) (map[entity.MealSlot]int, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	totals, err := serv.logRepo.MealTotals(ctx, profile, date)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	return totals, nil
}

func (serv *StatsService) EffectiveDailyGoal(ctx context.Context, profile, date string) (int, error) {
	if err := ValidateDate(date); err != nil {
		return 0, err
	}
	goal, err := serv.metricsRepo.EffectiveDailyGoal(ctx, profile, date)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGoalNotSet) {
			return DefaultDailyGoal, nil
		}
		return 0, errors.New("metrics repository error: " + err.Error())
	}
	return goal, nil
}

// progressColor interpolates green to yellow over [0,1] and yellow to red
// past 1, saturating once the excess equals the whole goal.
func progressColor(ratio float64) string {
	red := colorChannelMax
	green := colorChannelMax
	if ratio <= 1 {
		red = int(colorChannelMax * ratio)
	} else {
		green = int(colorChannelMax - colorChannelMax*(ratio-1))
		if green < 0 {
			green = 0
		}
	}
	return fmt.Sprintf("%d,%d,%d", red, green, colorBlue)
}

// weightArrowColor mirrors progressColor for weight swings: loss shades
// green toward yellow, gain yellow toward red, saturating at
// weightColorScale units.
func weightArrowColor(change float64) string {
	magnitude := math.Min(math.Abs(change)/weightColorScale, 1)
	if change < 0 {
		return fmt.Sprintf("rgb(%d,%d,%d)", int(colorChannelMax*magnitude), colorChannelMax, colorBlue)
	}
	green := int(colorChannelMax - colorChannelMax*magnitude)
	if green < 0 {
		green = 0
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", colorChannelMax, green, colorBlue)
}

func (serv *StatsService) DaySummary(ctx context.Context, profile, date string) (*DaySummary, error) {
	total, err := serv.TotalCalories(ctx, profile, date)
	if err != nil {
		return nil, err
	}
	goal, err := serv.EffectiveDailyGoal(ctx, profile, date)
	if err != nil {
		return nil, err
	}
	ratio := 0.0
	if goal != 0 {
		ratio = float64(total) / float64(goal)
	}
	summary := &DaySummary{
		Date:          date,
		TotalCalories: total,
		DailyGoal:     goal,
		CaloriesLeft:  goal - total,
		ProgressRatio: ratio,
		ProgressColor: progressColor(ratio),
	}
	if total > goal {
		summary.CaloriesOver = total - goal
	}

	p, err := serv.profilesRepo.GetByName(ctx, profile)
	if err != nil {
		if errors.Is(err, errorvalues.ErrProfileNotFound) {
			return nil, err
		}
		return nil, errors.New("profiles repository error: " + err.Error())
	}
	summary.WeightGoal = p.WeightGoal

	current, err := serv.metricsRepo.GetWeight(ctx, profile, date)
	if err == nil {
		summary.CurrentWeight = &current
	} else if !errors.Is(err, errorvalues.ErrNoWeightData) {
		return nil, errors.New("metrics repository error: " + err.Error())
	}
	previous, err := serv.metricsRepo.PreviousWeight(ctx, profile, date)
	if err == nil {
		summary.PreviousWeight = &previous
	} else if !errors.Is(err, errorvalues.ErrNoWeightData) {
		return nil, errors.New("metrics repository error: " + err.Error())
	}
	if summary.CurrentWeight != nil && summary.PreviousWeight != nil {
		change := math.Round((current-previous)*100) / 100
		summary.WeightChange = &change
		if change < 0 {
			summary.WeightArrow = TrendDown
			summary.WeightArrowColor = weightArrowColor(change)
		} else if change > 0 {
			summary.WeightArrow = TrendUp
			summary.WeightArrowColor = weightArrowColor(change)
		}
	}

	averages, err := serv.WeeklyAverages(ctx, profile)
	if err != nil {
		return nil, err
	}
	summary.CurrentWeekAvg = averages.CurrentWeek
	summary.LastWeekAvg = averages.PreviousWeek
	summary.WeekTrend = averages.Trend

	return summary, nil
}

// WeeklyAverages averages the most recent 7 logged days and the 7 before
// them. Days with zero recorded consumption occupy window slots but are
// excluded from the denominator.
func (serv *StatsService) WeeklyAverages(ctx context.Context, profile string) (*WeeklyAverages, error) {
	totals, err := serv.logRepo.DailyTotals(ctx, profile)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	averages := &WeeklyAverages{}
	if len(totals) > 0 {
		window := totals
		if len(window) > weekLength {
			window = window[:weekLength]
		}
		averages.CurrentWeek = averageNonzero(window)
	}
	if len(totals) >= 2*weekLength {
		averages.PreviousWeek = averageNonzero(totals[weekLength : 2*weekLength])
	}
	if averages.CurrentWeek > 0 && averages.PreviousWeek > 0 {
		diff := averages.CurrentWeek - averages.PreviousWeek
		switch {
		case diff < -TrendThreshold:
			averages.Trend = TrendDown
		case diff > TrendThreshold:
			averages.Trend = TrendUp
		default:
			averages.Trend = TrendStable
		}
	}
	return averages, nil
}

func averageNonzero(totals []entity.DayTotal) int {
	sum := 0
	days := 0
	for _, t := range totals {
		if t.TotalCalories > 0 {
			sum += t.TotalCalories
			days++
		}
	}
	if days == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(days)))
}

// WeeklyReport summarizes all logged days: the overall average counts zero
// days, unlike the week-over-week comparison.
func (serv *StatsService) WeeklyReport(ctx context.Context, profile string) (*WeeklyReport, error) {
	totals, err := serv.logRepo.DailyTotals(ctx, profile)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	report := &WeeklyReport{
		MostEaten:  []entity.FoodCount{},
		LeastEaten: []entity.FoodCount{},
	}
	if len(totals) > 0 {
		sum := 0
		highest := totals[0].TotalCalories
		lowest := totals[0].TotalCalories
		for _, t := range totals {
			sum += t.TotalCalories
			if t.TotalCalories > highest {
				highest = t.TotalCalories
			}
			if t.TotalCalories < lowest {
				lowest = t.TotalCalories
			}
		}
		report.OverallAverage = math.Round(float64(sum)/float64(len(totals))*100) / 100
		report.HighestCalories = highest
		report.LowestCalories = lowest
	}

	counts, err := serv.catalogRepo.FoodCounts(ctx, profile)
	if err != nil {
		return nil, errors.New("catalog repository error: " + err.Error())
	}
	ranked := make([]entity.FoodCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, entity.FoodCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	top := len(ranked)
	if top > 5 {
		top = 5
	}
	report.MostEaten = append(report.MostEaten, ranked[:top]...)
	for i := len(ranked) - 1; i >= len(ranked)-top; i-- {
		report.LeastEaten = append(report.LeastEaten, ranked[i])
	}

	change, err := serv.WeightChange(ctx, profile)
	if err == nil {
		report.WeightChange = &change
	} else if !errors.Is(err, errorvalues.ErrNoWeightData) {
		return nil, err
	}
	return report, nil
}

func (serv *StatsService) History(ctx context.Context, profile, start, end string, page, perPage int) (*HistoryPage, error) {
	if start != "" {
		if err := ValidateDate(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if err := ValidateDate(end); err != nil {
			return nil, err
		}
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 5
	}
	dates, err := serv.logRepo.ListDays(ctx, profile, start, end)
	if err != nil {
		return nil, errors.New("log repository error: " + err.Error())
	}
	result := &HistoryPage{
		Days:       []HistoryDay{},
		Page:       page,
		TotalItems: len(dates),
		TotalPages: (len(dates) + perPage - 1) / perPage,
	}
	offset := (page - 1) * perPage
	if offset >= len(dates) {
		return result, nil
	}
	limit := offset + perPage
	if limit > len(dates) {
		limit = len(dates)
	}
	for _, date := range dates[offset:limit] {
		day, err := serv.logRepo.GetDay(ctx, profile, date)
		if err != nil {
			return nil, errors.New("log repository error: " + err.Error())
		}
		total := 0
		for _, foods := range day.Meals {
			for _, f := range foods {
				total += f.Calories
			}
		}
		goal, err := serv.EffectiveDailyGoal(ctx, profile, date)
		if err != nil {
			return nil, err
		}
		result.Days = append(result.Days, HistoryDay{
			Date:          date,
			Meals:         day.Meals,
			TotalCalories: total,
			DailyGoal:     goal,
			OverLimit:     total > goal,
		})
	}
	return result, nil
}

// WeightChange spans the whole recorded history: latest minus earliest.
// Needs at least two dated entries.
func (serv *StatsService) WeightChange(ctx context.Context, profile string) (float64, error) {
	series, err := serv.metricsRepo.WeightSeries(ctx, profile)
	if err != nil {
		return 0, errors.New("metrics repository error: " + err.Error())
	}
	if len(series) < 2 {
		return 0, errorvalues.ErrNoWeightData
	}
	return series[len(series)-1].Weight - series[0].Weight, nil
}

func (serv *StatsService) PreviousWeight(ctx context.Context, profile, date string) (float64, error) {
	if err := ValidateDate(date); err != nil {
		return 0, err
	}
	weight, err := serv.metricsRepo.PreviousWeight(ctx, profile, date)
	if err != nil {
		if errors.Is(err, errorvalues.ErrNoWeightData) {
			return 0, err
		}
		return 0, errors.New("metrics repository error: " + err.Error())
	}
	return weight, nil
}
