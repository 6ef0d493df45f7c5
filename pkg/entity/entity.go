package entity

import (
	"time"

	"github.com/google/uuid"
)

// MealSlot is one of the four fixed slots a log entry belongs to.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snack     MealSlot = "snack"
)

// MealSlots lists the slots in presentation order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snack}

func (m MealSlot) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

type Profile struct {
	Name       string    `json:"name"`
	MagicToken uuid.UUID `json:"magic_token"`
	WeightGoal *float64  `json:"weight_goal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type LogEntry struct {
	ID             uuid.UUID `json:"id"`
	FoodName       string    `json:"name"`
	Calories       int       `json:"calories"`
	Quantity       int       `json:"quantity"`
	ManualOverride bool      `json:"manual_calories"`
}

// DayLog always carries all four slots; slots the storage never saw are
// empty lists, not nil.
type DayLog struct {
	Date  string                  `json:"date"`
	Meals map[MealSlot][]LogEntry `json:"meals"`
}

func NewDayLog(date string) *DayLog {
	meals := make(map[MealSlot][]LogEntry, len(MealSlots))
	for _, slot := range MealSlots {
		meals[slot] = []LogEntry{}
	}
	return &DayLog{Date: date, Meals: meals}
}

type WeightEntry struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

type DayTotal struct {
	Date          string `json:"date"`
	TotalCalories int    `json:"total_calories"`
}

type FoodCount struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Count    int    `json:"count"`
}

// ProfileDocument is the legacy export shape: the whole profile as one
// JSON blob. Generated from rows, never read back for logic.
type ProfileDocument struct {
	UUID          string                             `json:"uuid"`
	FoodDatabase  map[string]int                     `json:"food_database"`
	WeeklyLog     map[string]map[MealSlot][]LogEntry `json:"weekly_log"`
	Weights       map[string]float64                 `json:"weights"`
	DailyCalories map[string]int                     `json:"daily_calories"`
	WeightGoal    *float64                           `json:"weight_goal"`
}

// ConsistencyReport compares the generated document against the log rows
// for one profile.
type ConsistencyReport struct {
	Profile         string `json:"profile"`
	DocumentEntries int    `json:"document_entries"`
	RowEntries      int    `json:"row_entries"`
	Consistent      bool   `json:"consistent"`
}
