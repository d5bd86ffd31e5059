package fakehevy

import (
	"fmt"
	"time"
)

// The formatted shapes below are what the hevy tools return to clients,
// rendered as indented JSON.

type formattedSet struct {
	Index        *int     `json:"index,omitempty"`
	Type         string   `json:"type"`
	Weight       *float64 `json:"weight"`
	Reps         *int     `json:"reps"`
	Distance     *float64 `json:"distance"`
	Duration     *float64 `json:"duration"`
	RPE          *float64 `json:"rpe,omitempty"`
	CustomMetric *float64 `json:"customMetric"`
}

type formattedExercise struct {
	Name               string         `json:"name"`
	Index              *int           `json:"index,omitempty"`
	ExerciseTemplateID string         `json:"exerciseTemplateId,omitempty"`
	Notes              *string        `json:"notes"`
	SupersetID         *int           `json:"supersetId,omitempty"`
	Sets               []formattedSet `json:"sets"`
}

type formattedWorkout struct {
	ID          string              `json:"id"`
	Date        string              `json:"date"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Duration    string              `json:"duration"`
	Exercises   []formattedExercise `json:"exercises"`
}

type formattedRoutine struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	FolderID  *int                `json:"folderId"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
	Exercises []formattedExercise `json:"exercises"`
}

type formattedTemplate struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	Type                  string   `json:"type"`
	PrimaryMuscleGroup    string   `json:"primaryMuscleGroup"`
	SecondaryMuscleGroups []string `json:"secondaryMuscleGroups"`
	IsCustom              bool     `json:"isCustom"`
}

func formatWorkout(w Workout) formattedWorkout {
	out := formattedWorkout{
		ID:          w.ID,
		Date:        w.CreatedAt,
		Name:        w.Title,
		Description: w.Description,
		Duration:    CalculateDuration(w.StartTime, w.EndTime),
		Exercises:   make([]formattedExercise, 0, len(w.Exercises)),
	}
	for _, ex := range w.Exercises {
		fe := formattedExercise{Name: ex.Title, Notes: ex.Notes, Sets: make([]formattedSet, 0, len(ex.Sets))}
		for _, s := range ex.Sets {
			fe.Sets = append(fe.Sets, formattedSet{
				Type:         s.Type,
				Weight:       s.WeightKg,
				Reps:         s.Reps,
				Distance:     s.DistanceMeters,
				Duration:     s.DurationSeconds,
				RPE:          s.RPE,
				CustomMetric: s.CustomMetric,
			})
		}
		out.Exercises = append(out.Exercises, fe)
	}
	return out
}

func formatRoutine(r Routine) formattedRoutine {
	out := formattedRoutine{
		ID:        r.ID,
		Title:     r.Title,
		FolderID:  r.FolderID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		Exercises: make([]formattedExercise, 0, len(r.Exercises)),
	}
	for _, ex := range r.Exercises {
		fe := formattedExercise{
			Name:               ex.Title,
			Index:              ex.Index,
			ExerciseTemplateID: ex.ExerciseTemplateID,
			Notes:              ex.Notes,
			SupersetID:         ex.SupersetID,
			Sets:               make([]formattedSet, 0, len(ex.Sets)),
		}
		for _, s := range ex.Sets {
			fe.Sets = append(fe.Sets, formattedSet{
				Index:        s.Index,
				Type:         s.Type,
				Weight:       s.WeightKg,
				Reps:         s.Reps,
				Distance:     s.DistanceMeters,
				Duration:     s.DurationSeconds,
				CustomMetric: s.CustomMetric,
			})
		}
		out.Exercises = append(out.Exercises, fe)
	}
	return out
}

func formatTemplate(t ExerciseTemplate) formattedTemplate {
	secondary := t.SecondaryMuscleGroups
	if secondary == nil {
		secondary = []string{}
	}
	return formattedTemplate{
		ID:                    t.ID,
		Title:                 t.Title,
		Type:                  t.Type,
		PrimaryMuscleGroup:    t.PrimaryMuscleGroup,
		SecondaryMuscleGroups: secondary,
		IsCustom:              t.IsCustom,
	}
}

// CalculateDuration renders the span between two RFC 3339 timestamps as
// "1h 2m 15s". Missing or unparseable inputs give "Unknown duration"; an end
// before the start is reported rather than rendered negative.
func CalculateDuration(start, end string) string {
	if start == "" || end == "" {
		return "Unknown duration"
	}
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return "Unknown duration"
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return "Unknown duration"
	}
	d := e.Sub(s)
	if d < 0 {
		return "Invalid duration (end time before start time)"
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%dh %dm %ds", h, m, sec)
}
