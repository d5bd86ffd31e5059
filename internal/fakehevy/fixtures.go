package fakehevy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the account data the fake server answers from. Field names
// follow the Hevy REST API's snake_case.
type Fixtures struct {
	Workouts          []Workout          `yaml:"workouts"`
	Routines          []Routine          `yaml:"routines"`
	ExerciseTemplates []ExerciseTemplate `yaml:"exercise_templates"`
}

type Workout struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description *string    `yaml:"description"`
	StartTime   string     `yaml:"start_time"`
	EndTime     string     `yaml:"end_time"`
	CreatedAt   string     `yaml:"created_at"`
	Exercises   []Exercise `yaml:"exercises"`
}

type Routine struct {
	ID        string     `yaml:"id"`
	Title     string     `yaml:"title"`
	FolderID  *int       `yaml:"folder_id"`
	CreatedAt string     `yaml:"created_at"`
	UpdatedAt string     `yaml:"updated_at"`
	Exercises []Exercise `yaml:"exercises"`
}

type Exercise struct {
	Title              string  `yaml:"title"`
	Index              *int    `yaml:"index"`
	ExerciseTemplateID string  `yaml:"exercise_template_id"`
	Notes              *string `yaml:"notes"`
	SupersetID         *int    `yaml:"superset_id"`
	Sets               []Set   `yaml:"sets"`
}

type Set struct {
	Index           *int     `yaml:"index"`
	Type            string   `yaml:"type"`
	WeightKg        *float64 `yaml:"weight_kg"`
	Reps            *int     `yaml:"reps"`
	DistanceMeters  *float64 `yaml:"distance_meters"`
	DurationSeconds *float64 `yaml:"duration_seconds"`
	RPE             *float64 `yaml:"rpe"`
	CustomMetric    *float64 `yaml:"custom_metric"`
}

type ExerciseTemplate struct {
	ID                    string   `yaml:"id"`
	Title                 string   `yaml:"title"`
	Type                  string   `yaml:"type"`
	PrimaryMuscleGroup    string   `yaml:"primary_muscle_group"`
	SecondaryMuscleGroups []string `yaml:"secondary_muscle_groups"`
	IsCustom              bool     `yaml:"is_custom"`
}

// DefaultFixtures returns a fresh copy of the embedded fixture set.
func DefaultFixtures() *Fixtures {
	f, err := decodeFixtures(defaultFixtures)
	if err != nil {
		panic(fmt.Sprintf("fakehevy: embedded fixtures are invalid: %v", err))
	}
	return f
}

// LoadFixtures decodes a YAML fixture document. Unknown keys are rejected so
// typos in hand-written fixtures surface immediately.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return decodeFixtures(b)
}

func decodeFixtures(b []byte) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}
