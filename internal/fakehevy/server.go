// Package fakehevy is a stand-in for the hevy-mcp server. It advertises the
// same read-only tool surface, answers from fixture data instead of the Hevy
// API, and runs over stdio like the real thing. The smoke harness uses it for
// offline runs and its own end-to-end tests.
package fakehevy

import (
	"context"
	"fmt"

	"github.com/ggoodman/hevy-mcp-smoke/mcp"
	"github.com/ggoodman/hevy-mcp-smoke/mcpservice"
)

// ServerName and ServerVersion identify the fake in initialize responses.
const (
	ServerName    = "hevy-mcp"
	ServerVersion = "0.0.0-fake"
)

// Tool names served by the fake, in listing order.
const (
	ToolGetWorkouts          = "get-workouts"
	ToolGetWorkout           = "get-workout"
	ToolGetWorkoutCount      = "get-workout-count"
	ToolGetRoutines          = "get-routines"
	ToolGetRoutine           = "get-routine"
	ToolGetExerciseTemplates = "get-exercise-templates"
	ToolGetExerciseTemplate  = "get-exercise-template"
)

type config struct {
	fixtures *Fixtures
	omit     []string
	pageSize int
}

// Option customizes the fake server.
type Option func(*config)

// WithFixtures replaces the embedded fixture data.
func WithFixtures(f *Fixtures) Option {
	return func(c *config) {
		if f != nil {
			c.fixtures = f
		}
	}
}

// WithEmptyAccount serves an account with no workouts, routines or templates.
func WithEmptyAccount() Option {
	return func(c *config) { c.fixtures = &Fixtures{} }
}

// WithoutTools drops the named tools from the advertised set.
func WithoutTools(names ...string) Option {
	return func(c *config) { c.omit = append(c.omit, names...) }
}

// WithListPageSize sets how many tools each tools/list page carries.
func WithListPageSize(n int) Option {
	return func(c *config) { c.pageSize = n }
}

// NewServer builds the fake hevy MCP server.
func NewServer(opts ...Option) *mcpservice.Server {
	cfg := &config{fixtures: DefaultFixtures()}
	for _, opt := range opts {
		opt(cfg)
	}

	tools := mcpservice.NewToolsContainer(newTools(cfg.fixtures)...)
	for _, name := range cfg.omit {
		tools.Remove(name)
	}
	tools.SetPageSize(cfg.pageSize)

	return mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: ServerName, Version: ServerVersion}),
		mcpservice.WithInstructions("Fake Hevy account served from fixtures; no data leaves this process."),
		mcpservice.WithTools(tools),
	)
}

type workoutPageArgs struct {
	Page     int `json:"page,omitempty" jsonschema:"minimum=1,default=1"`
	PageSize int `json:"pageSize,omitempty" jsonschema:"minimum=1,maximum=10,default=5"`
}

type templatePageArgs struct {
	Page     int `json:"page,omitempty" jsonschema:"minimum=1,default=1"`
	PageSize int `json:"pageSize,omitempty" jsonschema:"minimum=1,maximum=100,default=5"`
}

type workoutIDArgs struct {
	WorkoutID string `json:"workoutId" jsonschema:"minLength=1"`
}

type routineIDArgs struct {
	RoutineID string `json:"routineId" jsonschema:"minLength=1"`
}

type templateIDArgs struct {
	ExerciseTemplateID string `json:"exerciseTemplateId" jsonschema:"minLength=1"`
}

type noArgs struct{}

func newTools(fx *Fixtures) []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool(ToolGetWorkouts, func(ctx context.Context, a workoutPageArgs) (*mcp.CallToolResult, error) {
			page, size, errRes := pageBounds(a.Page, a.PageSize, 10)
			if errRes != nil {
				return errRes, nil
			}
			items := paginate(fx.Workouts, page, size)
			if len(items) == 0 {
				return mcpservice.TextResult("No workouts found for the specified parameters"), nil
			}
			out := make([]formattedWorkout, 0, len(items))
			for _, w := range items {
				out = append(out, formatWorkout(w))
			}
			return mcpservice.JSONResult(out)
		}, mcpservice.WithToolDescription("Get a paginated list of workouts. Returns workout details including title, description, start/end times, and exercises performed. Results are ordered from newest to oldest.")),

		mcpservice.NewTool(ToolGetWorkout, func(ctx context.Context, a workoutIDArgs) (*mcp.CallToolResult, error) {
			if a.WorkoutID == "" {
				return mcpservice.Errorf("workoutId is required"), nil
			}
			for _, w := range fx.Workouts {
				if w.ID == a.WorkoutID {
					return mcpservice.JSONResult(formatWorkout(w))
				}
			}
			return mcpservice.TextResult(fmt.Sprintf("Workout with ID %s not found", a.WorkoutID)), nil
		}, mcpservice.WithToolDescription("Get complete details of a specific workout by ID.")),

		mcpservice.NewTool(ToolGetWorkoutCount, func(ctx context.Context, _ noArgs) (*mcp.CallToolResult, error) {
			return mcpservice.JSONResult(map[string]int{"count": len(fx.Workouts)})
		}, mcpservice.WithToolDescription("Get the total number of workouts on the account.")),

		mcpservice.NewTool(ToolGetRoutines, func(ctx context.Context, a workoutPageArgs) (*mcp.CallToolResult, error) {
			page, size, errRes := pageBounds(a.Page, a.PageSize, 10)
			if errRes != nil {
				return errRes, nil
			}
			items := paginate(fx.Routines, page, size)
			if len(items) == 0 {
				return mcpservice.TextResult("No routines found for the specified parameters"), nil
			}
			out := make([]formattedRoutine, 0, len(items))
			for _, r := range items {
				out = append(out, formatRoutine(r))
			}
			return mcpservice.JSONResult(out)
		}, mcpservice.WithToolDescription("Get a paginated list of your workout routines, including custom and default routines.")),

		mcpservice.NewTool(ToolGetRoutine, func(ctx context.Context, a routineIDArgs) (*mcp.CallToolResult, error) {
			if a.RoutineID == "" {
				return mcpservice.Errorf("routineId is required"), nil
			}
			for _, r := range fx.Routines {
				if r.ID == a.RoutineID {
					return mcpservice.JSONResult(formatRoutine(r))
				}
			}
			return mcpservice.TextResult(fmt.Sprintf("Routine with ID %s not found", a.RoutineID)), nil
		}, mcpservice.WithToolDescription("Get complete details of a specific routine by its ID.")),

		mcpservice.NewTool(ToolGetExerciseTemplates, func(ctx context.Context, a templatePageArgs) (*mcp.CallToolResult, error) {
			page, size, errRes := pageBounds(a.Page, a.PageSize, 100)
			if errRes != nil {
				return errRes, nil
			}
			items := paginate(fx.ExerciseTemplates, page, size)
			if len(items) == 0 {
				return mcpservice.TextResult("No exercise templates found for the specified parameters"), nil
			}
			out := make([]formattedTemplate, 0, len(items))
			for _, t := range items {
				out = append(out, formatTemplate(t))
			}
			return mcpservice.JSONResult(out)
		}, mcpservice.WithToolDescription("Get a paginated list of exercise templates (default and custom) with details like name, category, equipment, and muscle groups.")),

		mcpservice.NewTool(ToolGetExerciseTemplate, func(ctx context.Context, a templateIDArgs) (*mcp.CallToolResult, error) {
			if a.ExerciseTemplateID == "" {
				return mcpservice.Errorf("exerciseTemplateId is required"), nil
			}
			for _, t := range fx.ExerciseTemplates {
				if t.ID == a.ExerciseTemplateID {
					return mcpservice.JSONResult(formatTemplate(t))
				}
			}
			return mcpservice.TextResult(fmt.Sprintf("Exercise template with ID %s not found", a.ExerciseTemplateID)), nil
		}, mcpservice.WithToolDescription("Get complete details of a specific exercise template by its ID.")),
	}
}

// pageBounds applies the hevy defaults (page 1, five per page) to omitted
// values and rejects out-of-range ones with an error result.
func pageBounds(page, size, maxSize int) (int, int, *mcp.CallToolResult) {
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 5
	}
	if page < 1 {
		return 0, 0, mcpservice.Errorf("page must be greater than or equal to 1")
	}
	if size < 1 || size > maxSize {
		return 0, 0, mcpservice.Errorf("pageSize must be between 1 and %d", maxSize)
	}
	return page, size, nil
}

func paginate[T any](items []T, page, size int) []T {
	// Compare page counts first; (page-1)*size overflows for huge pages.
	if page-1 >= (len(items)+size-1)/size {
		return nil
	}
	start := (page - 1) * size
	return items[start:min(start+size, len(items))]
}
