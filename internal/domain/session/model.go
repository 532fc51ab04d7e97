package session

import (
	"time"

	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// ErrorKind classifies the error shown by a view.
type ErrorKind string

const (
	ErrorNone       ErrorKind = ""
	ErrorValidation ErrorKind = "validation"
	ErrorFetch      ErrorKind = "fetch"
)

// UniversalState is what the flat sherd view renders.
type UniversalState struct {
	Tick                 int64                     `json:"tick"`
	Loading              bool                      `json:"loading"`
	Error                string                    `json:"error,omitempty"`
	ErrorKind            ErrorKind                 `json:"error_kind,omitempty"`
	SearchProject        string                    `json:"search_project"`
	SelectedDiagnostics  []string                  `json:"selected_diagnostics"`
	AvailableDiagnostics []string                  `json:"available_diagnostics"`
	Rows                 []sherd.SherdRecord       `json:"rows"`
	Stats                sherd.Stats               `json:"stats"`
	Distribution         []sherd.DistributionEntry `json:"distribution"`
	Selected             *sherd.SherdRecord        `json:"selected,omitempty"`
	UpdatedAt            time.Time                 `json:"updated_at"`
}

// ProjectState is what the project tree view renders.
type ProjectState struct {
	Tick            int64                    `json:"tick"`
	Loading         bool                     `json:"loading"`
	Error           string                   `json:"error,omitempty"`
	Projects        []project.ProjectSummary `json:"projects"`
	SelectedProject string                   `json:"selected_project"`
	Rows            []hierarchy.FlatRow      `json:"rows"`
	Stats           hierarchy.Stats          `json:"stats"`
	Selected        *hierarchy.FlatRow       `json:"selected,omitempty"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func newUniversalState() UniversalState {
	empty := sherd.EmptyResult()
	return UniversalState{
		SelectedDiagnostics:  []string{},
		AvailableDiagnostics: []string{},
		Rows:                 empty.Rows,
		Stats:                empty.Stats,
		Distribution:         empty.Distribution,
	}
}

func newProjectState() ProjectState {
	empty := hierarchy.EmptyResult()
	return ProjectState{
		Projects: []project.ProjectSummary{},
		Rows:     empty.Rows,
		Stats:    empty.Stats,
	}
}

// copy returns a snapshot that shares no slices with the view.
func (s UniversalState) copy() UniversalState {
	out := s
	out.SelectedDiagnostics = append([]string{}, s.SelectedDiagnostics...)
	out.AvailableDiagnostics = append([]string{}, s.AvailableDiagnostics...)
	out.Rows = append([]sherd.SherdRecord{}, s.Rows...)
	out.Distribution = append([]sherd.DistributionEntry{}, s.Distribution...)
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	return out
}

func (s ProjectState) copy() ProjectState {
	out := s
	out.Projects = append([]project.ProjectSummary{}, s.Projects...)
	out.Rows = append([]hierarchy.FlatRow{}, s.Rows...)
	if s.Selected != nil {
		sel := *s.Selected
		out.Selected = &sel
	}
	return out
}
