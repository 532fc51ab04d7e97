package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/rpggio/arcview/internal/app"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/sherd"
	"github.com/rpggio/arcview/internal/fixture"
)

// withApp opens the stores, builds the services without metrics and runs fn.
func withApp(ctx context.Context, e *env, fn func(*app.App) error) error {
	s, err := openStores(ctx, e.cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := app.New(e.cfg, app.Deps{Documents: s.documents, Activity: s.activity}, e.logger)
	if err != nil {
		return err
	}
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func projectsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), e, func(a *app.App) error {
				projects, err := a.Projects.List(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), projects)
			})
		},
	}
}

// cliViewerID tags activity of the data commands.
const cliViewerID = "cli"

func aggregateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <projectID>",
		Short: "Flatten a project tree into rows and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), e, func(a *app.App) error {
				res, err := a.Viewers.Aggregate(cmd.Context(), cliViewerID, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func queryCommand(e *env) *cobra.Command {
	var filter sherd.Filter

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query sherds by project and diagnostic type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), e, func(a *app.App) error {
				res, err := a.Viewers.Query(cmd.Context(), cliViewerID, filter)
				if err != nil {
					return err
				}
				out := struct {
					DisplayProjectID string `json:"display_project_id,omitempty"`
					*sherd.Result
				}{Result: res}
				if filter.ProjectID != "" {
					out.DisplayProjectID = project.FormatID(project.NormalizeID(filter.ProjectID))
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&filter.ProjectID, "project", "", "project id to match")
	cmd.Flags().StringSliceVar(&filter.Diagnostics, "diagnostic", nil, "diagnostic types to match, repeatable")
	return cmd
}

func seedCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [fixture.yaml]",
		Short: "Load a YAML fixture into the document store; the bundled sample when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   *fixture.Fixture
				err error
			)
			if len(args) == 1 {
				f, err = fixture.Load(args[0])
			} else {
				f, err = fixture.Sample()
			}
			if err != nil {
				return err
			}

			s, err := openStores(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := fixture.Apply(cmd.Context(), s.documents, f)
			if err != nil {
				return err
			}
			e.logger.Info("seeded fixture", "projects", sum.Projects, "objects", sum.Objects, "universal", sum.Universal)
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
}
