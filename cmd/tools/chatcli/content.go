package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radoslav1992/ai-help-center/internal/config"
	"github.com/radoslav1992/ai-help-center/internal/model/portfolio"
	"github.com/radoslav1992/ai-help-center/internal/repository"
	"github.com/radoslav1992/ai-help-center/internal/service/image"
)

// openDatabase connects to the database named by the DATABASE_* settings.
func openDatabase(ctx context.Context) (*sql.DB, repository.Driver, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	driver, err := repository.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, "", err
	}
	db, err := repository.Open(ctx, driver, cfg.Database.URL)
	if err != nil {
		return nil, "", err
	}
	return db, driver, nil
}

func newContactsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "List the most recent contact form submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			subs, err := repository.NewContactRepository(db).RecentSubmissions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no submissions"))
				return nil
			}
			for _, s := range subs {
				fmt.Fprintf(out, "%s %s <%s>\n", titleStyle.Render(s.CreatedAt.Format("2006-01-02 15:04")), s.Name, s.Email)
				if s.Service != "" {
					fmt.Fprintln(out, mutedStyle.Render("  service: "+s.Service))
				}
				fmt.Fprintln(out, "  "+s.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of submissions to show")
	return cmd
}

func newPortfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Inspect and seed portfolio projects",
	}
	cmd.AddCommand(newPortfolioListCmd(), newPortfolioAddCmd())
	return cmd
}

func newPortfolioListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List portfolio projects in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			projects, err := repository.NewPortfolioRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range projects {
				line := fmt.Sprintf("%d. %s", p.Order, p.Title)
				if p.Featured {
					line += " " + okStyle.Render("featured")
				}
				fmt.Fprintln(out, line)
				if len(p.Tags) > 0 {
					fmt.Fprintln(out, mutedStyle.Render("  "+strings.Join(p.Tags, ", ")))
				}
			}
			return nil
		},
	}
}

func newPortfolioAddCmd() *cobra.Command {
	var p portfolio.Project

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new portfolio project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p.Title = strings.TrimSpace(p.Title)
			if p.Title == "" {
				return errors.New("--title is required")
			}
			if p.ImageURL != "" {
				if _, err := image.NewReference(p.ImageURL); err != nil {
					return fmt.Errorf("--image %q: %w", p.ImageURL, err)
				}
			}

			db, _, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.NewPortfolioRepository(db).Create(cmd.Context(), &p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("stored project "+p.ID))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Title, "title", "", "project title")
	f.StringVar(&p.TitleBG, "title-bg", "", "Bulgarian title")
	f.StringVar(&p.Description, "description", "", "project description")
	f.StringVar(&p.DescriptionBG, "description-bg", "", "Bulgarian description")
	f.StringVar(&p.ImageURL, "image", "", "screenshot URL")
	f.StringVar(&p.WebsiteURL, "website", "", "live site URL")
	f.StringSliceVar(&p.Tags, "tag", nil, "tag, repeatable or comma separated")
	f.BoolVar(&p.Featured, "featured", false, "show on the home page")
	f.IntVar(&p.Order, "order", 0, "display order")
	return cmd
}
