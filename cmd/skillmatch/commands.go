// cmd/skillmatch/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"skillmatch/internal/accounts"
	"skillmatch/internal/common/errors"
	candidatesearch "skillmatch/internal/dashboard/candidate-search"
	postingsubmission "skillmatch/internal/dashboard/posting-submission"
)

// withSignedInApp builds the app, signs in and hands over to fn.
func withSignedInApp(ctx context.Context, cmd *cli.Command, fn func(app *App) error) error {
	app, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.SignIn(ctx, cmd); err != nil {
		return fmt.Errorf("sign in failed: %s", errors.UserMessage(err))
	}
	return fn(app)
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a company or candidate account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Company or full name", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "Account password", Required: true},
			&cli.StringFlag{Name: "user-type", Usage: "company or user", Value: "user"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.Accounts.Register(ctx, accounts.Request{
				Name:     cmd.String("name"),
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
				UserType: cmd.String("user-type"),
			})
			if err != nil {
				return fmt.Errorf("register: %s", errors.UserMessage(err))
			}
			fmt.Printf("Registered %s account for %s (%s)\n", account.UserType, account.Email, account.UID)
			return nil
		},
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "Show the company's postings, matches and stats",
		Flags: append(credentialFlags(),
			&cli.StringFlag{Name: "work-mode", Usage: "Filter: all, onsite, remote or hybrid"},
			&cli.StringFlag{Name: "sort", Usage: "Sort: date or matches"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSignedInApp(ctx, cmd, func(app *App) error {
				if err := app.Dashboard.Resync(ctx); err != nil {
					return fmt.Errorf("load postings: %s", errors.UserMessage(err))
				}
				view, err := app.Dashboard.View(cmd.String("work-mode"), cmd.String("sort"))
				if err != nil {
					return err
				}
				renderView(os.Stdout, view)
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search résumés by keyword",
		ArgsUsage: "<query>",
		Flags:     credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withSignedInApp(ctx, cmd, func(app *App) error {
				snap, err := app.Dashboard.Search(ctx, cmd.Args().First())
				if err != nil && snap.State != candidatesearch.StateFailed {
					return fmt.Errorf("search: %s", errors.UserMessage(err))
				}
				renderSearch(os.Stdout, snap)
				return nil
			})
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:  "post",
		Usage: "Publish a job posting and show its matches",
		Flags: append(credentialFlags(),
			&cli.StringFlag{Name: "role", Usage: "Job role", Required: true},
			&cli.StringFlag{Name: "hiring-type", Usage: "full-time, part-time, contract or intern", Value: "full-time"},
			&cli.StringFlag{Name: "work-mode", Usage: "onsite, remote or hybrid", Value: "onsite"},
			&cli.StringFlag{Name: "description-file", Usage: "Markdown description (defaults to the template)"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			form := postingsubmission.DefaultForm()
			form.Role = cmd.String("role")
			form.HiringType = cmd.String("hiring-type")
			form.WorkMode = cmd.String("work-mode")
			if path := cmd.String("description-file"); path != "" {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read description: %w", err)
				}
				form.Description = string(raw)
			}

			return withSignedInApp(ctx, cmd, func(app *App) error {
				result, err := app.Dashboard.Submit(ctx, form)
				if err != nil {
					return fmt.Errorf("submit posting: %s", errors.UserMessage(err))
				}
				fmt.Printf("Posting published with %d matching candidate(s).\n", result.MatchCount)

				app.Dashboard.WaitForBackground()
				view, err := app.Dashboard.View("", "")
				if err != nil {
					return err
				}
				renderView(os.Stdout, view)
				return nil
			})
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a résumé PDF for the signed-in candidate",
		ArgsUsage: "<file.pdf>",
		Flags:     credentialFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("a PDF file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			return withSignedInApp(ctx, cmd, func(app *App) error {
				identity, _ := app.Session.Current()
				result, err := app.Resumes.Upload(ctx, identity, filepath.Base(path), f)
				if err != nil {
					return fmt.Errorf("upload: %s", errors.UserMessage(err))
				}
				fmt.Printf("Uploaded %s\nResume: %s\nURL: %s\n", filepath.Base(path), result.ResumeID, result.ResumeURL)
				return nil
			})
		},
	}
}
