// Command admin performs offline maintenance on the portfolio database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/akamensky/argparse"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"portfolio-api/internal/app"
	"portfolio-api/internal/core/config"
	"portfolio-api/internal/core/logger"
	"portfolio-api/internal/service"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	parser := argparse.NewParser("admin", "Maintenance tasks for the portfolio API database")
	configPath := parser.String("c", "config", &argparse.Options{Help: "Config file (defaults to CONFIG_PATH or ./configs/config.local.yaml)"})

	createCmd := parser.NewCommand("create-user", "Create an account")
	cUser := createCmd.String("u", "username", &argparse.Options{Help: "Username", Required: true})
	cPass := createCmd.String("p", "password", &argparse.Options{Help: "Password", Required: true})
	cRole := createCmd.Selector("r", "role", []string{"admin", "blogger", "reader"}, &argparse.Options{Help: "Role", Default: "blogger"})
	cEmail := createCmd.String("e", "email", &argparse.Options{Help: "Email"})

	resetCmd := parser.NewCommand("reset-password", "Replace an account's password")
	rUser := resetCmd.String("u", "username", &argparse.Options{Help: "Username", Required: true})
	rPass := resetCmd.String("p", "password", &argparse.Options{Help: "New password", Required: true})

	listCmd := parser.NewCommand("list-users", "List accounts")
	purgeCmd := parser.NewCommand("purge-sessions", "Delete expired sessions")

	sitemapCmd := parser.NewCommand("sitemap", "Write sitemap.xml")
	sPath := sitemapCmd.String("o", "out", &argparse.Options{Help: "Output path (defaults to sitemap.path)"})

	if err := parser.Parse(args); err != nil {
		return fmt.Errorf("%s", parser.Usage(err))
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}
	cfg.Log.File.Filename = ""
	l, cleanup := logger.New(cfg.Log)
	defer cleanup()

	db, err := app.OpenDB(cfg, l)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a, err := app.New(cfg, l, db)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.Init(ctx); err != nil {
		// without ADMIN_PASSWORD the first admin can still be created here
		firstAdmin := createCmd.Happened() && *cRole == "admin"
		if !firstAdmin || !errors.Is(err, service.ErrNoInitialPassword) {
			return err
		}
		l.Warn("no admin yet, creating one from the command line", zap.Error(err))
	}

	switch {
	case createCmd.Happened():
		var email *string
		if *cEmail != "" {
			email = cEmail
		}
		id, err := a.Accounts.Create(ctx, service.CreateAccountInput{Username: *cUser, Email: email, Password: *cPass, Role: *cRole})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s (%s) id=%s\n", *cUser, *cRole, id)

	case resetCmd.Happened():
		if err := a.Accounts.ResetPassword(ctx, *rUser, *rPass); err != nil {
			return err
		}
		fmt.Fprintf(out, "password reset for %s\n", *rUser)

	case listCmd.Happened():
		list, err := a.Accounts.List(ctx)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Username", "Email", "Role", "Created"})
		for _, acc := range list {
			email := ""
			if acc.Email != nil {
				email = *acc.Email
			}
			table.Append([]string{acc.ID, acc.Username, email, string(acc.Role), acc.CreatedAt.Format(time.RFC3339)})
		}
		table.Render()

	case purgeCmd.Happened():
		n, err := a.Sessions.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "purged %d expired sessions\n", n)

	case sitemapCmd.Happened():
		path := *sPath
		if path == "" {
			path = cfg.Sitemap.Path
		}
		if err := a.Sitemap.WriteFile(ctx, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}
