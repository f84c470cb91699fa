// Package command defines the giftdesk-server command line: serving the
// API, applying migrations and operator actions on the employee directory.
package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/giftdesk/internal/buildinfo"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server"
	"github.com/dmitrijs2005/giftdesk/internal/server/config"
	"github.com/dmitrijs2005/giftdesk/internal/server/models"
	"github.com/dmitrijs2005/giftdesk/internal/server/services"
	"github.com/urfave/cli/v2"
)

type employeeAdmin interface {
	Add(ctx context.Context, in services.NewEmployee) (*models.Employee, error)
	Unlock(ctx context.Context, employeeID string) error
}

// runner is what the commands need from a server.App.
type runner interface {
	Run(ctx context.Context) error
	Migrate(ctx context.Context) error
	Employees() employeeAdmin
	Close() error
}

type appRunner struct {
	*server.App
}

func (a appRunner) Employees() employeeAdmin { return a.Admin() }

// newRunner is a seam for tests.
var newRunner = func(ctx context.Context, c *config.Config, l logging.Logger, out io.Writer) (runner, error) {
	app, err := server.NewApp(ctx, c, l, out)
	if err != nil {
		return nil, err
	}
	return appRunner{app}, nil
}

// App creates the CLI application. Output goes to out.
func App(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "giftdesk-server",
		Usage:     "Employee gifting storefront authentication server",
		Version:   buildinfo.String(),
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			employeeCommand(),
		},
	}
}

// serveCommand hands its raw arguments to config.Load, which owns the
// short server flags (-a, -d, -c, ...).
func serveCommand() *cli.Command {
	return &cli.Command{
		Name:            "serve",
		Usage:           "Run the HTTP API (flags: -c file -a addr -d dsn -t ttl -n attempts -p policy -m minutes -o minutes -v level)",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			return withApp(c, c.Args().Slice(), func(app runner) error {
				return app.Run(c.Context)
			})
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:            "migrate",
		Usage:           "Apply database migrations and exit",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			return withApp(c, c.Args().Slice(), func(app runner) error {
				if err := app.Migrate(c.Context); err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, "migrations applied")
				return nil
			})
		},
	}
}

func connectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "dsn", Aliases: []string{"d"}, Usage: "PostgreSQL DSN", EnvVars: []string{"GIFTDESK_DATABASE_DSN"}},
	}
}

// configArgs rebuilds the short-flag form config.Load understands.
func configArgs(c *cli.Context) []string {
	var args []string
	if v := c.String("config"); v != "" {
		args = append(args, "-c", v)
	}
	if v := c.String("dsn"); v != "" {
		args = append(args, "-d", v)
	}
	return args
}

func employeeCommand() *cli.Command {
	return &cli.Command{
		Name:  "employee",
		Usage: "Manage the employee directory",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Enroll an employee",
				Flags: append(connectionFlags(),
					&cli.StringFlag{Name: "id", Usage: "employee identifier", Required: true},
					&cli.StringFlag{Name: "first", Usage: "first name", Required: true},
					&cli.StringFlag{Name: "last", Usage: "last name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "address for one-time codes"},
					&cli.IntFlag{Name: "birth-year", Usage: "year of birth", Required: true},
					&cli.Int64Flag{Name: "points", Usage: "initial points balance"},
				),
				Action: func(c *cli.Context) error {
					return withApp(c, configArgs(c), func(app runner) error {
						e, err := app.Employees().Add(c.Context, services.NewEmployee{
							EmployeeID:    c.String("id"),
							FirstName:     c.String("first"),
							LastName:      c.String("last"),
							Email:         c.String("email"),
							BirthYear:     c.Int("birth-year"),
							PointsBalance: c.Int64("points"),
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "employee %s enrolled\n", e.EmployeeID)
						return nil
					})
				},
			},
			{
				Name:  "unlock",
				Usage: "Clear the lockout of an employee",
				Flags: append(connectionFlags(),
					&cli.StringFlag{Name: "id", Usage: "employee identifier", Required: true},
				),
				Action: func(c *cli.Context) error {
					return withApp(c, configArgs(c), func(app runner) error {
						if err := app.Employees().Unlock(c.Context, c.String("id")); err != nil {
							return fmt.Errorf("unlock %s: %w", c.String("id"), err)
						}
						fmt.Fprintf(c.App.Writer, "employee %s unlocked\n", c.String("id"))
						return nil
					})
				},
			},
		},
	}
}

func withApp(c *cli.Context, args []string, fn func(app runner) error) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	app, err := newRunner(c.Context, cfg, logger, c.App.Writer)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}
