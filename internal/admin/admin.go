// Package admin implements plannerctl, the operator tool that runs the
// authentication flow directly against the database: creating principals,
// revoking every session of a principal and sweeping expired refresh tokens.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// AuthOps is the part of the authentication flow plannerctl drives.
type AuthOps interface {
	Register(ctx context.Context, subject, password string) (string, error)
	LogoutAll(ctx context.Context, subject string) (int64, error)
}

// Sweeper deletes expired refresh tokens.
type Sweeper interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type App struct {
	auth    AuthOps
	sweeper Sweeper
	in      *bufio.Reader
	out     io.Writer
}

func NewApp(a AuthOps, s Sweeper, in io.Reader, out io.Writer) *App {
	return &App{auth: a, sweeper: s, in: bufio.NewReader(in), out: out}
}

var errUsage = errors.New("usage")

// Run executes one command. args excludes the program name.
func (a *App) Run(ctx context.Context, args []string) error {
	global := pflag.NewFlagSet("plannerctl", pflag.ContinueOnError)
	global.SetOutput(io.Discard)
	global.SetInterspersed(false)
	// -c is consumed by the config loader; it is declared so parsing
	// does not trip on it.
	global.StringP("config", "c", "", "path to a JSON config file")
	global.BoolP("help", "h", false, "show help")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			a.printHelp()
			return nil
		}
		return err
	}
	if help, _ := global.GetBool("help"); help {
		a.printHelp()
		return nil
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.printHelp()
		return errUsage
	}

	switch rest[0] {
	case "register":
		return a.register(ctx, rest[1:])
	case "revoke-all":
		return a.revokeAll(ctx, rest[1:])
	case "sweep":
		return a.sweep(ctx)
	case "help":
		a.printHelp()
		return nil
	default:
		a.printHelp()
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.StringP("username", "u", "", "username of the new principal")
	fromStdin := fs.Bool("password-stdin", false, "read the password from standard input")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("%w: register --username NAME", errUsage)
	}

	password, err := a.password(*fromStdin)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	id, err := a.auth.Register(ctx, *username, password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", *username, id)
	return nil
}

func (a *App) revokeAll(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("revoke-all", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.StringP("username", "u", "", "principal whose sessions are revoked")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("%w: revoke-all --username NAME", errUsage)
	}

	n, err := a.auth.LogoutAll(ctx, *username)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "revoked %d refresh token(s) of %s\n", n, *username)
	return nil
}

func (a *App) sweep(ctx context.Context) error {
	n, err := a.sweeper.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "removed %d expired refresh token(s)\n", n)
	return nil
}

func (a *App) password(fromStdin bool) (string, error) {
	if fromStdin {
		line, err := a.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(a.out, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer clear(pw)
	return string(pw), nil
}

// describe turns flow errors into operator-facing messages.
func describe(err error) error {
	var ae *common.AuthError
	if errors.As(err, &ae) && ae.Kind == common.KindWeakPassword && ae.Reason != "" {
		return fmt.Errorf("weak password: %s", ae.Reason)
	}
	switch common.KindOf(err) {
	case common.KindDuplicateSubject:
		return errors.New("username already registered")
	case common.KindInvalidCredentials:
		return errors.New("invalid username")
	default:
		return err
	}
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `plannerctl manages myplanner principals directly against the database.

Usage:
  plannerctl [-c config.json] <command> [flags]

Commands:
  register   --username NAME [--password-stdin]   create a principal
  revoke-all --username NAME                      revoke every refresh token of a principal
  sweep                                           delete expired refresh tokens

The database and token settings come from the same config file and
MYPLANNER_* environment variables as the server.
`)
}

// IsUsage reports whether err was a command-line usage mistake.
func IsUsage(err error) bool {
	return errors.Is(err, errUsage)
}
