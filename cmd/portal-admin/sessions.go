package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/target/portal-auth/internal/adapters/devauth"
	"github.com/target/portal-auth/internal/bootstrap"
	domainauth "github.com/target/portal-auth/internal/domain/auth"
	"github.com/target/portal-auth/internal/observability/diagnostics"
	"github.com/target/portal-auth/internal/ports"
	"github.com/target/portal-auth/internal/service"
)

const commandTimeout = 30 * time.Second

var errAborted = errors.New("aborted")

type sessionOptions struct {
	Profile string
}

type seedOptions struct {
	sessionOptions
	Username    string
	DisplayName string
	Role        string
}

type clearOptions struct {
	sessionOptions
	Yes bool
}

func parseProfile(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", errors.New("-profile is required")
	}
	id, err := uuid.Parse(v)
	if err != nil || id.String() != v {
		return "", fmt.Errorf("-profile %q is not a canonical UUID", raw)
	}
	return v, nil
}

// writeFailures forwards to the configured diagnostics and remembers the
// first failed write, which the auth state recovers from but a command must report.
type writeFailures struct {
	next  ports.Diagnostics
	first error
}

func (w *writeFailures) ReportSessionFailure(ctx context.Context, f ports.SessionFailure) {
	w.next.ReportSessionFailure(ctx, f)
	if f.Op != ports.SessionOpLoad && w.first == nil {
		w.first = fmt.Errorf("%s %s: %w", f.Op, f.Key, f.Err)
	}
}

// withProfiles opens the configured backend and runs fn against a profile
// registry whose failures are reported to diagnostics.
func withProfiles(cmdCtx *commandContext, fn func(ctx context.Context, profiles *service.Profiles, failures *writeFailures) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, commandTimeout)
	defer cancel()

	open := cmdCtx.openRecords
	if open == nil {
		open = bootstrap.OpenRecordStore
	}
	records, err := open(ctx, bootstrap.RecordStoreConfig{
		Session:  cmdCtx.Config.Session,
		Postgres: cmdCtx.Config.Postgres,
		Redis:    cmdCtx.Config.Redis,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := records.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close record store failed", "error", cerr)
		}
	}()

	diag := cmdCtx.Diagnostics
	if diag == nil {
		diag = diagnostics.NewReporter(cmdCtx.Logger, nil)
	}
	failures := &writeFailures{next: diag}
	profiles := service.NewProfiles(service.ProfilesOptions{
		Records:     records.Store,
		Diagnostics: failures,
		KeyPrefix:   cmdCtx.Config.Session.KeyPrefix,
		Logger:      cmdCtx.Logger,
	})
	return fn(ctx, profiles, failures)
}

// resolvedState returns the profile's auth state once hydration has finished,
// so the transition that follows is the last write.
func resolvedState(ctx context.Context, profiles *service.Profiles, profile string) *service.AuthState {
	st := profiles.Get(ctx, profile)
	st.Hydrate(ctx)
	return st
}

func runShowSession(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("show-session", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Out)
	var opts sessionOptions
	fs.StringVar(&opts.Profile, "profile", "", "browser profile identifier (UUID)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	profile, err := parseProfile(opts.Profile)
	if err != nil {
		return err
	}

	return withProfiles(cmdCtx, func(ctx context.Context, profiles *service.Profiles, _ *writeFailures) error {
		store := profiles.Store(profile)
		res := store.Load(ctx)
		if err := writef(cmdCtx.Out, "Key:    %s\nStatus: %s\n", store.Key(), res.Status); err != nil {
			return fmt.Errorf("print session status: %w", err)
		}
		if res.Err != nil {
			if err := writef(cmdCtx.Out, "Error:  %v\n", res.Err); err != nil {
				return fmt.Errorf("print session error: %w", err)
			}
		}
		if res.Identity == nil {
			return nil
		}
		id := res.Identity
		if err := writef(cmdCtx.Out, "User:   %s (%s)\nRole:   %s\nAdmin:  %t\n",
			id.Username, id.DisplayName, id.Role, id.IsAdmin()); err != nil {
			return fmt.Errorf("print session identity: %w", err)
		}
		return nil
	})
}

func runSeedSession(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("seed-session", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Out)
	var opts seedOptions
	fs.StringVar(&opts.Profile, "profile", "", "browser profile identifier (UUID); minted when empty")
	fs.StringVar(&opts.Username, "username", "", "username to sign in as")
	fs.StringVar(&opts.DisplayName, "display-name", "", "display name (defaults to the dev directory entry)")
	fs.StringVar(&opts.Role, "role", "", "role: hr or admin (defaults to the dev directory entry)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	profile := strings.TrimSpace(opts.Profile)
	if profile == "" {
		profile = uuid.NewString()
	} else {
		var err error
		if profile, err = parseProfile(profile); err != nil {
			return err
		}
	}

	id, err := seedIdentity(cmdCtx.Config.Auth.DevAuth.Users, opts)
	if err != nil {
		return err
	}

	return withProfiles(cmdCtx, func(ctx context.Context, profiles *service.Profiles, failures *writeFailures) error {
		if err := resolvedState(ctx, profiles, profile).SignIn(ctx, id); err != nil {
			return err
		}
		if failures.first != nil {
			return failures.first
		}
		cmdCtx.Logger.Info("session seeded", "profile", profile, "username", id.Username, "role", id.Role)
		if err := writef(cmdCtx.Out, "Profile: %s\nSet cookie portal_profile=%s to use it.\n", profile, profile); err != nil {
			return fmt.Errorf("print seeded profile: %w", err)
		}
		return nil
	})
}

// seedIdentity fills missing fields from the dev directory entry with the same username.
func seedIdentity(directory string, opts seedOptions) (domainauth.Identity, error) {
	id := domainauth.Identity{
		Username:    strings.TrimSpace(opts.Username),
		DisplayName: strings.TrimSpace(opts.DisplayName),
		Role:        domainauth.Role(strings.ToLower(strings.TrimSpace(opts.Role))),
	}
	if id.Username == "" {
		return domainauth.Identity{}, errors.New("-username is required")
	}

	if id.Role == "" || id.DisplayName == "" {
		users, err := devauth.ParseDirectory(directory)
		if err != nil {
			return domainauth.Identity{}, fmt.Errorf("parse dev auth users: %w", err)
		}
		for _, u := range users {
			if u.Username != id.Username {
				continue
			}
			if id.Role == "" {
				id.Role = u.Role
			}
			if id.DisplayName == "" {
				id.DisplayName = u.DisplayName
			}
		}
	}

	if err := id.Validate(); err != nil {
		return domainauth.Identity{}, err
	}
	return id, nil
}

func runClearSession(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("clear-session", flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Out)
	var opts clearOptions
	fs.StringVar(&opts.Profile, "profile", "", "browser profile identifier (UUID)")
	fs.BoolVar(&opts.Yes, "yes", false, "skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	profile, err := parseProfile(opts.Profile)
	if err != nil {
		return err
	}
	if !opts.Yes {
		if err := confirm(cmdCtx.Out, cmdCtx.In, "About to delete the session record for "+profile+"."); err != nil {
			return err
		}
	}

	return withProfiles(cmdCtx, func(ctx context.Context, profiles *service.Profiles, failures *writeFailures) error {
		resolvedState(ctx, profiles, profile).SignOut(ctx)
		if failures.first != nil {
			return failures.first
		}
		cmdCtx.Logger.Info("session cleared", "profile", profile, "key", profiles.KeyFor(profile))
		return nil
	})
}

func runNewProfile(cmdCtx *commandContext, _ []string) error {
	if err := writef(cmdCtx.Out, "%s\n", uuid.NewString()); err != nil {
		return fmt.Errorf("print profile: %w", err)
	}
	return nil
}

func confirm(out io.Writer, in io.Reader, message string) error {
	if err := writef(out, "%s\nContinue? [y/N]: ", message); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	if in == nil {
		return errAborted
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
