package sysinstall

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tsukumogami/toolstrap/internal/install"
	"github.com/tsukumogami/toolstrap/internal/log"
	"github.com/tsukumogami/toolstrap/internal/platform"
	"github.com/tsukumogami/toolstrap/internal/shellrc"
	"github.com/tsukumogami/toolstrap/internal/sysexec"
)

// HBABackupSuffix is appended to pg_hba.conf for the one-time backup.
const HBABackupSuffix = ".toolstrap.bak"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Postgres installs the PostgreSQL server, creates a login role and
// database for the user, and allows password logins from localhost.
type Postgres struct {
	d Deps
	// Check connects with dsn after install. Nil skips the check.
	Check func(ctx context.Context, dsn string) error
}

// NewPostgres returns the PostgreSQL installer using pgx for the
// post-install check.
func NewPostgres(d Deps) *Postgres { return &Postgres{d: d, Check: PingDatabase} }

func (p *Postgres) Name() string        { return "postgres" }
func (p *Postgres) DisplayName() string { return "PostgreSQL" }

// Packages returns the server packages and optional extras for family.
// major selects a versioned package where the distribution offers one.
func Packages(family, major string) (pkgs, deps []string) {
	switch family {
	case platform.FamilyDebian:
		if major != "" {
			return []string{"postgresql-" + major}, []string{"postgresql-contrib"}
		}
		return []string{"postgresql"}, []string{"postgresql-contrib"}
	case platform.FamilyRHEL:
		return []string{"postgresql-server"}, []string{"postgresql-contrib"}
	case platform.FamilyArch:
		return []string{"postgresql"}, nil
	case platform.FamilyAlpine:
		if major != "" {
			return []string{"postgresql" + major}, []string{"postgresql" + major + "-contrib"}
		}
		return []string{"postgresql"}, []string{"postgresql-contrib"}
	case platform.FamilySUSE:
		if major != "" {
			return []string{"postgresql" + major + "-server"}, []string{"postgresql" + major + "-contrib"}
		}
		return []string{"postgresql-server"}, []string{"postgresql-contrib"}
	}
	return nil, nil
}

// Install runs the steps in order. Roles and databases that already
// exist are warnings, so re-running is safe.
func (p *Postgres) Install(ctx context.Context) (*Report, error) {
	d := p.d
	s := d.Settings
	logger := log.OrDefault(d.Logger)
	family := d.Profile.Family()
	r := &Report{Tool: p.Name(), Display: p.DisplayName(), Family: family}

	if !identifier.MatchString(s.PGUser) {
		return nil, fmt.Errorf("invalid database role name %q", s.PGUser)
	}
	if !identifier.MatchString(s.PGDatabase) {
		return nil, fmt.Errorf("invalid database name %q", s.PGDatabase)
	}
	pkgs, deps := Packages(family, s.Version)
	if s.Version != "" && family == platform.FamilyRHEL {
		logger.Warn("Versioned packages are not selected on this family, installing the default stream", "version", s.Version)
	}
	if err := installPackages(ctx, d, r, pkgs, deps); err != nil {
		return nil, err
	}

	if err := p.initCluster(ctx, family, r); err != nil {
		return nil, err
	}
	if err := enableAndStart(ctx, d, r, "postgresql"); err != nil {
		return nil, err
	}

	if s.SkipUser {
		logger.Info("Skipping role and database creation")
	} else if err := p.createRole(ctx, r); err != nil {
		return nil, err
	}

	if err := p.allowLocalPasswordLogin(ctx, r); err != nil {
		return nil, err
	}

	if p.Check != nil && d.Settings.PGPassword() != "" && !s.SkipUser {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := p.Check(checkCtx, DSN(s.PGUser, d.Settings.PGPassword(), s.PGDatabase)); err != nil {
			logger.Warn("Could not connect to the new database", "error", err)
			r.warn("connection check failed: " + err.Error())
		} else {
			r.step(fmt.Sprintf("connected to %s as %s", s.PGDatabase, s.PGUser))
		}
	}
	return r, nil
}

func (p *Postgres) initCluster(ctx context.Context, family string, r *Report) error {
	var c sysexec.Command
	switch family {
	case platform.FamilyRHEL:
		c = sysexec.Command{Name: "postgresql-setup", Args: []string{"--initdb"}, Root: true}
	case platform.FamilyArch:
		c = sysexec.Command{Name: "initdb", Args: []string{"-D", "/var/lib/postgres/data"}, AsUser: "postgres"}
	case platform.FamilyAlpine:
		c = sysexec.Command{Name: "rc-service", Args: []string{"postgresql", "setup"}, Root: true}
	default:
		return nil
	}
	c.Policy = sysexec.IgnoreExpected
	c.Expected = []string{"already", "is not empty"}
	res, err := p.d.Runner.Run(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to initialise the database cluster: %w", err)
	}
	if res.OK() {
		r.step("database cluster initialised")
	}
	return nil
}

func (p *Postgres) createRole(ctx context.Context, r *Report) error {
	s := p.d.Settings
	password := s.PGPassword()

	stmt := fmt.Sprintf("CREATE ROLE %s LOGIN", s.PGUser)
	if password != "" {
		stmt += " PASSWORD " + quoteLiteral(password)
	}
	var redact []string
	if password != "" {
		redact = []string{password, quoteLiteral(password)}
	}
	res, err := p.d.Runner.Run(ctx, sysexec.Command{
		Name:     "psql",
		Args:     []string{"-v", "ON_ERROR_STOP=1", "-c", stmt},
		AsUser:   "postgres",
		Policy:   sysexec.IgnoreExpected,
		Expected: sysexec.AlreadyExists,
		Redact:   redact,
	})
	if err != nil {
		return fmt.Errorf("failed to create role %s: %w", s.PGUser, err)
	}
	if res.OK() {
		r.step("role " + s.PGUser + " created")
	} else {
		r.warn("role " + s.PGUser + " already exists")
	}

	res, err = p.d.Runner.Run(ctx, sysexec.Command{
		Name:     "createdb",
		Args:     []string{"-O", s.PGUser, s.PGDatabase},
		AsUser:   "postgres",
		Policy:   sysexec.IgnoreExpected,
		Expected: sysexec.AlreadyExists,
	})
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", s.PGDatabase, err)
	}
	if res.OK() {
		r.step("database " + s.PGDatabase + " created")
	} else {
		r.warn("database " + s.PGDatabase + " already exists")
	}
	return nil
}

// HBALine is the pg_hba.conf entry allowing user to log in with a
// password over IPv4 localhost.
func HBALine(user string) string {
	return fmt.Sprintf("host all %s 127.0.0.1/32 scram-sha-256", user)
}

// allowLocalPasswordLogin locates pg_hba.conf, backs it up once and
// ensures the HBALine is present. The server is reloaded only when the
// file changed.
func (p *Postgres) allowLocalPasswordLogin(ctx context.Context, r *Report) error {
	d := p.d
	hba, err := d.Runner.Output(ctx, sysexec.Command{Name: "psql", Args: []string{"-tAc", "SHOW hba_file"}, AsUser: "postgres"})
	if err != nil {
		return fmt.Errorf("failed to locate pg_hba.conf: %w", err)
	}
	if hba == "" || !strings.HasPrefix(hba, "/") {
		return fmt.Errorf("unexpected hba_file location %q", hba)
	}

	fs := install.ForPath(hba, "", d.Runner)
	backup := hba + HBABackupSuffix
	if _, err := fs.ReadFile(ctx, backup); errors.Is(err, iofs.ErrNotExist) {
		if err := fs.CopyFile(ctx, hba, backup); err != nil {
			return fmt.Errorf("failed to back up %s: %w", hba, err)
		}
		r.step("backed up " + hba + " to " + backup)
	} else if err != nil {
		return fmt.Errorf("failed to check %s: %w", backup, err)
	}

	m := &shellrc.Mutator{FS: fs, Logger: d.Logger, InsertBefore: isHostRule}
	res, err := m.Ensure(ctx, hba, []string{HBALine(d.Settings.PGUser)})
	if err != nil {
		return err
	}
	if len(res.Added) == 0 {
		r.step("pg_hba.conf already allows " + d.Settings.PGUser)
		return nil
	}
	r.step("pg_hba.conf allows " + d.Settings.PGUser + " from 127.0.0.1")
	return d.Profile.ReloadService(ctx, "postgresql")
}

// isHostRule matches pg_hba.conf TCP rules. PostgreSQL applies the first
// matching rule, so ours must precede the distribution's host entries.
func isHostRule(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "host", "hostssl", "hostnossl", "hostgssenc", "hostnogssenc":
		return true
	}
	return false
}

// DSN builds a localhost connection string.
func DSN(user, password, database string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     "127.0.0.1:5432",
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// PingDatabase opens a pgx pool for dsn and pings it.
func PingDatabase(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	return pool.Ping(ctx)
}

// quoteLiteral quotes s as an SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
