package cli

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/AndreyAkinshin/goldtest/internal/errors"
	"github.com/AndreyAkinshin/goldtest/pkg/dbsnap"
	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// dbOptions holds the connection flags of the db commands.
type dbOptions struct {
	driver string
	dsn    string
	tables []string
}

func newDBCmd(a *app) *cobra.Command {
	var opts dbOptions
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Dump and restore database tables as golds",
		Long: `Dump database tables to one gold file per table and restore them again.
Rows are ordered by primary key. Restore empties every table first and
retries inserts until foreign key order is satisfied.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.driver, "driver", "", "database driver: sqlite or postgres (default from configuration)")
	pf.StringVar(&opts.dsn, "dsn", "", "data source name (default from configuration)")
	pf.StringSliceVar(&opts.tables, "table", nil, "table to include, repeatable (default: configured tables, or all)")

	cmd.AddCommand(newDBDumpCmd(a, &opts), newDBRestoreCmd(a, &opts))
	return cmd
}

func newDBDumpCmd(a *app, opts *dbOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:     "dump",
		Short:   "Write every table to a gold file",
		Example: example("dump", "a test database", "goldtest db dump --dsn test.db --out testdata/db"),
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDBDump(cmd.Context(), opts, out)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "directory for table golds (default: database.dir)")
	return cmd
}

func newDBRestoreCmd(a *app, opts *dbOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "restore [dir]",
		Short:   "Load table golds back into the database",
		Example: example("restore", "a test database from its golds", "goldtest db restore --dsn test.db testdata/db"),
		Args:    usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runDBRestore(cmd.Context(), opts, dir)
		},
	}
}

func (a *app) runDBDump(ctx context.Context, opts *dbOptions, out string) error {
	snap, db, err := a.openSnapshotter(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	tables, err := a.tables(opts)
	if err != nil {
		return err
	}
	data, err := snap.Dump(ctx, tables...)
	if err != nil {
		return err
	}

	codec, err := a.codec()
	if err != nil {
		return err
	}
	dir, err := a.tablesDir(out)
	if err != nil {
		return err
	}
	store := gold.NewDirStore(dir)

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		text, err := codec.Encode(data[name])
		if err != nil {
			return fmt.Errorf("encode table %s: %w", name, err)
		}
		if err := store.WriteFile(name+gold.FileExtension, text); err != nil {
			return err
		}
		a.logger.Debug("dumped table", "table", name, "rows", len(data[name]))
	}
	a.out.Info("Dumped %s to %s", plural(len(names), "table"), a.rel(dir))
	return nil
}

func (a *app) runDBRestore(ctx context.Context, opts *dbOptions, src string) error {
	codec, err := a.codec()
	if err != nil {
		return err
	}
	tables, err := a.tables(opts)
	if err != nil {
		return err
	}
	dir, err := a.tablesDir(src)
	if err != nil {
		return err
	}
	store := gold.NewDirStore(dir)
	files, err := store.Files()
	if err != nil {
		return err
	}

	data := make(map[string][]map[string]any)
	for _, f := range files {
		if strings.Contains(f, "/") {
			continue
		}
		table := strings.TrimSuffix(f, gold.FileExtension)
		if len(tables) > 0 && !slices.Contains(tables, table) {
			continue
		}
		text, err := store.ReadFile(f)
		if err != nil {
			return err
		}
		tree, err := decodeText(codec, f, text)
		if err != nil {
			return err
		}
		rows, err := dbsnap.Rows(tree)
		if err != nil {
			return errors.Configf("%s: %v", f, err)
		}
		data[table] = rows
	}
	if len(data) == 0 {
		return errors.NotFound("table golds", a.rel(dir))
	}

	snap, db, err := a.openSnapshotter(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := snap.Restore(ctx, data); err != nil {
		return err
	}
	a.out.Info("Restored %s from %s", plural(len(data), "table"), a.rel(dir))
	return nil
}

// openSnapshotter connects to the database named by flags or configuration.
func (a *app) openSnapshotter(ctx context.Context, opts *dbOptions) (*dbsnap.Snapshotter, *sql.DB, error) {
	proj, err := a.project()
	if err != nil {
		return nil, nil, err
	}

	driver := firstNonEmpty(opts.driver, proj.Config.Database.Driver)
	dsn := firstNonEmpty(opts.dsn, proj.Config.Database.DSN)
	if dsn == "" {
		return nil, nil, errors.Config("no database to connect to: pass --dsn or set database.dsn")
	}
	dialect, err := dbsnap.ParseDialect(driver)
	if err != nil {
		return nil, nil, errors.Config(err.Error())
	}

	name := driverName(dialect)
	if !slices.Contains(sql.Drivers(), name) {
		return nil, nil, errors.Environmentf("database driver %q is not available in this build", name)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, nil, errors.Environmentf("failed to open database: %v", err)
	}
	if dialect == dbsnap.SQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Environmentf("failed to connect to database: %v", err)
	}
	a.logger.Debug("connected to database", "driver", name)
	return dbsnap.New(db, dialect, dbsnap.WithLogger(a.logger)), db, nil
}

// tables returns the tables selected by flags or configuration; nil means
// every table.
func (a *app) tables(opts *dbOptions) ([]string, error) {
	if len(opts.tables) > 0 {
		return opts.tables, nil
	}
	proj, err := a.project()
	if err != nil {
		return nil, err
	}
	return proj.Config.Database.Tables, nil
}

// tablesDir resolves the directory of table golds.
func (a *app) tablesDir(dir string) (string, error) {
	if dir != "" {
		return a.abs(dir), nil
	}
	proj, err := a.project()
	if err != nil {
		return "", err
	}
	return proj.DatabaseDir(), nil
}

// driverName returns the database/sql driver registered for a dialect.
func driverName(d dbsnap.Dialect) string {
	if d == dbsnap.Postgres {
		return "postgres"
	}
	return "sqlite"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
