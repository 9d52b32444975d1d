// Command litescope inspects SQLite database files by decoding the file
// format directly, without loading them into a database engine.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/litescope/litescope/core/errors"
	"github.com/litescope/litescope/core/inspect"
	"github.com/litescope/litescope/core/pager"
	"github.com/litescope/litescope/core/schema"
	"github.com/litescope/litescope/internal/config"
	"github.com/litescope/litescope/internal/logging"
)

const version = "0.1.0"

// CLI defines the command-line interface for litescope. Commands are
// dispatched by name rather than as kong subcommands so that flags after
// the database path (".pageinfo --cells") reach the command untouched.
var CLI struct {
	LogLevel  string           `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string           `name:"log-format" help:"Log format (text, json)"`
	Version   kong.VersionFlag `name:"version" help:"Print version information and quit"`

	Database string   `arg:"" help:"Path to database file"`
	Command  []string `arg:"" optional:"" passthrough:"" help:"Command (.dbinfo, .tables, .schema, .columns, .pageinfo, .digest, version) and its arguments"`
}

// DBInfoCmd prints the page size and schema entry count from the first page.
type DBInfoCmd struct {
	Database string
	Options  inspect.Options
}

func (c *DBInfoCmd) Run() error {
	db, err := inspect.Open(c.Database, c.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	info, err := db.Info()
	if err != nil {
		return err
	}

	fmt.Printf("database page size: %d\n", info.PageSize)
	fmt.Printf("number of tables: %d\n", info.NumTables)
	return nil
}

// TablesCmd lists table names from the schema on the first page.
type TablesCmd struct {
	Database string
	Options  inspect.Options
}

func (c *TablesCmd) Run() error {
	db, err := inspect.Open(c.Database, c.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := db.Tables()
	if err != nil {
		return err
	}

	for _, name := range tables {
		fmt.Println(name)
	}
	return nil
}

// SchemaCmd prints stored CREATE statements, optionally for one table.
type SchemaCmd struct {
	Database string
	Options  inspect.Options
	Table    string
}

func (c *SchemaCmd) Run() error {
	db, err := inspect.Open(c.Database, c.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	statements, err := db.CreateSQL(c.Table)
	if err != nil {
		return err
	}

	for _, stmt := range statements {
		fmt.Printf("%s;\n", stmt)
	}
	return nil
}

// ColumnsCmd prints the parsed column list of one table's CREATE statement.
type ColumnsCmd struct {
	Database string
	Options  inspect.Options
	Table    string
}

func (c *ColumnsCmd) Run() error {
	db, err := inspect.Open(c.Database, c.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	def, err := db.Columns(c.Table)
	if err != nil {
		return err
	}

	for _, col := range def.Columns {
		fmt.Println(formatColumn(col))
	}
	return nil
}

func formatColumn(col schema.Column) string {
	parts := []string{col.Name}
	if col.Type != "" {
		parts = append(parts, col.Type)
	}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTOINCREMENT")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != "" {
		parts = append(parts, "DEFAULT "+col.Default)
	}
	return strings.Join(parts, " ")
}

// PageInfoCmd prints the decoded file header and page-1 b-tree header.
type PageInfoCmd struct {
	Database string
	Options  inspect.Options
	Cells    bool
}

func (c *PageInfoCmd) Run() error {
	db, err := inspect.Open(c.Database, c.Options)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.PageInfo(c.Cells)
	if err != nil {
		return err
	}

	if comp := db.Compression(); comp != pager.CompressionNone {
		fmt.Printf("Compression: %s\n", comp)
	}

	fh := report.Header
	fmt.Println("File header:")
	fmt.Printf("  Page size: %d", fh.GetPageSize())
	if fh.PageSize == 1 {
		fmt.Printf(" (stored as 1)")
	}
	fmt.Println()
	fmt.Printf("  Write format: %d\n", fh.FileFormatWrite)
	fmt.Printf("  Read format: %d\n", fh.FileFormatRead)
	fmt.Printf("  Reserved space: %d\n", fh.ReservedSpace)
	fmt.Printf("  Change counter: %d\n", fh.FileChangeCounter)
	fmt.Printf("  Database size: %d pages\n", fh.DatabaseSize)
	fmt.Printf("  Freelist: trunk page %d, %d pages\n", fh.FreelistTrunk, fh.FreelistCount)
	fmt.Printf("  Schema cookie: %d\n", fh.SchemaCookie)
	fmt.Printf("  Schema format: %d\n", fh.SchemaFormat)
	fmt.Printf("  Default cache size: %d\n", fh.DefaultCacheSize)
	fmt.Printf("  Text encoding: %s\n", encodingName(fh.TextEncoding))
	fmt.Printf("  User version: %d\n", fh.UserVersion)
	fmt.Printf("  Application ID: %d\n", fh.ApplicationID)
	fmt.Printf("  SQLite version: %d\n", fh.SQLiteVersion)

	ph := report.Page
	fmt.Println("Page 1:")
	fmt.Printf("  Type: %s\n", ph.TypeName())
	fmt.Printf("  Cells: %d\n", ph.NumCells)
	fmt.Printf("  Content start: %d\n", ph.CellContentStart)
	fmt.Printf("  First freeblock: %d\n", ph.FirstFreeblock)
	fmt.Printf("  Fragmented bytes: %d\n", ph.FragmentedBytes)

	if c.Cells {
		fmt.Println("Cells:")
		for i, ptr := range report.Pointers {
			cell := report.Cells[i]
			if cell == nil {
				fmt.Printf("  [%d] pointer=%d unreadable\n", i, ptr)
				continue
			}
			fmt.Printf("  [%d] pointer=%d rowid=%d payload=%d\n", i, ptr, cell.RowID, cell.PayloadSize)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, warn := range report.Warnings {
			fmt.Printf("  - %s\n", warn)
		}
	}
	return nil
}

func encodingName(enc uint32) string {
	switch enc {
	case pager.EncodingUTF8:
		return "UTF-8"
	case pager.EncodingUTF16LE:
		return "UTF-16le"
	case pager.EncodingUTF16BE:
		return "UTF-16be"
	}
	return fmt.Sprintf("unknown (%d)", enc)
}

// DigestCmd prints the BLAKE3-256 digest of the file's stored bytes.
type DigestCmd struct {
	Database string
}

func (c *DigestCmd) Run() error {
	digest, err := inspect.Digest(c.Database)
	if err != nil {
		return err
	}
	fmt.Println(digest)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("litescope version %s\n", version)
	return nil
}

// dispatch validates the command line and runs the named command.
// Argument errors are decided here, before any file is opened.
func dispatch(database string, args []string, opts inspect.Options) error {
	if len(args) == 0 {
		return errors.NewUsage("missing command")
	}
	command, rest := args[0], args[1:]

	switch command {
	case ".dbinfo":
		if len(rest) != 0 {
			return errors.NewUsage(".dbinfo takes no arguments")
		}
		return (&DBInfoCmd{Database: database, Options: opts}).Run()

	case ".tables":
		if len(rest) != 0 {
			return errors.NewUsage(".tables takes no arguments")
		}
		return (&TablesCmd{Database: database, Options: opts}).Run()

	case ".schema":
		if len(rest) > 1 {
			return errors.NewUsage(".schema takes at most one table name")
		}
		table := ""
		if len(rest) == 1 {
			table = rest[0]
		}
		return (&SchemaCmd{Database: database, Options: opts, Table: table}).Run()

	case ".columns":
		if len(rest) != 1 {
			return errors.NewUsage(".columns requires exactly one table name")
		}
		return (&ColumnsCmd{Database: database, Options: opts, Table: rest[0]}).Run()

	case ".pageinfo":
		cells := false
		for _, arg := range rest {
			if arg != "--cells" {
				return errors.NewUsage(fmt.Sprintf("unknown .pageinfo argument: %s", arg))
			}
			cells = true
		}
		return (&PageInfoCmd{Database: database, Options: opts, Cells: cells}).Run()

	case ".digest":
		if len(rest) != 0 {
			return errors.NewUsage(".digest takes no arguments")
		}
		return (&DigestCmd{Database: database}).Run()

	case "version":
		if len(rest) != 0 {
			return errors.NewUsage("version takes no arguments")
		}
		return (&VersionCmd{}).Run()
	}

	return errors.NewUsage(fmt.Sprintf("unknown command: %s", command))
}

func run() error {
	cfg := config.Load()
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.LogFormat = CLI.LogFormat
	}
	logging.InitLogger(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	logging.DebugContext(ctx, "dispatching command", "database", CLI.Database, "args", CLI.Command)

	opts := inspect.Options{
		CacheBlocks: cfg.CacheBlocks,
		MaxCells:    cfg.MaxCells,
	}
	err := dispatch(CLI.Database, CLI.Command, opts)
	if err != nil {
		logging.DebugContext(ctx, "command failed", "error", err)
	}
	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("litescope"),
		kong.Description("Inspect SQLite database files without executing SQL"),
		kong.UsageOnError(),
		kong.Vars{"version": "litescope version " + version},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := run()
	ctx.FatalIfErrorf(err)
}
