package schema

import (
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/litescope/litescope/core/errors"
)

// Column describes one column of a CREATE TABLE statement.
type Column struct {
	Name          string
	Type          string
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       string
}

// TableDef is the parsed shape of a CREATE TABLE statement.
type TableDef struct {
	Name    string
	Columns []Column
}

// ParseCreateTable parses the SQL text of a schema row into a table
// definition. Parsing is best effort: the statement is normalized from
// SQLite spellings into the dialect the parser accepts, and statements
// that still do not parse are reported as errors rather than guessed at.
func ParseCreateTable(sql string) (*TableDef, error) {
	stmt, err := sqlparser.Parse(normalizeDDL(sql))
	if err != nil {
		return nil, errors.Wrap(err, "parse create statement")
	}

	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != sqlparser.CreateStr {
		return nil, errors.Wrap(errors.ErrUnsupported, "not a CREATE TABLE statement")
	}
	if ddl.TableSpec == nil {
		return nil, errors.Wrap(errors.ErrUnsupported, "no column list in CREATE TABLE")
	}

	name := ddl.NewName.Name.String()
	if name == "" {
		name = ddl.Table.Name.String()
	}

	def := &TableDef{Name: name}
	for _, col := range ddl.TableSpec.Columns {
		def.Columns = append(def.Columns, parseColumn(col))
	}

	// Table-level PRIMARY KEY constraints arrive as an index entry.
	for _, idx := range ddl.TableSpec.Indexes {
		if idx.Info == nil || !idx.Info.Primary {
			continue
		}
		for _, idxCol := range idx.Columns {
			if c := def.column(idxCol.Column.String()); c != nil {
				c.PrimaryKey = true
			}
		}
	}

	return def, nil
}

// PrimaryKey returns the names of the primary key columns in declaration
// order, or nil when the table has none.
func (d *TableDef) PrimaryKey() []string {
	var keys []string
	for _, c := range d.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

func (d *TableDef) column(name string) *Column {
	for i := range d.Columns {
		if strings.EqualFold(d.Columns[i].Name, name) {
			return &d.Columns[i]
		}
	}
	return nil
}

func parseColumn(col *sqlparser.ColumnDefinition) Column {
	c := Column{
		Name:          col.Name.String(),
		Type:          strings.ToUpper(col.Type.Type),
		NotNull:       bool(col.Type.NotNull),
		AutoIncrement: bool(col.Type.Autoincrement),
	}

	if col.Type.Length != nil {
		c.Type += "(" + string(col.Type.Length.Val)
		if col.Type.Scale != nil {
			c.Type += "," + string(col.Type.Scale.Val)
		}
		c.Type += ")"
	}

	if col.Type.Default != nil {
		c.Default = sqlparser.String(col.Type.Default)
	}

	// A column-level PRIMARY KEY lands in an unexported key option; the
	// rendered type is the only place it surfaces.
	if strings.HasSuffix(sqlparser.String(&col.Type), " primary key") {
		c.PrimaryKey = true
	}

	return c
}

var (
	pkAutoincRe = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\s+AUTOINCREMENT\b`)
	autoincRe   = regexp.MustCompile(`(?i)\bAUTOINCREMENT\b`)
)

// normalizeDDL rewrites SQLite spellings the MySQL-dialect parser does
// not accept: double-quoted and bracketed identifiers become backticked,
// AUTOINCREMENT becomes AUTO_INCREMENT (and moves ahead of PRIMARY KEY,
// where the grammar wants it), and trailing table options are dropped.
func normalizeDDL(sql string) string {
	s := stripTableOptions(strings.TrimSpace(sql))
	s = requoteIdentifiers(s)
	s = pkAutoincRe.ReplaceAllString(s, "AUTO_INCREMENT PRIMARY KEY")
	s = autoincRe.ReplaceAllString(s, "AUTO_INCREMENT")
	return s
}

// requoteIdentifiers maps " [ ] to backticks outside single-quoted
// string literals.
func requoteIdentifiers(s string) string {
	out := make([]byte, 0, len(s))
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			out = append(out, c)
			if c == '\'' {
				inStr = false
			}
			continue
		}
		switch c {
		case '\'':
			inStr = true
			out = append(out, c)
		case '"', '[', ']':
			out = append(out, '`')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func stripTableOptions(s string) string {
	for {
		t := strings.TrimRight(strings.TrimSpace(s), " \t\r\n,;")
		u := strings.ToUpper(t)
		switch {
		case strings.HasSuffix(u, "WITHOUT ROWID"):
			s = t[:len(t)-len("WITHOUT ROWID")]
		case strings.HasSuffix(u, "STRICT"):
			s = t[:len(t)-len("STRICT")]
		default:
			return t
		}
	}
}
