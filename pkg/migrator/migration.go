package migrator

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Status of a migration against its database.
type Status int

const (
	StatusPending Status = iota
	StatusExecuted
)

func (s Status) String() string {
	if s == StatusExecuted {
		return "executed"
	}
	return "pending"
}

// State is what the database knows about a migration.
type State struct {
	Name         string
	Status       Status
	TimeCreated  time.Time
	TimeExecuted time.Time
}

// Migration represents a single migration file.
type Migration struct {
	// Filename is the path to the migration file.
	Filename string

	// Name is the descriptive part of the filename, e.g. "CreateUsers".
	Name string

	// Created is the timestamp encoded in the filename.
	Created time.Time

	// Counter separates migrations sharing a name.
	Counter int

	// Namespace, ID and Database come from the file header. An empty
	// Database is the default database.
	Namespace string
	ID        string
	Database  string

	Up   string
	Down string

	// Md5 is the MD5 checksum of the migration file.
	Md5 string

	state State
}

// Key identifies the migration in the migrations table: the file name without
// its extension.
func (m *Migration) Key() string {
	return fmt.Sprintf("%s_0_%d_%s", m.Created.UTC().Format(timestampLayout), m.Counter, m.Name)
}

// State returns the last known state of the migration.
func (m *Migration) State() State {
	s := m.state
	s.Name = m.Name
	s.TimeCreated = m.Created
	return s
}

func (m *Migration) setExecuted(at time.Time) {
	m.state.Status = StatusExecuted
	m.state.TimeExecuted = at
}

func (m *Migration) setPending() {
	m.state.Status = StatusPending
	m.state.TimeExecuted = time.Time{}
}

const (
	headerNamespace = "-- namespace:"
	headerID        = "-- id:"
	headerDatabase  = "-- database:"
	markerUp        = "-- +migrate up"
	markerDown      = "-- +migrate down"
)

var errNoUpMarker = errors.New("missing \"" + markerUp + "\" marker")

// parseBody splits a migration file into header fields and up/down sections.
func parseBody(m *Migration, content string) error {
	var up, down strings.Builder
	section := ""
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, markerUp):
			section = "up"
			continue
		case strings.EqualFold(trimmed, markerDown):
			if section == "" {
				return fmt.Errorf("%q before %q", markerDown, markerUp)
			}
			section = "down"
			continue
		}
		switch section {
		case "":
			switch {
			case strings.HasPrefix(trimmed, headerNamespace):
				m.Namespace = strings.TrimSpace(strings.TrimPrefix(trimmed, headerNamespace))
			case strings.HasPrefix(trimmed, headerID):
				m.ID = strings.TrimSpace(strings.TrimPrefix(trimmed, headerID))
			case strings.HasPrefix(trimmed, headerDatabase):
				m.Database = strings.TrimSpace(strings.TrimPrefix(trimmed, headerDatabase))
			}
		case "up":
			up.WriteString(line)
			up.WriteByte('\n')
		case "down":
			down.WriteString(line)
			down.WriteByte('\n')
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if section == "" {
		return errNoUpMarker
	}
	m.Up = strings.TrimSpace(up.String())
	m.Down = strings.TrimSpace(down.String())
	return nil
}

// renderBody is the inverse of parseBody.
func renderBody(namespace, id, database, up, down string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headerNamespace, namespace)
	fmt.Fprintf(&b, "%s %s\n", headerID, id)
	if database != "" {
		fmt.Fprintf(&b, "%s %s\n", headerDatabase, database)
	}
	b.WriteString(markerUp + "\n")
	if up != "" {
		b.WriteString(strings.TrimSpace(up) + "\n")
	}
	b.WriteString("\n" + markerDown + "\n")
	if down != "" {
		b.WriteString(strings.TrimSpace(down) + "\n")
	}
	return b.String()
}

// sortMigrations orders migrations by timestamp, counter and name.
func sortMigrations(migs []*Migration) {
	sort.SliceStable(migs, func(i, j int) bool {
		a, b := migs[i], migs[j]
		if !a.Created.Equal(b.Created) {
			return a.Created.Before(b.Created)
		}
		if a.Counter != b.Counter {
			return a.Counter < b.Counter
		}
		return a.Name < b.Name
	})
}

var newlinePattern = regexp.MustCompile(`\r\n|\r|\n`)

// convertLineEnding converts all newline variations in content to the target style.
func convertLineEnding(content, lineEnding string) (string, error) {
	var target string
	switch strings.ToUpper(lineEnding) {
	case "LF":
		target = "\n"
	case "CR":
		target = "\r"
	case "CRLF":
		target = "\r\n"
	default:
		return "", fmt.Errorf("newline must be one of: LF, CR, CRLF")
	}
	return newlinePattern.ReplaceAllString(content, target), nil
}

// checksum computes the MD5 checksum of the content after converting line endings if set.
func checksum(content, lineEnding string) (string, error) {
	if lineEnding != "" {
		var err error
		content, err = convertLineEnding(content, lineEnding)
		if err != nil {
			return "", err
		}
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}
