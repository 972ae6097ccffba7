package migrator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// Extension of migration files.
const Extension = "sql"

// timestampLayout is the <YYYYMMDD>.<HHMMSS> prefix of migration files.
const timestampLayout = "20060102.150405"

var filenamePattern = regexp.MustCompile(`^(\d{8}\.\d{6})_(\d+)_(\d+)_(.+)\.` + Extension + `$`)

// Filename renders the migration file name for name created at now.
func Filename(now time.Time, counter int, name string) string {
	return fmt.Sprintf("%s_0_%d_%s.%s", now.UTC().Format(timestampLayout), counter, name, Extension)
}

// parseFilename extracts the timestamp, counter and name of a migration file.
// ok is false for files that are not migrations.
func parseFilename(base string) (created time.Time, counter int, name string, ok bool) {
	match := filenamePattern.FindStringSubmatch(base)
	if match == nil {
		return time.Time{}, 0, "", false
	}
	created, err := time.ParseInLocation(timestampLayout, match[1], time.UTC)
	if err != nil {
		return time.Time{}, 0, "", false
	}
	counter, err = strconv.Atoi(match[3])
	if err != nil {
		return time.Time{}, 0, "", false
	}
	return created, counter, match[4], true
}

// NextCounter scans dir for migrations named name and returns the highest
// counter plus one, or 0 when there is none.
func NextCounter(fs afero.Fs, dir, name string) (int, error) {
	files, err := afero.Glob(fs, filepath.Join(dir, "*_*_*_"+name+"."+Extension))
	if err != nil {
		return 0, fmt.Errorf("failed to scan migration files: %w", err)
	}
	re := regexp.MustCompile(`^\d{8}\.\d{6}_(\d+)_(\d+)_` + regexp.QuoteMeta(name) + `\.` + Extension + `$`)
	maxCounter := -1
	for _, file := range files {
		match := re.FindStringSubmatch(filepath.Base(file))
		if match == nil {
			continue
		}
		counter, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		if counter > maxCounter {
			maxCounter = counter
		}
	}
	return maxCounter + 1, nil
}
