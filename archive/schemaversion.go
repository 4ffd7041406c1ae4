package archive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is the major.minor pair this build of the archive package
// understands. An archive refuses to open a database whose own recorded
// Schema-Version is newer, the same guard the source applies in
// DatabaseArchive::open before trusting the column layout it is about to
// read.
type SchemaVersion struct {
	Major int
	Minor int
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v SchemaVersion) newerThan(other SchemaVersion) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor > other.Minor
}

// parseSchemaVersion parses "major.minor[.patch]"; the patch component, if
// present, is accepted but not retained, since SchemaVersion only compares
// on major.minor as the source's own newerThan check does.
func parseSchemaVersion(s string) (SchemaVersion, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("malformed schema version %q: %w", s, err)
	}
	minor := 0
	if len(parts) >= 2 {
		minor, err = strconv.Atoi(parts[1])
		if err != nil {
			return SchemaVersion{}, fmt.Errorf("malformed schema version %q: %w", s, err)
		}
	}
	return SchemaVersion{Major: major, Minor: minor}, nil
}

// checkSchemaVersion reads the Meta table's Schema-Version row, if any, and
// refuses to continue if the database is newer than supported. A database
// with no Schema-Version row is treated as freshly bootstrapped.
func (a *Archive) checkSchemaVersion(ctx context.Context) error {
	cur, err := a.driver.Query(ctx, "Meta", "name", "Schema-Version")
	if err != nil {
		return fmt.Errorf("archive: reading schema version: %w", err)
	}
	defer cur.Close()

	if !cur.Next() {
		return nil
	}
	val := cur.Row()["value"]
	if val == nil {
		return nil
	}
	dbVersion, err := parseSchemaVersion(*val)
	if err != nil {
		return err
	}
	if dbVersion.newerThan(a.supported) {
		return fmt.Errorf("archive: database schema %s is not supported (newer than compiled-in schema %s)", dbVersion, a.supported)
	}
	return nil
}
