package models

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sqlmock-based repository tests never touch real constraints, so the
// enum-style CHECK clauses in the DDL are verified against the Go constants
// here. A value the database rejects would otherwise only fail at runtime.

func schemaDDL(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "scripts", "schema.sql"))
	require.NoError(t, err)
	return string(raw)
}

func checkValues(t *testing.T, ddl, column string) string {
	t.Helper()
	re := regexp.MustCompile(fmt.Sprintf(`CHECK \(%s IN \(([^)]+)\)\)`, column))
	match := re.FindStringSubmatch(ddl)
	require.Len(t, match, 2, "no CHECK ... IN clause found for column %s", column)
	return match[1]
}

func TestSchemaAcceptsStressEventSources(t *testing.T) {
	allowed := checkValues(t, schemaDDL(t), "source")
	for _, source := range []StressEventSource{StressSourceSurvey, StressSourceSystem} {
		assert.Contains(t, allowed, fmt.Sprintf("'%s'", source))
	}
}

func TestSchemaAcceptsUserRoles(t *testing.T) {
	allowed := checkValues(t, schemaDDL(t), "role")
	for _, role := range []UserRole{RoleAdmin, RoleStaff} {
		assert.Contains(t, allowed, fmt.Sprintf("'%s'", role))
	}
}
