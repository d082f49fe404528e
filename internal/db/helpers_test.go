package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/surrealdb/surrealdb.go"

	"github.com/yaungchi/assistant-go/internal/models"
)

// The helpers decode each result set as a slice of rows; these pin the
// slice-typed instantiation and the empty/missing cases.

func TestFirst(t *testing.T) {
	t.Run("nil results", func(t *testing.T) {
		assert.Nil(t, first[models.UsageRecord](nil))
	})

	t.Run("empty result set", func(t *testing.T) {
		results := &[]surrealdb.QueryResult[[]models.UsageRecord]{
			{Status: "OK", Result: []models.UsageRecord{}},
		}
		assert.Nil(t, first(results))
	})

	t.Run("first row of first set", func(t *testing.T) {
		results := &[]surrealdb.QueryResult[[]models.UsageRecord]{
			{Status: "OK", Result: []models.UsageRecord{
				{Day: "2026-08-28", MessageCount: 3},
				{Day: "2026-08-27", MessageCount: 20},
			}},
		}
		row := first(results)
		assert.NotNil(t, row)
		assert.Equal(t, "2026-08-28", row.Day)
		assert.Equal(t, 3, row.MessageCount)
	})
}

func TestRows(t *testing.T) {
	t.Run("nil results yield empty slice", func(t *testing.T) {
		assert.Empty(t, rows[models.Message](nil))
		assert.NotNil(t, rows[models.Message](nil))
	})

	t.Run("first set returned in order", func(t *testing.T) {
		results := &[]surrealdb.QueryResult[[]models.Message]{
			{Status: "OK", Result: []models.Message{
				{Role: models.RoleUser, Content: "first"},
				{Role: models.RoleAssistant, Content: "second"},
			}},
		}
		got := rows(results)
		assert.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "second", got[1].Content)
	})
}
