package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/models"
)

func TestField_Expression(t *testing.T) {
	f := newFixture(t)

	expr, err := models.NewField(f.user, "name").Expression()
	require.NoError(t, err)
	assert.Equal(t, core.Col(f.users, "name"), expr)

	expr, err = models.NewField(f.user, "shout").Expression()
	require.NoError(t, err)
	assert.Equal(t, core.SQLExpr{Table: f.users, Name: "shout", Text: "UPPER({name})"}, expr)

	expr, err = models.NewField(f.user, "initial").Expression()
	require.NoError(t, err)
	assert.Equal(t, core.SQLExpr{Table: f.users, Name: "initial", Text: "LEFT({name}, 1)"}, expr)
}

func TestField_Expression_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := models.NewField(f.user, "city").Expression()
	require.ErrorIs(t, err, core.ErrFieldNotFound)
	assert.EqualError(t, err, "field not found: model `User` has no column `city`")
}
