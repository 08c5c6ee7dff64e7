package contracts

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError(t *testing.T) {
	var err error = &SchemaError{Column: ColFat}

	assert.True(t, errors.Is(err, ErrSchema))
	assert.False(t, errors.Is(err, ErrSourceUnavailable))
	assert.Equal(t, "missing column: Fat(g)", err.Error())

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, ColFat, schemaErr.Column)
}

func TestSourceError(t *testing.T) {
	err := &SourceError{Source: "All_Diets.csv", Err: fs.ErrNotExist}

	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "All_Diets.csv")
}

func TestAggregateSummary_TotalRecipes(t *testing.T) {
	s := AggregateSummary{RecipeCounts: map[string]int{"paleo": 3, "vegan": 4}}
	assert.Equal(t, 7, s.TotalRecipes())
	assert.Equal(t, 0, AggregateSummary{}.TotalRecipes())
}
