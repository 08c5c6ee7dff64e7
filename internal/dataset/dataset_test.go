package dataset

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dietdash/internal/contracts"
)

const sampleCSV = `Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g),Extraction_day
paleo,Grilled Chicken Bowl,american,50,10,5,2022-10-16
paleo,Avocado Salad,mexican,10,5,50,2022-10-16
vegan,Tofu Stir Fry,chinese,abc,30,,2022-10-17
,Orphan Recipe,french,1,1,1,2022-10-17
`

func TestValidate(t *testing.T) {
	for _, missing := range contracts.RequiredColumns {
		t.Run(missing, func(t *testing.T) {
			var header []string
			for _, col := range contracts.RequiredColumns {
				if col != missing {
					header = append(header, col)
				}
			}

			err := Validate(header, contracts.RequiredColumns)
			require.Error(t, err)
			assert.True(t, errors.Is(err, contracts.ErrSchema))

			var schemaErr *contracts.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, missing, schemaErr.Column)
		})
	}

	assert.NoError(t, Validate(contracts.RequiredColumns, contracts.RequiredColumns))
}

func TestValidate_NamesFirstMissing(t *testing.T) {
	err := Validate([]string{contracts.ColDietType}, contracts.RequiredColumns)

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, contracts.ColRecipeName, schemaErr.Column)
}

func TestNormalizeHeader(t *testing.T) {
	got := NormalizeHeader([]string{"\ufeffDiet_type", " Recipe_name ", "Cuisine_type", "Protein (g)", "Carbs (g)", "Fat  (g)", "Notes (free text)"})

	assert.Equal(t, []string{"Diet_type", "Recipe_name", "Cuisine_type", "Protein(g)", "Carbs(g)", "Fat(g)", "Notes (free text)"}, got)
}

func TestLoad(t *testing.T) {
	table, stats, err := Load(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.RowsRead)
	assert.Equal(t, 1, stats.RowsDropped)
	assert.Equal(t, 2, stats.MissingMacros)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Extraction_day"}, table.ExtraColumns)

	assert.Equal(t, "Grilled Chicken Bowl", table.Rows[0].RecipeName)
	assert.Equal(t, []string{"2022-10-16"}, table.Rows[0].Extra)
	assert.True(t, math.IsNaN(table.Rows[2].Protein))
	assert.True(t, math.IsNaN(table.Rows[2].Fat))
	assert.Equal(t, 30.0, table.Rows[2].Carbs)
}

func TestLoad_SchemaError(t *testing.T) {
	_, _, err := Load(context.Background(), strings.NewReader("Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g)\n"))

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, contracts.ColFat, schemaErr.Column)
}

func TestLoad_EmptyInput(t *testing.T) {
	_, _, err := Load(context.Background(), strings.NewReader(""))
	assert.True(t, errors.Is(err, contracts.ErrSchema))
}

func TestLoad_SpacedHeaders(t *testing.T) {
	src := "Diet_type,Recipe_name,Cuisine_type,Protein (g),Carbs (g),Fat (g)\nketo,Eggs,french,12,1,10\n"

	table, _, err := Load(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 12.0, table.Rows[0].Protein)
	assert.Empty(t, table.ExtraColumns)
}

func TestLoad_DuplicateContractColumnIgnored(t *testing.T) {
	src := "Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g),Protein (g),Notes\nketo,Eggs,french,12,1,10,99,quick\n"

	table, stats, err := Load(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 12.0, table.Rows[0].Protein)
	assert.Equal(t, []string{"Notes"}, table.ExtraColumns)
	assert.Equal(t, []string{"quick"}, table.Rows[0].Extra)
	assert.Equal(t, 1, stats.ShadowedColumns)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g),Notes", header)
}

func TestCoerceNumeric(t *testing.T) {
	assert.Equal(t, 1.5, CoerceNumeric(" 1.5 "))
	assert.Equal(t, 0.0, CoerceNumeric("0"))
	assert.True(t, math.IsNaN(CoerceNumeric("")))
	assert.True(t, math.IsNaN(CoerceNumeric("n/a")))
	assert.True(t, math.IsNaN(CoerceNumeric("Inf")))
}

func rawTable() *contracts.Table {
	nan := math.NaN()
	return &contracts.Table{Rows: []contracts.Row{
		{DietType: "paleo", Protein: 10, Carbs: nan, Fat: nan},
		{DietType: "paleo", Protein: nan, Carbs: 4, Fat: nan},
		{DietType: "vegan", Protein: 20, Carbs: 8, Fat: nan},
	}}
}

func TestFillMissing_Zero(t *testing.T) {
	in := rawTable()
	out := FillMissing(in, FillZero)

	for _, r := range out.Rows {
		assert.False(t, r.HasMissingMacro())
	}
	assert.Equal(t, 0.0, out.Rows[0].Carbs)
	assert.Equal(t, 0.0, out.Rows[1].Protein)

	// input untouched
	assert.True(t, math.IsNaN(in.Rows[0].Carbs))
}

func TestFillMissing_ColumnMean(t *testing.T) {
	out := FillMissing(rawTable(), FillColumnMean)

	assert.Equal(t, 15.0, out.Rows[1].Protein)
	assert.Equal(t, 6.0, out.Rows[0].Carbs)
	// all-missing column falls back to zero
	assert.Equal(t, 0.0, out.Rows[0].Fat)
	for _, r := range out.Rows {
		assert.False(t, r.HasMissingMacro())
	}
}

func TestFillMissing_Idempotent(t *testing.T) {
	once := FillMissing(rawTable(), FillColumnMean)
	twice := FillMissing(once, FillColumnMean)
	assert.Equal(t, once.Rows, twice.Rows)
}

func TestDeriveRatios(t *testing.T) {
	in := &contracts.Table{Rows: []contracts.Row{
		{Protein: 10, Carbs: 5, Fat: 2},
		{Protein: 10, Carbs: 0, Fat: 0},
	}}
	out := DeriveRatios(in)

	assert.True(t, out.HasRatios)
	assert.False(t, in.HasRatios)
	assert.Equal(t, 2.0, out.Rows[0].ProteinToCarbs)
	assert.Equal(t, 2.5, out.Rows[0].CarbsToFat)
	assert.True(t, math.IsNaN(out.Rows[1].ProteinToCarbs))
	assert.True(t, math.IsNaN(out.Rows[1].CarbsToFat))
}

func TestParseFillPolicy(t *testing.T) {
	p, err := ParseFillPolicy("mean")
	require.NoError(t, err)
	assert.Equal(t, FillColumnMean, p)

	p, err = ParseFillPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FillZero, p)

	_, err = ParseFillPolicy("median")
	assert.Error(t, err)
}

func TestWriteCSV_Reproducible(t *testing.T) {
	table, _, err := Load(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	cleaned := Clean(table, FillColumnMean, true)

	var a, b bytes.Buffer
	require.NoError(t, WriteCSV(&a, cleaned))
	require.NoError(t, WriteCSV(&b, Clean(table, FillColumnMean, true)))
	assert.Equal(t, a.String(), b.String())

	lines := strings.Split(strings.TrimSpace(a.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g),Extraction_day,Protein_to_Carbs_ratio,Carbs_to_Fat_ratio", lines[0])
	assert.Equal(t, "paleo,Grilled Chicken Bowl,american,50,10,5,2022-10-16,5,2", lines[1])
}

func TestWriteTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cleaned.csv")
	table := &contracts.Table{Rows: []contracts.Row{{DietType: "keto", RecipeName: "Eggs", CuisineType: "french", Protein: 12, Carbs: 1, Fat: 10}}}

	require.NoError(t, WriteTableFile(path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g)\nketo,Eggs,french,12,1,10\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}
