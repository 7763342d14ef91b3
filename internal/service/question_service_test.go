package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitKheang/quiz-backend/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func inputs(texts ...string) []model.OptionInput {
	out := make([]model.OptionInput, len(texts))
	for i, t := range texts {
		out[i] = model.OptionInput{Text: t}
	}
	return out
}

func correctTexts(options []model.Option) []string {
	var out []string
	for _, o := range options {
		if o.IsCorrect {
			out = append(out, o.Text)
		}
	}
	return out
}

func TestNormalizeOptions_PerOptionFlags(t *testing.T) {
	in := inputs("a", "b", "c")
	in[1].IsCorrect = boolPtr(true)

	options, err := normalizeOptions(in, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, correctTexts(options))
}

func TestNormalizeOptions_PositionalIDs(t *testing.T) {
	// pos-<n> ids are 1-based, so pos-2 marks the second option.
	options, err := normalizeOptions(inputs("a", "b", "c"), []string{"pos-2"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, correctTexts(options))

	// Out-of-range positions are ignored; the first option wins by default.
	options, err = normalizeOptions(inputs("a", "b"), []string{"pos-0", "pos-9"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, correctTexts(options))
}

func TestNormalizeOptions_ExistingIDs(t *testing.T) {
	in := inputs("a", "b", "c")
	in[0].ID = "11111111-1111-1111-1111-111111111111"
	in[2].ID = "22222222-2222-2222-2222-222222222222"

	options, err := normalizeOptions(in, []string{in[2].ID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, correctTexts(options))
}

func TestNormalizeOptions_Indexes(t *testing.T) {
	options, err := normalizeOptions(inputs("a", "b", "c", "d"), nil, []int{1, 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, correctTexts(options))
}

func TestNormalizeOptions_IndexOutOfRangeIgnored(t *testing.T) {
	options, err := normalizeOptions(inputs("a", "b"), nil, []int{7, -1}, nil)
	require.NoError(t, err)
	// Nothing valid marked, so the first option wins.
	assert.Equal(t, []string{"a"}, correctTexts(options))
}

func TestNormalizeOptions_Texts(t *testing.T) {
	options, err := normalizeOptions(inputs("Paris", "London", "Berlin"), nil, nil, []string{"  london "})
	require.NoError(t, err)
	assert.Equal(t, []string{"London"}, correctTexts(options))
}

func TestNormalizeOptions_DefaultsToFirst(t *testing.T) {
	options, err := normalizeOptions(inputs("a", "b", "c"), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, correctTexts(options))
}

func TestNormalizeOptions_FlagsWinOverAggregates(t *testing.T) {
	in := inputs("a", "b", "c")
	in[0].IsCorrect = boolPtr(true)

	options, err := normalizeOptions(in, []string{"pos-2"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, correctTexts(options))
}

func TestNormalizeOptions_Empty(t *testing.T) {
	_, err := normalizeOptions(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrOptionsRequired)

	// A single option is unusual but accepted; it defaults to correct.
	options, err := normalizeOptions(inputs("only"), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, correctTexts(options))
}

func TestResolveType_Derived(t *testing.T) {
	one, err := normalizeOptions(inputs("a", "b"), nil, []int{0}, nil)
	require.NoError(t, err)
	qType, err := resolveType(nil, one)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionTypeSingle, qType)

	two, err := normalizeOptions(inputs("a", "b", "c"), nil, []int{0, 1}, nil)
	require.NoError(t, err)
	qType, err = resolveType(nil, two)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionTypeMulti, qType)
}

func TestResolveType_ExplicitSingleRejectsMultipleCorrect(t *testing.T) {
	two, err := normalizeOptions(inputs("a", "b", "c"), nil, []int{0, 1}, nil)
	require.NoError(t, err)

	single := model.QuestionTypeSingle
	_, err = resolveType(&single, two)
	assert.ErrorIs(t, err, ErrSingleChoice)
}

func TestResolveType_ExplicitMultiAllowsOneCorrect(t *testing.T) {
	one, err := normalizeOptions(inputs("a", "b"), nil, []int{0}, nil)
	require.NoError(t, err)

	multi := model.QuestionTypeMulti
	qType, err := resolveType(&multi, one)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionTypeMulti, qType)
}
