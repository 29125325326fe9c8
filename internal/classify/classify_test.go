package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	c := MustNew("uk")

	tests := []struct {
		in   string
		want State
	}{
		{"ABC_DEF", Technical},
		{"abc_def", Technical},
		{"12345", Technical},
		{"", Technical},
		{"   ", Technical},
		{"$VALUE$", Technical},
		{"[ROOT.GetName] #R #!", Technical},
		{"$X$, $Y$ (%)", Technical},
		{"CamelCaseKey", Technical},
		{"Attack", Technical},
		{"Hello world", Untranslated},
		{"hello world", Untranslated},
		{"ATTACK NOW", Untranslated},
		{"#R ABC_DEF#!", Technical},
		{"$X$ lower_key", Technical},
		{"The [ROOT.GetName] has fallen", Untranslated},
		{"Gain $GOLD$ gold per month", Untranslated},
		{"Привіт", Translated},
		{"Отримати $GOLD$ золота", Translated},
		{"Mixed текст and words", Translated},
		{"12 - 34 !!", Technical},
		{"$A$ — 5 …", Technical},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.want, c.Classify(tc.in), "Classify(%q)", tc.in)
	}
}

func TestStateDone(t *testing.T) {
	assert.True(t, Technical.Done())
	assert.True(t, Translated.Done())
	assert.False(t, Untranslated.Done())
	assert.Equal(t, "untranslated", Untranslated.String())
}

func TestNew_TargetScripts(t *testing.T) {
	ja := MustNew("ja")
	assert.True(t, ja.HasTargetScript("ひらがな text"))
	assert.False(t, ja.HasTargetScript("Latin only"))

	ru := MustNew("ru-RU")
	assert.True(t, ru.HasTargetScript("Слово"))

	sr := MustNew("sr-Latn")
	assert.True(t, sr.HasTargetScript("reč"))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("not a tag!")
	require.Error(t, err)
}

func TestNew_DefaultLang(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "uk", c.Lang())
}
