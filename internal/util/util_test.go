package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
	d string
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 3)
	assert.Equal(t, "Field A", props["a"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["b"].(map[string]any)["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.ElementsMatch(t, []string{"a"}, schema["required"])
}

func TestCreateSchema_NonStruct(t *testing.T) {
	schema := CreateSchema(42)
	assert.Equal(t, "object", schema["type"])
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		"required": []any{"x"},
	}

	require.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "nope"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)
}

func TestCompiledSchema_NonEmptyStrings(t *testing.T) {
	type doc struct {
		Problem  string `json:"problem" description:"p"`
		Solution string `json:"solution" description:"s"`
	}

	s, err := CompileSchema(RequireNonEmptyStrings(CreateSchema(doc{})))
	require.NoError(t, err)

	require.NoError(t, s.ValidateJSON([]byte(`{"problem":"a","solution":"b"}`)))
	require.NoError(t, s.Validate(doc{Problem: "a", Solution: "b"}))

	err = s.ValidateJSON([]byte(`{"problem":"","solution":"b"}`))
	require.Error(t, err)

	err = s.ValidateJSON([]byte(`{"problem":"a"}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "solution", vErr.Field)

	err = s.ValidateJSON([]byte(`{"problem":"a","solution":"b","extra":"c"}`))
	assert.Error(t, err)
}

func TestRequireNonEmptyStrings_DoesNotMutateInput(t *testing.T) {
	base := CreateSchema(struct {
		A string `json:"a"`
	}{})
	_ = RequireNonEmptyStrings(base)

	props := base["properties"].(map[string]any)
	assert.NotContains(t, props["a"], "minLength")
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("no markers", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers", out)

	out, err = RenderTemplate("Always respond in {{.Language}} & <keep>.", map[string]any{"Language": "Korean"})
	require.NoError(t, err)
	assert.Equal(t, "Always respond in Korean & <keep>.", out)

	out, err = RenderTemplate(`{{default "Korean" .Language}}`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Korean", out)

	out, err = RenderTemplate(`{{range $i, $v := .Items}}{{inc $i}}.{{$v}} {{end}}`, map[string]any{"Items": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "1.a 2.b ", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
