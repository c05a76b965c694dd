package ai

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"bio":"Coach pour solopreneuses"}`, `{"bio":"Coach pour solopreneuses"}`},
		{"fenced json", "```json\n{\"slides\": [1, 2]}\n```", `{"slides": [1, 2]}`},
		{"fence without language", "```\n{\"a\": true}\n```", `{"a": true}`},
		{"prose around object", "Voici ta bio :\n{\"bio\": \"ok\"}\nBonne journée !", `{"bio": "ok"}`},
		{"object inside an array", `[{"jour": 1}]`, `{"jour": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestExtractJSON_Unexpected(t *testing.T) {
	for _, input := range []string{
		"",
		"désolé, je ne peux pas",
		"{pas du json}",
		"null",
		"42",
		`"texte"`,
		"[1,2]",
		"```json\nnull\n```",
		"```\n[\"a\", \"b\"]\n```",
	} {
		_, err := ExtractJSON(input)
		assert.ErrorIs(t, err, ErrUnexpectedFormat, "input %q", input)
	}
}

func TestDecodeJSON(t *testing.T) {
	type story struct {
		Sequence []string `json:"sequence"`
		Tip      string   `json:"tip"`
	}

	var got story
	require.NoError(t, DecodeJSON("```json\n{\"sequence\":[\"hook\",\"cta\"],\"tip\":\"sondage\"}\n```", &got))

	want := story{Sequence: []string{"hook", "cta"}, Tip: "sondage"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeJSON mismatch (-want +got):\n%s", diff)
	}

	var wrong story
	err := DecodeJSON(`{"sequence": "pas une liste"}`, &wrong)
	assert.True(t, errors.Is(err, ErrUnexpectedFormat))
}
