package codenames

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClue(t *testing.T) {
	tests := []struct {
		name   string
		clue   string
		board  []string
		ok     bool
		reason string
	}{
		{"empty", "", []string{"APPLE"}, false, "Clue cannot be empty"},
		{"whitespace only", "  \t ", []string{"APPLE"}, false, "Clue cannot be empty"},
		{"two words", "ICE CREAM", []string{"APPLE"}, false, "Clue must be a single word"},
		{"tab inside", "ICE\tCREAM", nil, false, "Clue must be a single word"},
		{"contains board word", "APPLEPIE", []string{"APPLE", "DOG"}, false, "Clue matches board word: APPLE"},
		{"contained in board word", "ELEPH", []string{"ELEPHANT"}, false, "Clue matches board word: ELEPHANT"},
		{"case insensitive", "hotdog", []string{"APPLE", "Dog"}, false, "Clue matches board word: Dog"},
		{"first match in board order", "DOGCAT", []string{"CAT", "DOG"}, false, "Clue matches board word: CAT"},
		{"surrounding space trimmed", "  zoo ", []string{"APPLE", "DOG"}, true, ""},
		{"no match", "ZOO", []string{"APPLE", "DOG"}, true, ""},
		{"empty board", "ZOO", nil, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateClue(tt.clue, tt.board)
			assert.Equal(t, tt.ok, got.OK)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestClueNumberJSON(t *testing.T) {
	tests := []struct {
		in   string
		want ClueNumber
	}{
		{`0`, Finite(0)},
		{`3`, Finite(3)},
		{`"unlimited"`, Unlimited()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got ClueNumber
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)

			out, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}

	for _, bad := range []string{`-1`, `"lots"`, `1.5`, `true`} {
		var n ClueNumber
		assert.Error(t, json.Unmarshal([]byte(bad), &n), bad)
	}
}

func TestTeamJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A Team `json:"a"`
		B Team `json:"b"`
	}{A: Red})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"red","b":null}`, string(out))

	var team Team
	assert.Error(t, json.Unmarshal([]byte(`"green"`), &team))
}
