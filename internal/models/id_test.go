package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"string", `"7b1c"`, "7b1c"},
		{"integer", `42`, "42"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_RejectsObjects(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &id))
}

func TestQuiz_DecodesNumericIDs(t *testing.T) {
	raw := `{"id":3,"title":"Arrays","skill_id":1,"questions":[
		{"id":11,"question_type":"mcq","prompt":"second","order":2,"options":[]},
		{"id":10,"question_type":"short_answer","prompt":"first","order":1,"options":[]}]}`

	var q Quiz
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Equal(t, ID("3"), q.ID)
	assert.Equal(t, ID("1"), q.SkillID)

	sorted := q.SortedQuestions()
	require.Len(t, sorted, 2)
	assert.Equal(t, "first", sorted[0].Prompt)
	assert.Equal(t, "second", q.Questions[0].Prompt, "original order must be kept")
}

func TestSkillCreate_Validate(t *testing.T) {
	bad := 9
	ok := 3
	assert.Error(t, SkillCreate{}.Validate())
	assert.Error(t, SkillCreate{Name: "Graphs", Difficulty: &bad}.Validate())
	assert.NoError(t, SkillCreate{Name: "Graphs", Difficulty: &ok}.Validate())
	assert.NoError(t, SkillCreate{Name: "Graphs"}.Validate())
}

func TestUser_Name(t *testing.T) {
	name := "Ada"
	assert.Equal(t, "Ada", User{Email: "ada@x.com", DisplayName: &name}.Name())
	assert.Equal(t, "ada@x.com", User{Email: "ada@x.com"}.Name())
}
