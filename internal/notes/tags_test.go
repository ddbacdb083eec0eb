package notes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEncodeTags_Canonical(t *testing.T) {
	t.Parallel()
	got, err := encodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = encodeTags([]string{"work", "home"})
	require.NoError(t, err)
	assert.Equal(t, `["work","home"]`, got)
}

func TestDecodeTags_EmptyAndInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "  ", "[]", "null"} {
		tags, err := decodeTags(raw)
		require.NoError(t, err, raw)
		assert.NotNil(t, tags, raw)
		assert.Empty(t, tags, raw)
	}
	_, err := decodeTags("{not json")
	assert.Error(t, err)
}

// Property: the element patterns never miss a tag that is in the list.
func TestTagElementPatterns_NoFalseNegatives(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		part := rapid.SampledFrom([]string{"a", "b", ",", `"`, `\`, "[", "]", " ", "<", "é"})
		tagGen := rapid.Custom(func(t *rapid.T) string {
			return strings.Join(rapid.SliceOfN(part, 1, 4).Draw(t, "parts"), "")
		})
		tags := rapid.SliceOfN(tagGen, 1, 5).Draw(t, "tags")
		tag := rapid.SampledFrom(tags).Draw(t, "member")

		encoded, err := encodeTags(tags)
		if err != nil {
			t.Fatalf("encodeTags: %v", err)
		}
		first, later, err := tagElementPatterns(tag)
		if err != nil {
			t.Fatalf("tagElementPatterns: %v", err)
		}
		if !strings.Contains(encoded, first) && !strings.Contains(encoded, later) {
			t.Fatalf("member %q not found in %s", tag, encoded)
		}
	})
}

func TestDistinctSorted(t *testing.T) {
	t.Parallel()
	got := distinctSorted([][]string{{"work", "b"}, {"a", "work"}, {}, {"B"}})
	assert.Equal(t, []string{"B", "a", "b", "work"}, got)
	assert.NotNil(t, distinctSorted(nil))
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `50\% \_x\\`, escapeLike(`50% _x\`))
	raw, _ := json.Marshal(escapeLike("plain"))
	assert.Equal(t, `"plain"`, string(raw))
}
