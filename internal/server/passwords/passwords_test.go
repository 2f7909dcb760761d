package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := Generate()
		require.NoError(t, err)
		require.Len(t, pw, Length)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(unambiguous+upper, r), "unexpected rune %q", r)
		}
	}
}

func TestAlphabet_Weighting(t *testing.T) {
	lower := 0
	for _, r := range alphabet {
		if strings.ContainsRune(unambiguous, r) {
			lower++
		}
	}
	assert.Equal(t, 3*len(unambiguous), lower)
	assert.Equal(t, len(upper), len(alphabet)-lower)
	assert.NotContains(t, alphabet, "0")
	assert.NotContains(t, alphabet, "l")
	assert.NotContains(t, alphabet, "O")
}

func TestHashAndVerify(t *testing.T) {
	h := Hash("k3x9pQ7a")
	assert.True(t, strings.HasPrefix(h, "argon2id$"))
	assert.True(t, Verify(h, "k3x9pQ7a"))
	assert.False(t, Verify(h, "k3x9pQ7b"))
	assert.NotEqual(t, h, Hash("k3x9pQ7a"), "salts must differ")
}

func TestVerify_Malformed(t *testing.T) {
	for _, h := range []string{"", "plain", "argon2id$$", "bcrypt$abc$def", "argon2id$!!$AAAA", "argon2id$AAAA$AAAA"} {
		assert.False(t, Verify(h, "anything"), h)
	}
}
