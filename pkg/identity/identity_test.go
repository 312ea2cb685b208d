package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPHashDeterministic(t *testing.T) {
	p := NewIPHash("secret-a")

	tok1, minted := p.Resolve("203.0.113.7")
	require.False(t, minted)
	require.Len(t, tok1, 64)

	tok2, _ := p.Resolve("203.0.113.7")
	require.Equal(t, tok1, tok2)

	other, _ := p.Resolve("203.0.113.8")
	require.NotEqual(t, tok1, other)
}

func TestIPHashTrimsWhitespace(t *testing.T) {
	p := NewIPHash("secret-a")

	tok1, _ := p.Resolve(" 203.0.113.7 ")
	tok2, _ := p.Resolve("203.0.113.7")
	require.Equal(t, tok1, tok2)
}

func TestIPHashSecretRotationChangesTokens(t *testing.T) {
	tok1, _ := NewIPHash("secret-a").Resolve("203.0.113.7")
	tok2, _ := NewIPHash("secret-b").Resolve("203.0.113.7")
	require.NotEqual(t, tok1, tok2)
}

func TestCookiePassThrough(t *testing.T) {
	tok, minted := Cookie{}.Resolve("existing-cookie-id")
	require.False(t, minted)
	require.Equal(t, "existing-cookie-id", tok)
}

func TestCookieMintsRandomToken(t *testing.T) {
	tok1, minted := Cookie{}.Resolve("")
	require.True(t, minted)
	require.Len(t, tok1, 32)

	tok2, _ := Cookie{}.Resolve("")
	require.NotEqual(t, tok1, tok2)
}
