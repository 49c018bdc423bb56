package ipaddr_test

import (
	"testing"

	"github.com/malbeclabs/fabric-sim/internal/ipaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := ipaddr.Parse("10.1.2.5")
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.5", a.String())
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{"10.1.2", "10.1.2.3.4", "10.1.2.256", "a.b.c.d", ""}
	for _, c := range cases {
		_, err := ipaddr.Parse(c)
		assert.Error(t, err, "expected error for %q", c)
	}
}

func TestFromIntRoundTrip(t *testing.T) {
	for _, s := range []string{"0.0.0.0", "255.255.255.255", "10.1.2.5", "192.168.1.1"} {
		a, err := ipaddr.Parse(s)
		require.NoError(t, err)
		rt := ipaddr.FromInt(a.ToInt())
		assert.Equal(t, a, rt, "from_int(to_int(ip)) must equal ip")
	}
}

func TestPrefixRoundTrip(t *testing.T) {
	for _, s := range []string{"10.0.0.0/8", "10.1.2.0/24", "0.0.0.0/0", "255.255.255.255/32"} {
		p, err := ipaddr.ParsePrefix(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
}

func TestPrefixContains(t *testing.T) {
	p, err := ipaddr.ParsePrefix("10.1.2.0/24")
	require.NoError(t, err)

	inside, _ := ipaddr.Parse("10.1.2.5")
	outside, _ := ipaddr.Parse("10.1.3.5")
	assert.True(t, p.Contains(inside))
	assert.False(t, p.Contains(outside))
}

func TestPrefixContainsTopBitsMatch(t *testing.T) {
	p, err := ipaddr.ParsePrefix("10.0.0.0/8")
	require.NoError(t, err)
	a, _ := ipaddr.Parse("10.3.4.5")
	b, _ := ipaddr.Parse("11.0.0.0")
	assert.True(t, p.Contains(a))
	assert.False(t, p.Contains(b))
}

func TestPrefixZeroLenMatchesEverything(t *testing.T) {
	p, err := ipaddr.ParsePrefix("0.0.0.0/0")
	require.NoError(t, err)
	a, _ := ipaddr.Parse("255.255.255.255")
	assert.True(t, p.Contains(a))
}
