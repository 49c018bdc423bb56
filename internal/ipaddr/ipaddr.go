// Package ipaddr implements IPv4 address and prefix parsing, masking, and
// containment, independent of net.IP so that equality and hashing are by
// plain 32-bit integer value (§3 IPAddress/IPPrefix).
package ipaddr

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/malbeclabs/fabric-sim/internal/simerrors"
)

// Address is an IPv4 address stored as four octets, big-endian.
type Address struct {
	octets [4]byte
}

// Parse parses a strict dotted-quad string: exactly four integers in
// [0,255] separated by dots.
func Parse(s string) (Address, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return Address{}, simerrors.InvalidArgumentf("ipaddr.Parse", "invalid IPv4 string %q: expected 4 octets, got %d", s, len(parts))
	}
	var a Address
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > 255 {
			return Address{}, simerrors.InvalidArgumentf("ipaddr.Parse", "invalid octet %q in %q", p, s)
		}
		a.octets[i] = byte(v)
	}
	return a, nil
}

// FromOctets builds an Address from four octets in [0,255].
func FromOctets(a, b, c, d int) (Address, error) {
	for _, o := range []int{a, b, c, d} {
		if o < 0 || o > 255 {
			return Address{}, simerrors.InvalidArgumentf("ipaddr.FromOctets", "invalid octet value: %d", o)
		}
	}
	return Address{octets: [4]byte{byte(a), byte(b), byte(c), byte(d)}}, nil
}

// FromInt builds an Address from a 32-bit big-endian integer value.
func FromInt(v uint32) Address {
	var a Address
	binary.BigEndian.PutUint32(a.octets[:], v)
	return a
}

// ToInt returns the address as a 32-bit big-endian integer.
func (a Address) ToInt() uint32 {
	return binary.BigEndian.Uint32(a.octets[:])
}

func (a Address) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", a.octets[0], a.octets[1], a.octets[2], a.octets[3])
}

// Prefix is an IPv4 network address masked to PrefixLen bits.
type Prefix struct {
	Network   Address
	PrefixLen int
}

// ParsePrefix parses "A.B.C.D/N" and normalizes the network address by
// masking it to N bits.
func ParsePrefix(s string) (Prefix, error) {
	addrPart, lenPart, ok := strings.Cut(s, "/")
	if !ok {
		return Prefix{}, simerrors.InvalidArgumentf("ipaddr.ParsePrefix", "invalid prefix string %q: missing '/'", s)
	}
	n, err := strconv.Atoi(lenPart)
	if err != nil || n < 0 || n > 32 {
		return Prefix{}, simerrors.InvalidArgumentf("ipaddr.ParsePrefix", "invalid prefix length in %q", s)
	}
	addr, err := Parse(addrPart)
	if err != nil {
		return Prefix{}, err
	}
	mask := maskFromLen(n)
	return Prefix{Network: FromInt(addr.ToInt() & mask), PrefixLen: n}, nil
}

func maskFromLen(n int) uint32 {
	if n == 0 {
		return 0
	}
	return uint32(0xFFFFFFFF) << (32 - n)
}

// Contains reports whether ip's top PrefixLen bits match the prefix's
// network address.
func (p Prefix) Contains(ip Address) bool {
	mask := maskFromLen(p.PrefixLen)
	return (ip.ToInt() & mask) == (p.Network.ToInt() & mask)
}

func (p Prefix) String() string {
	return fmt.Sprintf("%s/%d", p.Network, p.PrefixLen)
}
