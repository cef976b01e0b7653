package protocol

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeNames runs a decoder over r until it completes or stalls.
func decodeNames(d *NamelistDecoder, names *[]string, r *Reader) NamelistStatus {
	for {
		s := d.Decode(names, r)
		if s != NamelistLength {
			return s
		}
	}
}

func TestNamelistRoundTrip(t *testing.T) {
	cases := map[string][]string{
		"empty":          {},
		"single":         {"diffie-hellman-group14-sha1"},
		"several":        {"aes128-ctr", "aes256-ctr", "none"},
		"trailing empty": {"a", "b", ""},
		"max length":     {strings.Repeat("x", MaxNameLength), "y"},
	}
	for name, names := range cases {
		t.Run(name, func(t *testing.T) {
			enc := AppendNameList(nil, names)
			require.Len(t, enc, NameListByteCount(names))

			var d NamelistDecoder
			var got []string
			r := NewReader(enc)
			require.Equal(t, NamelistComplete, decodeNames(&d, &got, r))
			assert.Equal(t, 0, r.Len())
			assert.Equal(t, len(names), len(got))
			for i := range names {
				assert.Equal(t, names[i], got[i])
			}
		})
	}
}

func TestNamelistByteAtATime(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 50; iter++ {
		names := make([]string, rng.Intn(8))
		for i := range names {
			b := make([]byte, 1+rng.Intn(40))
			for j := range b {
				b[j] = byte('a' + rng.Intn(26))
			}
			names[i] = string(b)
		}
		enc := AppendNameList(nil, names)

		var d NamelistDecoder
		var got []string
		r := NewReader(nil)
		status := NamelistNeedsData
		for i, b := range enc {
			r.Feed([]byte{b})
			status = decodeNames(&d, &got, r)
			if i < len(enc)-1 && len(names) > 0 {
				require.Equal(t, NamelistNeedsData, status, "byte %d of %x", i, enc)
			}
		}
		require.Equal(t, NamelistComplete, status)
		if len(names) == 0 {
			require.Empty(t, got)
			continue
		}
		require.Equal(t, names, got)
	}
}

func TestNamelistLeavesTrailingBytes(t *testing.T) {
	enc := AppendNameList(nil, []string{"a", "bc"})
	enc = append(enc, 0xAA, 0xBB)
	var d NamelistDecoder
	var got []string
	r := NewReader(enc)
	require.Equal(t, NamelistComplete, decodeNames(&d, &got, r))
	require.Equal(t, []string{"a", "bc"}, got)
	rest, _ := r.Peek(r.Len())
	require.Equal(t, []byte{0xAA, 0xBB}, rest)
}

func TestNamelistNameTooBig(t *testing.T) {
	long := strings.Repeat("n", MaxNameLength+1)

	t.Run("complete final name", func(t *testing.T) {
		var d NamelistDecoder
		var got []string
		require.Equal(t, NamelistNameTooBig, decodeNames(&d, &got, NewReader(AppendNameList(nil, []string{long}))))
	})

	t.Run("before delimiter", func(t *testing.T) {
		var d NamelistDecoder
		var got []string
		r := NewReader(AppendNameList(nil, []string{"ok", long, "z"}))
		require.Equal(t, NamelistNameTooBig, decodeNames(&d, &got, r))
		require.Equal(t, []string{"ok"}, got)
	})

	t.Run("partial name", func(t *testing.T) {
		enc := AppendNameList(nil, []string{long + "tail"})
		var d NamelistDecoder
		var got []string
		r := NewReader(enc[:4+MaxNameLength])
		require.Equal(t, NamelistNeedsData, decodeNames(&d, &got, r))
		r.Feed(enc[4+MaxNameLength : 4+MaxNameLength+1])
		require.Equal(t, NamelistNameTooBig, decodeNames(&d, &got, r))
	})
}

func TestNamelistReset(t *testing.T) {
	var d NamelistDecoder
	for _, names := range [][]string{{"one", "two"}, {"three"}} {
		d.Reset()
		var got []string
		require.Equal(t, NamelistComplete, decodeNames(&d, &got, NewReader(AppendNameList(nil, names))))
		require.Equal(t, names, got)
	}
}

func TestValidateNameList(t *testing.T) {
	require.NoError(t, ValidateNameList([]string{"ssh-rsa", "hmac-sha2-256"}))
	require.NoError(t, ValidateNameList(nil))
	for _, bad := range [][]string{{""}, {"a,b"}, {"sp ace"}, {strings.Repeat("x", MaxNameLength+1)}, {"\x01"}} {
		require.ErrorIs(t, ValidateNameList(bad), ErrInvalidNameList, "%q", bad)
	}
	require.True(t, bytes.Equal(AppendNameList(nil, nil), []byte{0, 0, 0, 0}))
}
