package sendmany

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequests(t *testing.T) {
	dest1 := taprootAddr(t, 1).EncodeAddress()
	dest2 := segwitAddr(t, 2).EncodeAddress()
	id1 := testInscription(1, 0)
	id2 := testInscription(2, 3)

	input := "\ufeff" + id1.String() + "," + dest1 + "\r\n" + id2.String() + "," + dest2 + "\n"
	requests, err := LoadRequests(strings.NewReader(input), testParams)
	require.NoError(t, err)
	require.Equal(t, 2, requests.Len())

	entries := requests.Entries()
	assert.Equal(t, id1, entries[0].Id)
	assert.Equal(t, 1, entries[0].Line)
	assert.Equal(t, dest1, entries[0].Destination.String())
	assert.Equal(t, id2, entries[1].Id)
	assert.Equal(t, 2, entries[1].Line)

	entry, ok := requests.Lookup(id2)
	require.True(t, ok)
	assert.Equal(t, dest2, entry.Destination.Address.EncodeAddress())
	_, ok = requests.Lookup(testInscription(9, 0))
	assert.False(t, ok)
}

func TestLoadRequestsErrors(t *testing.T) {
	dest := taprootAddr(t, 1).EncodeAddress()
	id := testInscription(1, 0).String()
	testnetDest := "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"

	tests := []struct {
		name  string
		input string
		kind  common.ErrorKind
		line  int
		msg   string
	}{
		{"empty file", "", common.FormatError, 0, "empty"},
		{"no comma", id + "\n", common.FormatError, 1, "no comma on line 1"},
		{"bad id", "abc," + dest + "\n", common.FormatError, 1, "bad inscriptionid on line 1"},
		{"bad address", id + ",xyz\n", common.FormatError, 1, "bad address"},
		{"wrong network", id + "," + testnetDest + "\n", common.FormatError, 1, "bad network for address"},
		{"extra field", id + "," + dest + ",1\n", common.FormatError, 1, "too many fields on line 1"},
		{"blank line", id + "," + dest + "\n\n", common.FormatError, 2, "empty line 2"},
		{"duplicate", id + "," + dest + "\n" + id + "," + dest + "\n", common.ConsistencyError, 2, "duplicate entry for " + id + " on line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRequests(strings.NewReader(tt.input), testParams)
			require.Error(t, err)
			assert.Equal(t, tt.kind, common.KindOf(err))
			assert.Contains(t, err.Error(), tt.msg)

			var e *common.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.line, e.Line)
		})
	}
}

func TestLoadRequestsNetwork(t *testing.T) {
	testnetDest := "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	input := testInscription(1, 0).String() + "," + testnetDest
	requests, err := LoadRequests(strings.NewReader(input), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	assert.Equal(t, 1, requests.Len())
}
