package sendmany

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/sat20-labs/sendmany/common"
)

const byteOrderMark = "\ufeff"

// Destination is a validated address of the active network.
type Destination struct {
	Address  btcutil.Address
	PkScript []byte
}

func NewDestination(addr string, params *chaincfg.Params) (Destination, error) {
	address, err := common.DecodeAddress(addr, params)
	if err != nil {
		return Destination{}, err
	}
	pkScript, err := txscript.PayToAddrScript(address)
	if err != nil {
		return Destination{}, common.NewError(common.FormatError, "bad address %s: %v", addr, err)
	}
	return Destination{Address: address, PkScript: pkScript}, nil
}

func (d Destination) String() string {
	return d.Address.EncodeAddress()
}

type RequestEntry struct {
	Line        int
	Id          common.InscriptionId
	Destination Destination
}

// Requests keeps the entries in file order. Ids are unique.
type Requests struct {
	entries []*RequestEntry
	index   map[common.InscriptionId]*RequestEntry
}

func (r *Requests) Len() int {
	return len(r.entries)
}

func (r *Requests) Entries() []*RequestEntry {
	result := make([]*RequestEntry, len(r.entries))
	copy(result, r.entries)
	return result
}

func (r *Requests) Lookup(id common.InscriptionId) (*RequestEntry, bool) {
	entry, ok := r.index[id]
	return entry, ok
}

func LoadRequestsFromFile(path string, params *chaincfg.Params) (*Requests, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(common.FormatError, err, "can't open request file %s", path)
	}
	defer f.Close()
	return LoadRequests(f, params)
}

// LoadRequests reads one "<inscription-id>,<destination>" record per line.
// The first failing line stops the load.
func LoadRequests(r io.Reader, params *chaincfg.Params) (*Requests, error) {
	requests := &Requests{
		index: make(map[common.InscriptionId]*RequestEntry),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNumber == 1 {
			line = strings.TrimPrefix(line, byteOrderMark)
		}

		entry, err := parseRecord(line, lineNumber, params)
		if err != nil {
			return nil, err
		}
		if prev, ok := requests.index[entry.Id]; ok {
			return nil, common.NewLineError(common.ConsistencyError, lineNumber,
				"duplicate entry for %s on line %d, first seen on line %d", entry.Id, lineNumber, prev.Line)
		}
		requests.entries = append(requests.entries, entry)
		requests.index[entry.Id] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, common.NewLineError(common.FormatError, lineNumber+1,
			"can't read line %d: %v", lineNumber+1, err)
	}

	if len(requests.entries) == 0 {
		return nil, common.NewError(common.FormatError, "request file is empty")
	}
	return requests, nil
}

func parseRecord(line string, lineNumber int, params *chaincfg.Params) (*RequestEntry, error) {
	if line == "" {
		return nil, common.NewLineError(common.FormatError, lineNumber, "empty line %d", lineNumber)
	}
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return nil, common.NewLineError(common.FormatError, lineNumber, "no comma on line %d", lineNumber)
	}
	if len(fields) > 2 {
		return nil, common.NewLineError(common.FormatError, lineNumber,
			"too many fields on line %d: want 2, got %d", lineNumber, len(fields))
	}

	id, err := common.ParseInscriptionId(fields[0])
	if err != nil {
		return nil, common.NewLineError(common.FormatError, lineNumber,
			"bad inscriptionid on line %d: %v", lineNumber, err)
	}
	destination, err := NewDestination(fields[1], params)
	if err != nil {
		return nil, common.NewLineError(common.FormatError, lineNumber, "line %d: %v", lineNumber, err)
	}
	return &RequestEntry{Line: lineNumber, Id: id, Destination: destination}, nil
}
