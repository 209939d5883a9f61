package synccommittee

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/ssz"
)

// maxChunkSize bounds a single light-client update payload.
const maxChunkSize = 1 << 20

// ForkDigest returns the context bytes of a response for an object at slot.
func ForkDigest(spec *beacon.ChainSpec, slot uint64) [4]byte {
	root := beacon.ForkDataRoot(spec.ForkVersion(slot), spec.GenesisValidatorsRoot)
	return [4]byte(root[:4])
}

// decodeUpdate resolves the schema of one update payload: by fork digest,
// falling back to the first schema the bytes validate against when the
// digest is unknown.
func decodeUpdate(spec *beacon.ChainSpec, digest [4]byte, payload []byte) (ssz.Ob, error) {
	if f, ok := spec.ForkByDigest(digest); ok {
		if f.Schema == nil {
			return ssz.Ob{}, fmt.Errorf("%w: %s update", beacon.ErrUnsupportedFork, f.Name)
		}
		return ssz.New(f.Schema.LightClientUpdate, payload)
	}
	for _, s := range schemas(spec) {
		if ob, err := ssz.New(s.LightClientUpdate, payload); err == nil {
			return ob, nil
		}
	}
	return ssz.Ob{}, fmt.Errorf("%w: unknown fork digest %x", ErrMalformedResponse, digest)
}

// ParseUpdates splits a beacon-API light_client/updates response in SSZ
// encoding. Every chunk is a little-endian uint64 length followed by the
// 4-byte fork digest and the update; the length covers digest and update.
func ParseUpdates(spec *beacon.ChainSpec, data []byte) ([]ssz.Ob, error) {
	var out []ssz.Ob
	for pos := 0; pos < len(data); {
		if len(data)-pos < 12 {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", ErrMalformedResponse, pos)
		}
		n := binary.LittleEndian.Uint64(data[pos:])
		if n < 4 || n > uint64(len(data)-pos-8) {
			return nil, fmt.Errorf("%w: chunk length %d at %d", ErrMalformedResponse, n, pos)
		}
		digest := [4]byte(data[pos+8 : pos+12])
		ob, err := decodeUpdate(spec, digest, data[pos+12:pos+8+int(n)])
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", len(out), err)
		}
		out = append(out, ob)
		pos += 8 + int(n)
	}
	return out, nil
}

// EncodeUpdates builds a light_client/updates response.
func EncodeUpdates(spec *beacon.ChainSpec, updates []ssz.Ob) []byte {
	var out []byte
	for _, u := range updates {
		slot := u.Get("attested_header").Get("beacon").Get("slot").Uint64()
		digest := ForkDigest(spec, slot)
		out = binary.LittleEndian.AppendUint64(out, uint64(len(u.Bytes)+4))
		out = append(out, digest[:]...)
		out = append(out, u.Bytes...)
	}
	return out
}

// ParseP2PUpdates decodes a LightClientUpdatesByRange req/resp stream: each
// chunk is a result byte, the fork digest, the uvarint length of the SSZ
// payload and the payload in snappy framing.
func ParseP2PUpdates(spec *beacon.ChainSpec, data []byte) ([]ssz.Ob, error) {
	r := bytes.NewReader(data)
	var out []ssz.Ob
	for r.Len() > 0 {
		code, _ := r.ReadByte()
		if code != 0 {
			return nil, fmt.Errorf("%w: response code %d", ErrMalformedResponse, code)
		}
		var digest [4]byte
		if _, err := io.ReadFull(r, digest[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated context", ErrMalformedResponse)
		}
		n, err := binary.ReadUvarint(r)
		if err != nil || n > maxChunkSize {
			return nil, fmt.Errorf("%w: payload length", ErrMalformedResponse)
		}
		payload := make([]byte, n)
		if _, err := io.ReadFull(snappy.NewReader(r), payload); err != nil {
			return nil, fmt.Errorf("%w: snappy: %v", ErrMalformedResponse, err)
		}
		ob, err := decodeUpdate(spec, digest, payload)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", len(out), err)
		}
		out = append(out, ob)
	}
	return out, nil
}

// EncodeP2PUpdates builds a LightClientUpdatesByRange response stream.
func EncodeP2PUpdates(spec *beacon.ChainSpec, updates []ssz.Ob) ([]byte, error) {
	var buf bytes.Buffer
	for _, u := range updates {
		slot := u.Get("attested_header").Get("beacon").Get("slot").Uint64()
		digest := ForkDigest(spec, slot)
		buf.WriteByte(0)
		buf.Write(digest[:])
		buf.Write(binary.AppendUvarint(nil, uint64(len(u.Bytes))))
		w := snappy.NewBufferedWriter(&buf)
		if _, err := w.Write(u.Bytes); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ParseBootstrap decodes a light_client/bootstrap SSZ response, choosing
// the schema the bytes validate against.
func ParseBootstrap(spec *beacon.ChainSpec, data []byte) (ssz.Ob, error) {
	var errs []error
	for _, s := range schemas(spec) {
		ob, err := ssz.New(s.LightClientBootstrap, data)
		if err == nil {
			return ob, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return ssz.Ob{}, fmt.Errorf("%w: bootstrap: %w", ErrMalformedResponse, errors.Join(errs...))
}
