package signer

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

const hardenedOffset = 0x80000000

// parsePath splits a BIP-32 path string into its child indexes, applying
// the hardened bit for ' suffixes.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("derivation path %q must start with m/", path)
	}

	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'")
		raw := strings.TrimSuffix(part, "'")
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n >= hardenedOffset {
			return nil, fmt.Errorf("invalid path component %q", part)
		}
		if hardened {
			n += hardenedOffset
		}
		indexes = append(indexes, uint32(n))
	}
	return indexes, nil
}

// serializePath encodes a path for device transport: a component count byte
// followed by each index as big-endian uint32.
func serializePath(path string) ([]byte, error) {
	indexes, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 1, 1+4*len(indexes))
	out[0] = byte(len(indexes))
	for _, idx := range indexes {
		out = binary.BigEndian.AppendUint32(out, idx)
	}
	return out, nil
}
