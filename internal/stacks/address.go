package stacks

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// c32 is the Crockford base32 alphabet used by the ledger's address encoding.
const c32Alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	checksumLen = 4
	hashLen     = 20
)

// Version byte mapping between the ledger's c32check encoding and the
// base-chain's base58check encoding.
var (
	c32ToB58Version = map[byte]byte{
		22: 0,   // mainnet p2pkh
		20: 5,   // mainnet p2sh
		26: 111, // testnet p2pkh
		21: 196, // testnet p2sh
	}
	b58ToC32Version = map[byte]byte{
		0:   22,
		5:   20,
		111: 26,
		196: 21,
	}
)

// ToBitcoin translates a ledger-native c32check address into its base-chain
// base58check form. The payload hash is identical in both encodings; only the
// alphabet and version byte differ.
func ToBitcoin(stacksAddress string) (string, error) {
	version, hash, err := c32checkDecode(stacksAddress)
	if err != nil {
		return "", fmt.Errorf("failed to decode stacks address %q: %w", stacksAddress, err)
	}
	if len(hash) != hashLen {
		return "", fmt.Errorf("stacks address %q carries a %d-byte hash, want %d", stacksAddress, len(hash), hashLen)
	}

	b58Version, ok := c32ToB58Version[version]
	if !ok {
		return "", fmt.Errorf("unsupported stacks address version %d", version)
	}

	return base58.CheckEncode(hash, b58Version), nil
}

// FromBitcoin translates a base-chain base58check address into the ledger's
// c32check form.
func FromBitcoin(bitcoinAddress string) (string, error) {
	hash, version, err := base58.CheckDecode(bitcoinAddress)
	if err != nil {
		return "", fmt.Errorf("failed to decode bitcoin address %q: %w", bitcoinAddress, err)
	}
	if len(hash) != hashLen {
		return "", fmt.Errorf("bitcoin address %q carries a %d-byte hash, want %d", bitcoinAddress, len(hash), hashLen)
	}

	c32Version, ok := b58ToC32Version[version]
	if !ok {
		return "", fmt.Errorf("unsupported bitcoin address version %d", version)
	}

	return c32checkEncode(c32Version, hash), nil
}

func c32checkEncode(version byte, hash []byte) string {
	payload := make([]byte, 0, len(hash)+checksumLen)
	payload = append(payload, hash...)
	payload = append(payload, c32Checksum(version, hash)...)
	return "S" + string(c32Alphabet[version]) + c32Encode(payload)
}

func c32checkDecode(address string) (byte, []byte, error) {
	if len(address) < 2 || address[0] != 'S' {
		return 0, nil, fmt.Errorf("missing address prefix")
	}

	version := strings.IndexByte(c32Alphabet, normalizeC32(address[1]))
	if version < 0 {
		return 0, nil, fmt.Errorf("invalid version character %q", address[1])
	}

	payload, err := c32Decode(address[2:])
	if err != nil {
		return 0, nil, err
	}
	if len(payload) < checksumLen+1 {
		return 0, nil, fmt.Errorf("payload too short")
	}

	hash := payload[:len(payload)-checksumLen]
	checksum := payload[len(payload)-checksumLen:]
	if string(checksum) != string(c32Checksum(byte(version), hash)) {
		return 0, nil, fmt.Errorf("checksum mismatch")
	}

	return byte(version), hash, nil
}

// c32Checksum is the first four bytes of sha256d over version || hash.
func c32Checksum(version byte, hash []byte) []byte {
	data := make([]byte, 0, len(hash)+1)
	data = append(data, version)
	data = append(data, hash...)
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}

// c32Encode encodes bytes as a big-endian base32 number, preserving leading
// zero bytes as leading '0' characters.
func c32Encode(data []byte) string {
	zeros := 0
	for zeros < len(data) && data[zeros] == 0 {
		zeros++
	}

	num := new(big.Int).SetBytes(data)
	base := big.NewInt(int64(len(c32Alphabet)))
	mod := new(big.Int)

	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		out = append(out, c32Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, c32Alphabet[0])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func c32Decode(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty payload")
	}

	zeros := 0
	for zeros < len(encoded) && normalizeC32(encoded[zeros]) == '0' {
		zeros++
	}

	num := new(big.Int)
	base := big.NewInt(int64(len(c32Alphabet)))
	for i := 0; i < len(encoded); i++ {
		digit := strings.IndexByte(c32Alphabet, normalizeC32(encoded[i]))
		if digit < 0 {
			return nil, fmt.Errorf("invalid character %q", encoded[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(digit)))
	}

	out := make([]byte, zeros, zeros+len(num.Bytes()))
	return append(out, num.Bytes()...), nil
}

// normalizeC32 folds the homoglyphs the encoding tolerates: lowercase input,
// O for 0, L and I for 1.
func normalizeC32(c byte) byte {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch c {
	case 'O':
		return '0'
	case 'L', 'I':
		return '1'
	}
	return c
}
