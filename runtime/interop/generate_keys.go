package interop

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
	"github.com/prysmaticlabs/prysm-epbs/crypto/hash"
	"github.com/prysmaticlabs/prysm-epbs/encoding/bytesutil"
)

// DeterministicallyGenerateKeys creates BLS private keys using a fixed curve order according to
// the interop mocked start algorithm: key i is sha256(uint32_le(i) padded to 32 bytes) read as
// a little endian integer, reduced modulo the curve order.
func DeterministicallyGenerateKeys(startIndex, numKeys uint64) ([]bls.SecretKey, []bls.PublicKey, error) {
	order, ok := new(big.Int).SetString(bls.CurveOrder, 10)
	if !ok {
		return nil, nil, errors.New("could not set bls curve order as big int")
	}
	privKeys := make([]bls.SecretKey, numKeys)
	pubKeys := make([]bls.PublicKey, numKeys)
	for i := startIndex; i < startIndex+numKeys; i++ {
		enc := make([]byte, 32)
		binary.LittleEndian.PutUint32(enc, uint32(i))
		h := hash.Hash(enc)
		num := new(big.Int).SetBytes(bytesutil.ReverseByteOrder(h[:]))
		num = num.Mod(num, order)
		priv, err := bls.SecretKeyFromBytes(leftPad32(num.Bytes()))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not create bls secret key at index %d from raw bytes", i)
		}
		privKeys[i-startIndex] = priv
		pubKeys[i-startIndex] = priv.PublicKey()
	}
	return privKeys, pubKeys, nil
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b
	}
	return append(make([]byte, 32-len(b)), b...)
}
