package common

// ZeroSecretKey represents a zero secret key.
var ZeroSecretKey = [32]byte{}

// InfinitePublicKey represents an infinite public key (G1 Point at Infinity).
var InfinitePublicKey = [48]byte{0xC0}

// InfiniteSignature represents an infinite signature (G2 Point at Infinity).
// Self-built execution payload bids carry it in place of a builder signature.
var InfiniteSignature = [96]byte{0xC0}

// CurveOrder is the order of the BLS12-381 scalar field, in base 10.
const CurveOrder = "52435875175126190479447740508185965837690552500527637822603658699938581184513"
