// Package signing computes signing domains and signing roots and verifies BLS
// signatures over consensus objects.
package signing

import (
	"github.com/pkg/errors"
	ssz "github.com/prysmaticlabs/fastssz"
	fieldparams "github.com/prysmaticlabs/prysm-epbs/config/fieldparams"
	"github.com/prysmaticlabs/prysm-epbs/config/params"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/blocks"
	"github.com/prysmaticlabs/prysm-epbs/consensus-types/primitives"
	"github.com/prysmaticlabs/prysm-epbs/crypto/bls"
)

// ForkVersionByteLength length of fork version byte array.
const ForkVersionByteLength = 4

// DomainByteLength length of domain byte array.
const DomainByteLength = 4

// ErrSigFailedToVerify returns when a signature of a block object(ie attestation, slashing, exit... etc)
// failed to verify.
var ErrSigFailedToVerify = errors.New("signature did not verify")

// ErrNilRegistry is returned when a signer's public key cannot be resolved.
var ErrNilRegistry = errors.New("nil public key")

// ForkData is the container mixed into a signing domain.
type ForkData struct {
	CurrentVersion        [ForkVersionByteLength]byte
	GenesisValidatorsRoot [32]byte
}

// HashTreeRoot ssz hashes the ForkData object
func (f *ForkData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(f)
}

// HashTreeRootWith ssz hashes the ForkData object with a hasher
func (f *ForkData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(f.CurrentVersion[:])
	hh.PutBytes(f.GenesisValidatorsRoot[:])
	hh.Merkleize(indx)
	return nil
}

// SigningData is the container whose root is signed.
type SigningData struct {
	ObjectRoot [32]byte
	Domain     [32]byte
}

// HashTreeRoot ssz hashes the SigningData object
func (s *SigningData) HashTreeRoot() ([32]byte, error) {
	return ssz.HashWithDefaultHasher(s)
}

// HashTreeRootWith ssz hashes the SigningData object with a hasher
func (s *SigningData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(s.ObjectRoot[:])
	hh.PutBytes(s.Domain[:])
	hh.Merkleize(indx)
	return nil
}

// Domain returns the domain version for BLS private key to sign and verify.
//
// Spec pseudocode definition:
//
//	def get_domain(state: BeaconState, domain_type: DomainType, epoch: Epoch=None) -> Domain:
//	  """
//	  Return the signature domain (fork version concatenated with domain type) of a message.
//	  """
//	  epoch = get_current_epoch(state) if epoch is None else epoch
//	  fork_version = state.fork.previous_version if epoch < state.fork.epoch else state.fork.current_version
//	  return compute_domain(domain_type, fork_version, state.genesis_validators_root)
func Domain(fork *blocks.Fork, epoch primitives.Epoch, domainType primitives.DomainType, genesisRoot [32]byte) ([32]byte, error) {
	if fork == nil {
		return [32]byte{}, errors.New("nil fork or domain type")
	}
	forkVersion := fork.CurrentVersion
	if epoch < fork.Epoch {
		forkVersion = fork.PreviousVersion
	}
	return ComputeDomain(domainType, forkVersion, genesisRoot)
}

// ComputeDomain returns the domain version for BLS private key to sign and verify with a zeroed 4-byte
// array as the fork version.
//
// Spec pseudocode definition:
//
//	def compute_domain(domain_type: DomainType, fork_version: Version=None, genesis_validators_root: Root=None) -> Domain:
//	  """
//	  Return the domain for the ``domain_type`` and ``fork_version``.
//	  """
//	  if fork_version is None:
//	      fork_version = GENESIS_FORK_VERSION
//	  if genesis_validators_root is None:
//	      genesis_validators_root = Root()  # all bytes zero by default
//	  fork_data_root = compute_fork_data_root(fork_version, genesis_validators_root)
//	  return Domain(domain_type + fork_data_root[:28])
func ComputeDomain(domainType primitives.DomainType, forkVersion [ForkVersionByteLength]byte, genesisValidatorsRoot [32]byte) ([32]byte, error) {
	forkDataRoot, err := (&ForkData{
		CurrentVersion:        forkVersion,
		GenesisValidatorsRoot: genesisValidatorsRoot,
	}).HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	var d [32]byte
	copy(d[:DomainByteLength], domainType[:])
	copy(d[DomainByteLength:], forkDataRoot[:28])
	return d, nil
}

// GenesisDomain computes a domain with the configured genesis fork version.
func GenesisDomain(domainType primitives.DomainType, genesisValidatorsRoot [32]byte) ([32]byte, error) {
	var v [ForkVersionByteLength]byte
	copy(v[:], params.BeaconConfig().GenesisForkVersion)
	return ComputeDomain(domainType, v, genesisValidatorsRoot)
}

// ComputeSigningRoot computes the root of the object by calculating the hash tree root of the signing data with the given domain.
//
// Spec pseudocode definition:
//
//	def compute_signing_root(ssz_object: SSZObject, domain: Domain) -> Root:
//	  """
//	  Return the signing root for the corresponding signing data.
//	  """
//	  return hash_tree_root(SigningData(
//	      object_root=hash_tree_root(ssz_object),
//	      domain=domain,
//	  ))
func ComputeSigningRoot(object ssz.HashRoot, domain [32]byte) ([32]byte, error) {
	if object == nil {
		return [32]byte{}, errors.New("cannot compute signing root of nil")
	}
	objRoot, err := object.HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	return ComputeSigningRootForRoot(objRoot, domain)
}

// ComputeSigningRootForRoot works the same as ComputeSigningRoot,
// except that gets the root from an argument instead of a callback.
func ComputeSigningRootForRoot(root [32]byte, domain [32]byte) ([32]byte, error) {
	container := &SigningData{
		ObjectRoot: root,
		Domain:     domain,
	}
	return container.HashTreeRoot()
}

// VerifySigningRoot verifies the signing root of an object given its public key, signature and domain.
func VerifySigningRoot(obj ssz.HashRoot, pub [fieldparams.BLSPubkeyLength]byte, signature [fieldparams.BLSSignatureLength]byte, domain [32]byte) error {
	publicKey, err := bls.PublicKeyFromBytes(pub[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to public key")
	}
	sig, err := bls.SignatureFromBytes(signature[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}
	root, err := ComputeSigningRoot(obj, domain)
	if err != nil {
		return errors.Wrap(err, "could not compute signing root")
	}
	if !sig.Verify(publicKey, root[:]) {
		return ErrSigFailedToVerify
	}
	return nil
}

// VerifyAggregateSigningRoot verifies an aggregate signature of several signers
// over the same object.
func VerifyAggregateSigningRoot(obj ssz.HashRoot, pubs [][fieldparams.BLSPubkeyLength]byte, signature [fieldparams.BLSSignatureLength]byte, domain [32]byte) error {
	if len(pubs) == 0 {
		return ErrNilRegistry
	}
	keys := make([]bls.PublicKey, len(pubs))
	for i := range pubs {
		pk, err := bls.PublicKeyFromBytes(pubs[i][:])
		if err != nil {
			return errors.Wrap(err, "could not convert bytes to public key")
		}
		keys[i] = pk
	}
	sig, err := bls.SignatureFromBytes(signature[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}
	root, err := ComputeSigningRoot(obj, domain)
	if err != nil {
		return errors.Wrap(err, "could not compute signing root")
	}
	if !sig.FastAggregateVerify(keys, root) {
		return ErrSigFailedToVerify
	}
	return nil
}

// Sign signs obj under domain with sk and returns the raw signature.
func Sign(obj ssz.HashRoot, domain [32]byte, sk bls.SecretKey) ([fieldparams.BLSSignatureLength]byte, error) {
	root, err := ComputeSigningRoot(obj, domain)
	if err != nil {
		return [fieldparams.BLSSignatureLength]byte{}, err
	}
	var out [fieldparams.BLSSignatureLength]byte
	copy(out[:], sk.Sign(root[:]).Marshal())
	return out, nil
}

// VerifySigningRootForRoot is VerifySigningRoot for an object whose hash tree root
// is already known, such as the epoch signed by a randao reveal.
func VerifySigningRootForRoot(objRoot [32]byte, pub [fieldparams.BLSPubkeyLength]byte, signature [fieldparams.BLSSignatureLength]byte, domain [32]byte) error {
	publicKey, err := bls.PublicKeyFromBytes(pub[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to public key")
	}
	sig, err := bls.SignatureFromBytes(signature[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}
	root, err := ComputeSigningRootForRoot(objRoot, domain)
	if err != nil {
		return errors.Wrap(err, "could not compute signing root")
	}
	if !sig.Verify(publicKey, root[:]) {
		return ErrSigFailedToVerify
	}
	return nil
}

// SignRoot signs an object root under domain with sk.
func SignRoot(objRoot [32]byte, domain [32]byte, sk bls.SecretKey) ([fieldparams.BLSSignatureLength]byte, error) {
	root, err := ComputeSigningRootForRoot(objRoot, domain)
	if err != nil {
		return [fieldparams.BLSSignatureLength]byte{}, err
	}
	var out [fieldparams.BLSSignatureLength]byte
	copy(out[:], sk.Sign(root[:]).Marshal())
	return out, nil
}
