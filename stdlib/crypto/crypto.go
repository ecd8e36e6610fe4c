// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package crypto registers cryptographic natives for the PROBE standard
// library: SHA-3 family hashing, secp256k1 signature recovery, and the
// post-quantum ML-DSA / SLH-DSA signature schemes.
package crypto

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/cloudflare/circl/sign/slhdsa"
	"golang.org/x/crypto/sha3"

	"github.com/probechain/go-probe/lang/value"
	"github.com/probechain/go-probe/lang/vm"
)

// Register wires every native this package provides into exec.
func Register(exec *vm.Executable) {
	exec.RegisterNative("sha3_256", nativeSHA3256)
	exec.RegisterNative("keccak256", nativeKeccak256)
	exec.RegisterNative("shake256", nativeShake256)
	exec.RegisterNative("secp256k1_recover", nativeSecp256k1Recover)
	exec.RegisterNative("mldsa_verify", nativeMLDSAVerify)
	exec.RegisterNative("slhdsa_verify", nativeSLHDSAVerify)
}

func bytesArg(env *vm.Env, argv []value.Val, i int) []byte {
	if i >= len(argv) || !argv[i].IsString() {
		return nil
	}
	return []byte(env.StringOf(argv[i]))
}

// nativeSHA3256 hashes its single string argument with SHA3-256 and returns
// the digest as a new string.
func nativeSHA3256(env *vm.Env, argv []value.Val) (value.Val, error) {
	sum := sha3.Sum256(bytesArg(env, argv, 0))
	return env.AllocString(string(sum[:]))
}

// nativeKeccak256 hashes with the pre-standardization Keccak-256 variant,
// the hash the secp256k1 address-recovery convention below is built on.
func nativeKeccak256(env *vm.Env, argv []value.Val) (value.Val, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write(bytesArg(env, argv, 0))
	return env.AllocString(string(h.Sum(nil)))
}

// nativeShake256 is a variable-output-length hash: the second argument is
// the desired output byte count.
func nativeShake256(env *vm.Env, argv []value.Val) (value.Val, error) {
	data := bytesArg(env, argv, 0)
	outLen := 32
	if len(argv) > 1 && argv[1].IsNumber() {
		outLen = int(argv[1].Num)
	}
	out := make([]byte, outLen)
	sha3.ShakeSum256(out, data)
	return env.AllocString(string(out))
}

// nativeSecp256k1Recover recovers the signer's address (the low 20 bytes of
// the Keccak-256 hash of the uncompressed public key, following the
// convention the rest of the ProbeChain toolchain already uses) from a
// 32-byte message hash and a 65-byte compact signature in btcec's layout
// (recovery header byte first, then R and S).
func nativeSecp256k1Recover(env *vm.Env, argv []value.Val) (value.Val, error) {
	hash := bytesArg(env, argv, 0)
	sig := bytesArg(env, argv, 1)
	if len(hash) != 32 || len(sig) != 65 {
		return value.Nan(), nil
	}

	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig, hash)
	if err != nil {
		return value.Nan(), nil
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(pub.SerializeUncompressed()[1:])
	digest := h.Sum(nil)
	return env.AllocString(string(digest[len(digest)-20:]))
}

// nativeMLDSAVerify verifies an ML-DSA (Dilithium, NIST security level 3)
// signature, returning a boolean Val rather than an error: a malformed key
// or signature is a verification failure, not a host-level fault.
func nativeMLDSAVerify(env *vm.Env, argv []value.Val) (value.Val, error) {
	msg := bytesArg(env, argv, 0)
	sig := bytesArg(env, argv, 1)
	pubBytes := bytesArg(env, argv, 2)

	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(pubBytes); err != nil {
		return value.Bln(false), nil
	}
	return value.Bln(mode3.Verify(&pk, msg, sig)), nil
}

// slhdsaParams is the SLH-DSA parameter set this native standardizes on:
// the "small" SHA2-128s variant, favoring signature size over verify speed.
var slhdsaParams = slhdsa.ParamIDSHA2128Small

// nativeSLHDSAVerify verifies an SLH-DSA (SPHINCS+) signature.
func nativeSLHDSAVerify(env *vm.Env, argv []value.Val) (value.Val, error) {
	msg := bytesArg(env, argv, 0)
	sig := bytesArg(env, argv, 1)
	pubBytes := bytesArg(env, argv, 2)

	pk, err := slhdsaParams.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return value.Bln(false), nil
	}
	ok, err := slhdsaParams.Verify(pk, msg, sig, nil)
	if err != nil {
		return value.Bln(false), nil
	}
	return value.Bln(ok), nil
}
