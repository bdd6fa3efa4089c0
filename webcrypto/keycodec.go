package webcrypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
)

// ImportKey decodes key material in one of the six canonical formats
// (pkcs1/pkcs8/spki/sec1/raw/jwk) into the PKCS#8/SPKI DER this
// package's Provider methods expect internally, reporting a "kind"
// string (rsa/ec-P-256/ec-P-384/ec-P-521/ed25519/x25519/raw) the
// caller threads back through CryptoKey.algorithm. JWK component tuples
// arrive as big-endian unsigned integers with no base64; the caller
// performs base64url before this boundary.
func (StdlibProvider) ImportKey(format KeyFormat, data []byte, jwk *JWKComponents) (der []byte, kind string, err error) {
	switch format {
	case FormatPKCS8:
		key, perr := x509.ParsePKCS8PrivateKey(data)
		if perr != nil {
			return nil, "", newErr(KindInvalidData, perr.Error(), perr)
		}
		return data, kindOfKey(key), nil

	case FormatSPKI:
		key, perr := x509.ParsePKIXPublicKey(data)
		if perr != nil {
			return nil, "", newErr(KindInvalidData, perr.Error(), perr)
		}
		return data, kindOfKey(key), nil

	case FormatPKCS1:
		priv, perr := x509.ParsePKCS1PrivateKey(data)
		if perr != nil {
			// PKCS#1 also covers RSA public keys in some WebCrypto polyfills;
			// try that before giving up.
			pub, perr2 := x509.ParsePKCS1PublicKey(data)
			if perr2 != nil {
				return nil, "", newErr(KindInvalidData, perr.Error(), perr)
			}
			spki, merr := x509.MarshalPKIXPublicKey(pub)
			if merr != nil {
				return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
			}
			return spki, "rsa", nil
		}
		pkcs8, merr := x509.MarshalPKCS8PrivateKey(priv)
		if merr != nil {
			return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
		}
		return pkcs8, "rsa", nil

	case FormatSEC1:
		priv, perr := x509.ParseECPrivateKey(data)
		if perr != nil {
			return nil, "", newErr(KindInvalidData, perr.Error(), perr)
		}
		pkcs8, merr := x509.MarshalPKCS8PrivateKey(priv)
		if merr != nil {
			return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
		}
		return pkcs8, kindOfKey(priv), nil

	case FormatRaw:
		// Raw covers AES/HMAC secrets and Ed25519/X25519 key material; the
		// caller (which knows the requested algorithm) disambiguates kind.
		return data, "raw", nil

	case FormatJWK:
		return importJWK(jwk)

	default:
		return nil, "", newErr(KindUnsupportedAlgorithm, "unknown key format", nil)
	}
}

func kindOfKey(key any) string {
	switch k := key.(type) {
	case *rsa.PrivateKey, *rsa.PublicKey:
		return "rsa"
	case *ecdsa.PrivateKey:
		return "ec-" + k.Curve.Params().Name
	case *ecdsa.PublicKey:
		return "ec-" + k.Curve.Params().Name
	case ed25519.PrivateKey, ed25519.PublicKey:
		return "ed25519"
	case *ecdh.PrivateKey:
		return "x25519"
	case *ecdh.PublicKey:
		return "x25519"
	default:
		return ""
	}
}

// ExportKey reverses ImportKey. pkcs8/spki/raw return the stored bytes
// verbatim; pkcs1 and sec1 re-encode deterministically from the parsed
// key structure.
func (StdlibProvider) ExportKey(format KeyFormat, der []byte, kind string) ([]byte, *JWKComponents, error) {
	switch format {
	case FormatPKCS8, FormatSPKI, FormatRaw:
		return der, nil, nil

	case FormatPKCS1:
		if kind == "rsa" {
			if priv, perr := x509.ParsePKCS8PrivateKey(der); perr == nil {
				if rp, ok := priv.(*rsa.PrivateKey); ok {
					return x509.MarshalPKCS1PrivateKey(rp), nil, nil
				}
			}
			if pub, perr := x509.ParsePKIXPublicKey(der); perr == nil {
				if rp, ok := pub.(*rsa.PublicKey); ok {
					return x509.MarshalPKCS1PublicKey(rp), nil, nil
				}
			}
		}
		return nil, nil, newErr(KindInvalidKey, "PKCS#1 export requires an RSA key", nil)

	case FormatSEC1:
		priv, perr := x509.ParsePKCS8PrivateKey(der)
		if perr != nil {
			return nil, nil, newErr(KindInvalidKey, perr.Error(), perr)
		}
		ecPriv, ok := priv.(*ecdsa.PrivateKey)
		if !ok {
			return nil, nil, newErr(KindInvalidKey, "SEC1 export requires an EC private key", nil)
		}
		out, merr := x509.MarshalECPrivateKey(ecPriv)
		if merr != nil {
			return nil, nil, newErr(KindOperationFailed, merr.Error(), merr)
		}
		return out, nil, nil

	case FormatJWK:
		comp, eerr := exportJWK(der, kind)
		return nil, comp, eerr

	default:
		return nil, nil, newErr(KindUnsupportedAlgorithm, "unknown key format", nil)
	}
}

func importJWK(jwk *JWKComponents) (der []byte, kind string, err error) {
	if jwk == nil {
		return nil, "", newErr(KindInvalidData, "missing JWK components", nil)
	}
	switch jwk.KeyType {
	case "oct":
		return jwk.K, "raw", nil

	case "OKP":
		switch jwk.Curve {
		case "Ed25519":
			if len(jwk.Priv) > 0 {
				return ed25519.NewKeyFromSeed(jwk.Priv), "ed25519", nil
			}
			return jwk.X, "ed25519", nil
		case "X25519":
			if len(jwk.Priv) > 0 {
				return jwk.Priv, "x25519", nil
			}
			return jwk.X, "x25519", nil
		}
		return nil, "", newErr(KindUnsupportedAlgorithm, "unsupported OKP curve "+jwk.Curve, nil)

	case "EC":
		ec := ellipticCurve(ECCurve(jwk.Curve))
		if ec == nil {
			return nil, "", newErr(KindUnsupportedAlgorithm, "unsupported EC curve "+jwk.Curve, nil)
		}
		if len(jwk.Priv) > 0 {
			priv := new(ecdsa.PrivateKey)
			priv.Curve = ec
			priv.D = new(big.Int).SetBytes(jwk.Priv)
			priv.X, priv.Y = ec.ScalarBaseMult(jwk.Priv)
			pkcs8, merr := x509.MarshalPKCS8PrivateKey(priv)
			if merr != nil {
				return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
			}
			return pkcs8, "ec-" + ec.Params().Name, nil
		}
		pub := &ecdsa.PublicKey{Curve: ec, X: new(big.Int).SetBytes(jwk.X), Y: new(big.Int).SetBytes(jwk.Y)}
		spki, merr := x509.MarshalPKIXPublicKey(pub)
		if merr != nil {
			return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
		}
		return spki, "ec-" + ec.Params().Name, nil

	case "RSA":
		pub := &rsa.PublicKey{N: new(big.Int).SetBytes(jwk.N), E: int(new(big.Int).SetBytes(jwk.E).Int64())}
		if len(jwk.D) == 0 {
			spki, merr := x509.MarshalPKIXPublicKey(pub)
			if merr != nil {
				return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
			}
			return spki, "rsa", nil
		}
		priv := &rsa.PrivateKey{
			PublicKey: *pub,
			D:         new(big.Int).SetBytes(jwk.D),
			Primes: []*big.Int{
				new(big.Int).SetBytes(jwk.P),
				new(big.Int).SetBytes(jwk.Q),
			},
		}
		if err := priv.Validate(); err != nil {
			return nil, "", newErr(KindInvalidKey, err.Error(), err)
		}
		priv.Precompute()
		pkcs8, merr := x509.MarshalPKCS8PrivateKey(priv)
		if merr != nil {
			return nil, "", newErr(KindOperationFailed, merr.Error(), merr)
		}
		return pkcs8, "rsa", nil

	default:
		return nil, "", newErr(KindUnsupportedAlgorithm, "unsupported JWK kty "+jwk.KeyType, nil)
	}
}

func exportJWK(der []byte, kind string) (*JWKComponents, error) {
	switch kind {
	case "raw", "aes", "hmac":
		return &JWKComponents{KeyType: "oct", K: der}, nil

	case "ed25519":
		switch len(der) {
		case ed25519.PrivateKeySize:
			priv := ed25519.PrivateKey(der)
			return &JWKComponents{KeyType: "OKP", Curve: "Ed25519", Priv: priv.Seed(), X: priv.Public().(ed25519.PublicKey)}, nil
		case ed25519.PublicKeySize:
			return &JWKComponents{KeyType: "OKP", Curve: "Ed25519", X: der}, nil
		}
		return nil, newErr(KindInvalidKey, "malformed Ed25519 key", nil)

	case "x25519":
		if priv, perr := ecdh.X25519().NewPrivateKey(der); perr == nil {
			return &JWKComponents{KeyType: "OKP", Curve: "X25519", Priv: priv.Bytes(), X: priv.PublicKey().Bytes()}, nil
		}
		return &JWKComponents{KeyType: "OKP", Curve: "X25519", X: der}, nil

	case "rsa":
		if priv, perr := x509.ParsePKCS8PrivateKey(der); perr == nil {
			if rp, ok := priv.(*rsa.PrivateKey); ok {
				comp := &JWKComponents{
					KeyType: "RSA",
					N:       rp.N.Bytes(), E: big.NewInt(int64(rp.E)).Bytes(),
					D: rp.D.Bytes(),
				}
				if len(rp.Primes) >= 2 {
					comp.P, comp.Q = rp.Primes[0].Bytes(), rp.Primes[1].Bytes()
				}
				if rp.Precomputed.Dp != nil {
					comp.DP, comp.DQ, comp.QI = rp.Precomputed.Dp.Bytes(), rp.Precomputed.Dq.Bytes(), rp.Precomputed.Qinv.Bytes()
				}
				return comp, nil
			}
		}
		pub, perr := x509.ParsePKIXPublicKey(der)
		if perr != nil {
			return nil, newErr(KindInvalidKey, perr.Error(), perr)
		}
		rp, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, newErr(KindInvalidKey, "not an RSA key", nil)
		}
		return &JWKComponents{KeyType: "RSA", N: rp.N.Bytes(), E: big.NewInt(int64(rp.E)).Bytes()}, nil

	default:
		if len(kind) > 3 && kind[:3] == "ec-" {
			if priv, perr := x509.ParsePKCS8PrivateKey(der); perr == nil {
				if ep, ok := priv.(*ecdsa.PrivateKey); ok {
					return &JWKComponents{
						KeyType: "EC", Curve: webCryptoCurveName(ep.Curve.Params().Name),
						X: ep.X.Bytes(), Y: ep.Y.Bytes(), Priv: ep.D.Bytes(),
					}, nil
				}
			}
			pub, perr := x509.ParsePKIXPublicKey(der)
			if perr != nil {
				return nil, newErr(KindInvalidKey, perr.Error(), perr)
			}
			ep, ok := pub.(*ecdsa.PublicKey)
			if !ok {
				return nil, newErr(KindInvalidKey, "not an EC key", nil)
			}
			return &JWKComponents{KeyType: "EC", Curve: webCryptoCurveName(ep.Curve.Params().Name), X: ep.X.Bytes(), Y: ep.Y.Bytes()}, nil
		}
		return nil, newErr(KindUnsupportedAlgorithm, "unsupported key kind "+kind, nil)
	}
}

// webCryptoCurveName maps Go's elliptic.CurveParams.Name ("P-256") which
// already matches WebCrypto's naming; kept as a seam in case a future
// curve's Go name ever diverges from its WebCrypto name.
func webCryptoCurveName(goName string) string { return goName }
