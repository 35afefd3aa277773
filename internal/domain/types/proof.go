package types

// ProofPoints are the Groth16 proof coordinates as decimal strings.
type ProofPoints struct {
	A []string   `json:"a"`
	B [][]string `json:"b"`
	C []string   `json:"c"`
}

// IssBase64Details locates the issuer claim inside the token payload.
type IssBase64Details struct {
	Value     string `json:"value"`
	IndexMod4 uint8  `json:"indexMod4"`
}

// ProofArtifacts is what the proving service returns for one
// (session, ephemeral public key) pair.
type ProofArtifacts struct {
	ProofPoints      ProofPoints      `json:"proofPoints"`
	IssBase64Details IssBase64Details `json:"issBase64Details"`
	HeaderBase64     string           `json:"headerBase64"`
	AddressSeed      string           `json:"addressSeed"`
}

// ProofRequest carries the inputs of a proof request.
type ProofRequest struct {
	Token              IdentityToken
	EphemeralPublicKey Ed25519Public
	MaxEpoch           uint64
	Randomness         string
	Network            Network
}
