package zklogin

import (
	"encoding/base64"

	"github.com/pkg/errors"

	"zkpass/internal/crypto"
	"zkpass/internal/domain"
	"zkpass/internal/protocol/bcs"
)

// ComposeSignature builds the serialized zkLogin signature:
// base64(flag || BCS{inputs, maxEpoch, userSignature}).
//
// userSignature is the serialized ephemeral-key signature over the sponsored
// transaction bytes.
func ComposeSignature(a domain.ProofArtifacts, maxEpoch uint64, userSignature string) (string, error) {
	user, err := base64.StdEncoding.DecodeString(userSignature)
	if err != nil {
		return "", errors.Wrap(err, "decode user signature")
	}
	if len(user) == 0 {
		return "", errors.New("user signature is empty")
	}

	e := bcs.NewEncoder()
	e.U8(crypto.FlagZkLogin)
	// inputs.proofPoints
	e.StringVec(a.ProofPoints.A)
	e.Vec(len(a.ProofPoints.B), func(i int) { e.StringVec(a.ProofPoints.B[i]) })
	e.StringVec(a.ProofPoints.C)
	// inputs.issBase64Details
	e.String(a.IssBase64Details.Value)
	e.U8(a.IssBase64Details.IndexMod4)
	e.String(a.HeaderBase64)
	e.String(a.AddressSeed)

	e.U64(maxEpoch)
	e.BytesVec(user)

	return base64.StdEncoding.EncodeToString(e.Bytes()), nil
}
