package interfaces

import (
	"context"

	domaintypes "zkpass/internal/domain/types"
)

// ProofClient requests zero-knowledge proof artifacts from the proving service.
type ProofClient interface {
	RequestProof(ctx context.Context, req domaintypes.ProofRequest) (domaintypes.ProofArtifacts, error)
}

// SponsorClient asks a third party to fund and co-sign a transaction.
type SponsorClient interface {
	RequestSponsorship(
		ctx context.Context,
		kindBytes []byte,
		sender domaintypes.Address,
	) (domaintypes.SponsoredTransaction, error)
}
