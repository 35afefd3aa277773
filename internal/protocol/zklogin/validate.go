package zklogin

import (
	"math/big"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

// ValidateArtifacts checks that a proof artifact set is complete and well formed
// before anything is derived from it.
func ValidateArtifacts(a domain.ProofArtifacts) error {
	if err := checkPoint("a", a.ProofPoints.A, 3); err != nil {
		return err
	}
	if len(a.ProofPoints.B) != 3 {
		return errors.Errorf("proof point b: want 3 rows, got %d", len(a.ProofPoints.B))
	}
	for _, row := range a.ProofPoints.B {
		if err := checkPoint("b", row, 2); err != nil {
			return err
		}
	}
	if err := checkPoint("c", a.ProofPoints.C, 3); err != nil {
		return err
	}
	if a.IssBase64Details.Value == "" {
		return errors.New("issBase64Details.value is empty")
	}
	if a.IssBase64Details.IndexMod4 > 3 {
		return errors.Errorf("issBase64Details.indexMod4 out of range: %d", a.IssBase64Details.IndexMod4)
	}
	if a.HeaderBase64 == "" {
		return errors.New("headerBase64 is empty")
	}
	if _, err := ParseAddressSeed(a.AddressSeed); err != nil {
		return err
	}
	return nil
}

func checkPoint(name string, coords []string, want int) error {
	if len(coords) != want {
		return errors.Errorf("proof point %s: want %d coordinates, got %d", name, want, len(coords))
	}
	for _, c := range coords {
		if _, ok := new(big.Int).SetString(c, 10); !ok {
			return errors.Errorf("proof point %s: coordinate %q is not decimal", name, c)
		}
	}
	return nil
}
