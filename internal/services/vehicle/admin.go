package vehicle

import (
	"strings"

	"github.com/pkg/errors"

	"zkpass/internal/domain"
)

// Third-party roles accepted by grant_third_party.
const (
	RoleService   uint8 = 1
	RoleInsurance uint8 = 2
)

// RoleName renders an org_type value.
func RoleName(role uint8) string {
	if role == RoleService {
		return "Service"
	}
	return "Insurance"
}

// GrantThirdParty builds the call issuing a ThirdPartyCap to recipient.
func (r Registry) GrantThirdParty(role uint8, name string, recipient domain.Address) (domain.TransactionIntent, error) {
	if role != RoleService && role != RoleInsurance {
		return domain.TransactionIntent{}, errors.Errorf("unknown role %d", role)
	}
	if strings.TrimSpace(name) == "" {
		return domain.TransactionIntent{}, errors.New("partner name is empty")
	}
	if _, err := recipient.Bytes(); err != nil {
		return domain.TransactionIntent{}, errors.Wrap(err, "recipient")
	}
	return domain.TransactionIntent{
		Target: r.target("grant_third_party"),
		Arguments: []domain.Argument{
			domain.ObjectArg(r.AdminCap),
			domain.ObjectArg(r.AuthRegistry),
			domain.PureU8(role),
			domain.PureString(name),
			domain.PureAddress(domain.NormalizeAddress(recipient.String())),
		},
	}, nil
}

// RevokeThirdParty builds the call revoking the capability capID.
func (r Registry) RevokeThirdParty(capID domain.ObjectID) (domain.TransactionIntent, error) {
	if _, err := capID.Bytes(); err != nil {
		return domain.TransactionIntent{}, errors.Wrap(err, "capability id")
	}
	return domain.TransactionIntent{
		Target: r.target("revoke_third_party"),
		Arguments: []domain.Argument{
			domain.ObjectArg(r.AdminCap),
			domain.ObjectArg(r.AuthRegistry),
			domain.PureID(domain.ObjectID(domain.NormalizeAddress(capID.String()))),
		},
	}, nil
}
