package vehicle

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"zkpass/internal/domain"
)

// Car is the view of a CarNFT object.
type Car struct {
	ID         domain.ObjectID `json:"id"`
	Owner      domain.Address  `json:"owner"`
	VIN        string          `json:"vin"`
	Brand      string          `json:"brand"`
	Model      string          `json:"model"`
	Year       uint64          `json:"year"`
	Mileage    uint64          `json:"mileage"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	Listed     bool            `json:"isListed"`
	Price      *uint64         `json:"price,omitempty"`
	PassportID domain.ObjectID `json:"passportId,omitempty"`
}

// Record is one entry of a car's service passport.
type Record struct {
	ID          domain.ObjectID `json:"id"`
	Type        uint8           `json:"type"`
	Provider    string          `json:"provider"`
	Description string          `json:"description"`
	Mileage     uint64          `json:"mileage"`
	Timestamp   uint64          `json:"timestamp"`
	Attachments []string        `json:"attachments,omitempty"`
}

// Partner is a third party that was granted a capability.
type Partner struct {
	CapID     domain.ObjectID `json:"capId"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	Recipient domain.Address  `json:"recipient"`
	Revoked   bool            `json:"revoked"`
	GrantedAt time.Time       `json:"grantedAt"`
}

// Reader serves the registry's read side.
type Reader struct {
	objects domain.ObjectReader
	reg     Registry
}

// NewReader returns a Reader for the deployment reg.
func NewReader(objects domain.ObjectReader, reg Registry) *Reader {
	return &Reader{objects: objects, reg: reg}
}

var carOptions = domain.ObjectOptions{ShowContent: true, ShowDisplay: true}

// ListCars returns the cars owned by owner, or every listed car when owner is empty.
func (r *Reader) ListCars(ctx context.Context, owner domain.Address) ([]Car, error) {
	registry, err := r.objects.GetObject(ctx, r.reg.CarRegistry, domain.ObjectOptions{ShowContent: true})
	if err != nil {
		return nil, errors.Wrap(err, "read car registry")
	}
	var ids []domain.ObjectID
	if raw, ok := registry.Fields["all_ids"]; ok {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, errors.Wrap(err, "car registry all_ids")
		}
	}
	for i := range ids {
		ids[i] = normalizeID(ids[i])
	}
	if len(ids) == 0 {
		return nil, nil
	}

	objs, err := r.objects.MultiGetObjects(ctx, ids, carOptions)
	if err != nil {
		return nil, errors.Wrap(err, "read cars")
	}
	var want domain.Address
	if owner != "" {
		want = domain.NormalizeAddress(owner.String())
	}
	cars := make([]Car, 0, len(objs))
	for _, o := range objs {
		car, err := carFromObject(o)
		if err != nil {
			log.Warn().Str("object", o.ObjectID.String()).Err(err).Msg("skipping unreadable car")
			continue
		}
		switch {
		case want != "" && car.Owner == want:
			cars = append(cars, car)
		case want == "" && car.Listed:
			cars = append(cars, car)
		}
	}
	return cars, nil
}

// GetCar returns a car and its passport records, newest first.
func (r *Reader) GetCar(ctx context.Context, id domain.ObjectID) (Car, []Record, error) {
	o, err := r.objects.GetObject(ctx, id, carOptions)
	if err != nil {
		return Car{}, nil, errors.Wrapf(err, "read car %s", id)
	}
	car, err := carFromObject(o)
	if err != nil {
		return Car{}, nil, err
	}
	if car.PassportID == "" {
		return car, nil, nil
	}

	children, err := r.objects.GetDynamicFields(ctx, car.PassportID)
	if err != nil {
		return Car{}, nil, errors.Wrap(err, "list passport records")
	}
	if len(children) == 0 {
		return car, nil, nil
	}
	ids := make([]domain.ObjectID, len(children))
	for i, c := range children {
		ids[i] = c.ObjectID
	}
	objs, err := r.objects.MultiGetObjects(ctx, ids, domain.ObjectOptions{ShowContent: true})
	if err != nil {
		return Car{}, nil, errors.Wrap(err, "read passport records")
	}
	records := make([]Record, 0, len(objs))
	for _, o := range objs {
		rec, err := recordFromObject(o)
		if err != nil {
			log.Warn().Str("object", o.ObjectID.String()).Err(err).Msg("skipping unreadable record")
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	return car, records, nil
}

type grantedEvent struct {
	CapID     domain.ObjectID `json:"cap_id"`
	Name      string          `json:"name"`
	OrgType   number          `json:"org_type"`
	Recipient domain.Address  `json:"recipient"`
}

// ListPartners returns every granted capability, newest first, marking the revoked ones.
func (r *Reader) ListPartners(ctx context.Context) ([]Partner, error) {
	granted, err := r.objects.QueryEvents(ctx, r.reg.EventType("ThirdPartyGranted"))
	if err != nil {
		return nil, errors.Wrap(err, "query grant events")
	}
	revokedEvents, err := r.objects.QueryEvents(ctx, r.reg.EventType("ThirdPartyRevoked"))
	if err != nil {
		return nil, errors.Wrap(err, "query revoke events")
	}
	revoked := make(map[domain.ObjectID]bool, len(revokedEvents))
	for _, e := range revokedEvents {
		var ev struct {
			CapID domain.ObjectID `json:"cap_id"`
		}
		if err := json.Unmarshal(e.ParsedJSON, &ev); err != nil {
			return nil, errors.Wrap(err, "revoke event")
		}
		revoked[normalizeID(ev.CapID)] = true
	}

	partners := make([]Partner, 0, len(granted))
	for _, e := range granted {
		var ev grantedEvent
		if err := json.Unmarshal(e.ParsedJSON, &ev); err != nil {
			return nil, errors.Wrap(err, "grant event")
		}
		capID := normalizeID(ev.CapID)
		partners = append(partners, Partner{
			CapID:     capID,
			Name:      ev.Name,
			Role:      RoleName(uint8(ev.OrgType)),
			Recipient: domain.NormalizeAddress(ev.Recipient.String()),
			Revoked:   revoked[capID],
			GrantedAt: time.UnixMilli(int64(e.TimestampMs)).UTC(),
		})
	}
	sort.SliceStable(partners, func(i, j int) bool { return partners[i].GrantedAt.After(partners[j].GrantedAt) })
	return partners, nil
}

type carFields struct {
	Owner          domain.Address  `json:"owner"`
	VIN            string          `json:"vin"`
	Brand          string          `json:"brand"`
	Model          string          `json:"model"`
	Year           number          `json:"year"`
	CurrentMileage number          `json:"current_mileage"`
	IsListed       bool            `json:"is_listed"`
	Price          json.RawMessage `json:"price"`
	ImageURL       json.RawMessage `json:"image_url"`
	URL            json.RawMessage `json:"url"`
	Passport       *struct {
		Fields struct {
			ID struct {
				ID domain.ObjectID `json:"id"`
			} `json:"id"`
		} `json:"fields"`
	} `json:"passport"`
}

func carFromObject(o domain.Object) (Car, error) {
	if o.Fields == nil {
		return Car{}, errors.Errorf("car %s has no content", o.ObjectID)
	}
	raw, err := json.Marshal(o.Fields)
	if err != nil {
		return Car{}, err
	}
	var f carFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return Car{}, errors.Wrapf(err, "car %s", o.ObjectID)
	}
	car := Car{
		ID:      o.ObjectID,
		VIN:     f.VIN,
		Brand:   f.Brand,
		Model:   f.Model,
		Year:    uint64(f.Year),
		Mileage: uint64(f.CurrentMileage),
		Listed:  f.IsListed,
		ImageURL: ImageURL(firstString(
			o.Display["image_url"], o.Display["url"], f.ImageURL, f.URL,
		)),
	}
	if f.Owner != "" {
		car.Owner = domain.NormalizeAddress(f.Owner.String())
	}
	car.Price = optionalNumber(f.Price)
	if f.Passport != nil && f.Passport.Fields.ID.ID != "" {
		car.PassportID = normalizeID(f.Passport.Fields.ID.ID)
	}
	return car, nil
}

type recordFields struct {
	RecordType  number   `json:"record_type"`
	Provider    string   `json:"provider"`
	Description string   `json:"description"`
	Mileage     number   `json:"mileage"`
	Timestamp   number   `json:"timestamp"`
	Attachments []string `json:"attachments"`
}

func recordFromObject(o domain.Object) (Record, error) {
	if o.Fields == nil {
		return Record{}, errors.Errorf("record %s has no content", o.ObjectID)
	}
	raw, err := json.Marshal(o.Fields)
	if err != nil {
		return Record{}, err
	}
	var f recordFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return Record{}, errors.Wrapf(err, "record %s", o.ObjectID)
	}
	rec := Record{
		ID:          o.ObjectID,
		Type:        uint8(f.RecordType),
		Provider:    f.Provider,
		Description: f.Description,
		Mileage:     uint64(f.Mileage),
		Timestamp:   uint64(f.Timestamp),
	}
	for _, a := range f.Attachments {
		rec.Attachments = append(rec.Attachments, ImageURL(a))
	}
	return rec, nil
}

// firstString returns the first candidate that is a non-empty JSON string.
// Structured values (such as Url wrappers) are ignored.
func firstString(candidates ...json.RawMessage) string {
	for _, c := range candidates {
		var s string
		if len(c) == 0 || json.Unmarshal(c, &s) != nil || s == "" {
			continue
		}
		return s
	}
	return ""
}

func normalizeID(id domain.ObjectID) domain.ObjectID {
	return domain.ObjectID(domain.NormalizeAddress(id.String()))
}

// optionalNumber decodes a Move Option<u64>: null, a bare value or {"vec": [v]}.
func optionalNumber(raw json.RawMessage) *uint64 {
	if len(raw) == 0 {
		return nil
	}
	var n number
	if err := json.Unmarshal(raw, &n); err == nil && string(raw) != "null" {
		v := uint64(n)
		return &v
	}
	var opt struct {
		Vec []number `json:"vec"`
	}
	if err := json.Unmarshal(raw, &opt); err == nil && len(opt.Vec) == 1 {
		v := uint64(opt.Vec[0])
		return &v
	}
	return nil
}

// number decodes Move integers, which the node renders as strings above u32.
type number uint64

func (n *number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "integer %s", b)
	}
	*n = number(v)
	return nil
}
