package vehicle_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zkpass/internal/domain"
	"zkpass/internal/services/vehicle"
)

type fakeReader struct {
	objects map[domain.ObjectID]domain.Object
	fields  map[domain.ObjectID][]domain.DynamicFieldInfo
	events  map[string][]domain.Event
}

func (f *fakeReader) GetObject(_ context.Context, id domain.ObjectID, _ domain.ObjectOptions) (domain.Object, error) {
	return f.objects[id], nil
}

func (f *fakeReader) MultiGetObjects(_ context.Context, ids []domain.ObjectID, _ domain.ObjectOptions) ([]domain.Object, error) {
	var out []domain.Object
	for _, id := range ids {
		if o, ok := f.objects[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeReader) GetDynamicFields(_ context.Context, parent domain.ObjectID) ([]domain.DynamicFieldInfo, error) {
	return f.fields[parent], nil
}

func (f *fakeReader) QueryEvents(_ context.Context, t string) ([]domain.Event, error) {
	return f.events[t], nil
}

func oid(s string) domain.ObjectID { return domain.ObjectID(domain.NormalizeAddress(s)) }

func fields(t *testing.T, m map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	for k, v := range m {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

var reg = vehicle.Registry{
	Package:      oid("0xaa"),
	CarRegistry:  oid("0x10"),
	AuthRegistry: oid("0x11"),
	AdminCap:     oid("0x12"),
}

func newReader(t *testing.T) *fakeReader {
	owner := "0xb0b"
	return &fakeReader{
		objects: map[domain.ObjectID]domain.Object{
			reg.CarRegistry: {
				ObjectRef: domain.ObjectRef{ObjectID: reg.CarRegistry},
				Fields:    fields(t, map[string]any{"all_ids": []string{"0x21", "0x22", "0x23"}}),
			},
			oid("0x21"): {
				ObjectRef: domain.ObjectRef{ObjectID: oid("0x21")},
				Fields: fields(t, map[string]any{
					"owner": owner, "vin": "VIN1", "brand": "Toyota", "model": "Corolla",
					"year": "2019", "current_mileage": "42000", "is_listed": true, "price": "1500",
					"image_url": "blob-1",
					"passport": map[string]any{"fields": map[string]any{"id": map[string]any{"id": "0x31"}}},
				}),
				Display: fields(t, map[string]any{"image_url": "https://cdn.example/car.png"}),
			},
			oid("0x22"): {
				ObjectRef: domain.ObjectRef{ObjectID: oid("0x22")},
				Fields: fields(t, map[string]any{
					"owner": "0xc4", "vin": "VIN2", "year": 2020, "current_mileage": 10,
					"is_listed": false, "price": nil, "image_url": "blob-2",
				}),
			},
			oid("0x23"): {
				ObjectRef: domain.ObjectRef{ObjectID: oid("0x23")},
				Fields: fields(t, map[string]any{
					"owner": owner, "vin": "VIN3", "year": "2021", "current_mileage": "5",
					"is_listed": false, "price": map[string]any{"vec": []string{"99"}},
				}),
			},
			oid("0x41"): {
				ObjectRef: domain.ObjectRef{ObjectID: oid("0x41")},
				Fields: fields(t, map[string]any{
					"record_type": 1, "provider": "Garage", "description": "oil change",
					"mileage": "40000", "timestamp": "1000", "attachments": []string{"blob-a"},
				}),
			},
			oid("0x42"): {
				ObjectRef: domain.ObjectRef{ObjectID: oid("0x42")},
				Fields: fields(t, map[string]any{
					"record_type": 2, "provider": "Insurer", "description": "claim",
					"mileage": "41000", "timestamp": "2000",
				}),
			},
		},
		fields: map[domain.ObjectID][]domain.DynamicFieldInfo{
			oid("0x31"): {{ObjectID: oid("0x41")}, {ObjectID: oid("0x42")}},
		},
	}
}

func TestListCars_ListedOnly(t *testing.T) {
	cars, err := vehicle.NewReader(newReader(t), reg).ListCars(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, cars, 1)

	c := cars[0]
	assert.Equal(t, oid("0x21"), c.ID)
	assert.Equal(t, domain.NormalizeAddress("0xb0b"), c.Owner)
	assert.Equal(t, uint64(2019), c.Year)
	assert.Equal(t, uint64(42000), c.Mileage)
	assert.Equal(t, "https://cdn.example/car.png", c.ImageURL)
	require.NotNil(t, c.Price)
	assert.Equal(t, uint64(1500), *c.Price)
	assert.Equal(t, oid("0x31"), c.PassportID)
}

func TestListCars_ByOwner(t *testing.T) {
	cars, err := vehicle.NewReader(newReader(t), reg).ListCars(context.Background(), "0xB0B")
	require.NoError(t, err)
	require.Len(t, cars, 2)
	assert.Equal(t, "VIN1", cars[0].VIN)
	assert.Equal(t, "VIN3", cars[1].VIN)
	require.NotNil(t, cars[1].Price)
	assert.Equal(t, uint64(99), *cars[1].Price)
	assert.Empty(t, cars[1].ImageURL)
}

func TestListCars_EmptyRegistry(t *testing.T) {
	r := newReader(t)
	r.objects[reg.CarRegistry] = domain.Object{Fields: fields(t, map[string]any{"all_ids": []string{}})}
	cars, err := vehicle.NewReader(r, reg).ListCars(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, cars)
}

func TestGetCar_RecordsNewestFirst(t *testing.T) {
	car, records, err := vehicle.NewReader(newReader(t), reg).GetCar(context.Background(), oid("0x21"))
	require.NoError(t, err)
	assert.Equal(t, "VIN1", car.VIN)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2000), records[0].Timestamp)
	assert.Equal(t, "claim", records[0].Description)
	assert.Equal(t, uint8(1), records[1].Type)
	assert.Equal(t, []string{vehicle.WalrusAggregator + "/blob-a"}, records[1].Attachments)
}

func TestGetCar_WithoutPassport(t *testing.T) {
	car, records, err := vehicle.NewReader(newReader(t), reg).GetCar(context.Background(), oid("0x22"))
	require.NoError(t, err)
	assert.Nil(t, car.Price)
	assert.Equal(t, vehicle.WalrusAggregator+"/blob-2", car.ImageURL)
	assert.Empty(t, records)
}

func TestListPartners(t *testing.T) {
	r := newReader(t)
	event := func(ts uint64, v map[string]any) domain.Event {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return domain.Event{ParsedJSON: b, TimestampMs: ts}
	}
	r.events = map[string][]domain.Event{
		reg.EventType("ThirdPartyGranted"): {
			event(1000, map[string]any{"cap_id": "0x51", "name": "Garage", "org_type": 1, "recipient": "0xa1"}),
			event(3000, map[string]any{"cap_id": "0x52", "name": "Insurer", "org_type": "2", "recipient": "0xa2"}),
		},
		reg.EventType("ThirdPartyRevoked"): {
			event(4000, map[string]any{"cap_id": "0x0000051"}),
		},
	}

	partners, err := vehicle.NewReader(r, reg).ListPartners(context.Background())
	require.NoError(t, err)
	require.Len(t, partners, 2)

	assert.Equal(t, "Insurer", partners[0].Name)
	assert.Equal(t, "Insurance", partners[0].Role)
	assert.False(t, partners[0].Revoked)
	assert.Equal(t, time.UnixMilli(3000).UTC(), partners[0].GrantedAt)

	assert.Equal(t, oid("0x51"), partners[1].CapID)
	assert.Equal(t, "Service", partners[1].Role)
	assert.True(t, partners[1].Revoked)
	assert.Equal(t, domain.NormalizeAddress("0xa1"), partners[1].Recipient)
}

func TestGrantThirdParty(t *testing.T) {
	intent, err := reg.GrantThirdParty(vehicle.RoleService, "Garage", "0xbeef")
	require.NoError(t, err)
	assert.Equal(t, domain.MoveTarget{Package: reg.Package, Module: "vehicle", Function: "grant_third_party"}, intent.Target)
	assert.Equal(t, []domain.Argument{
		domain.ObjectArg(reg.AdminCap),
		domain.ObjectArg(reg.AuthRegistry),
		domain.PureU8(1),
		domain.PureString("Garage"),
		domain.PureAddress(domain.NormalizeAddress("0xbeef")),
	}, intent.Arguments)

	_, err = reg.GrantThirdParty(3, "Garage", "0xbeef")
	assert.Error(t, err)
	_, err = reg.GrantThirdParty(vehicle.RoleInsurance, " ", "0xbeef")
	assert.Error(t, err)
	_, err = reg.GrantThirdParty(vehicle.RoleInsurance, "Ins", "0xzz")
	assert.Error(t, err)
}

func TestRevokeThirdParty(t *testing.T) {
	intent, err := reg.RevokeThirdParty("0x51")
	require.NoError(t, err)
	assert.Equal(t, "revoke_third_party", intent.Target.Function)
	require.Len(t, intent.Arguments, 3)
	assert.Equal(t, domain.PureID(oid("0x51")), intent.Arguments[2])

	_, err = reg.RevokeThirdParty("nope")
	assert.Error(t, err)
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "", vehicle.ImageURL(""))
	assert.Equal(t, "http://x/y.png", vehicle.ImageURL("http://x/y.png"))
	assert.Equal(t, vehicle.WalrusAggregator+"/abc", vehicle.ImageURL("abc"))
}
