package manifests_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"
	"testing"

	"pictor/internal/bags"
	"pictor/internal/manifests"
	"pictor/internal/services"
	"pictor/internal/services/description"
	"pictor/internal/testsupport"
)

type fakeGateway struct {
	keys     map[string][2]int // key -> width, height
	uploads  map[string][]byte
	listErr  error
	manifest []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{keys: make(map[string][2]int), uploads: make(map[string][]byte)}
}

func (g *fakeGateway) List(_ context.Context, prefix string) ([]string, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	var out []string
	for k := range g.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	for _, k := range g.manifest {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	// Callers get sorted keys from the real gateway.
	sort.Strings(out)
	return out, nil
}

func (g *fakeGateway) Dimensions(_ context.Context, key string) (int, int, error) {
	dims, ok := g.keys[key]
	if !ok {
		return 0, 0, services.Wrap(services.ErrNotFound, "storage", "dimensions", key, nil)
	}
	return dims[0], dims[1], nil
}

func (g *fakeGateway) Upload(_ context.Context, localPath, key, contentType string, _ map[string]string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	if contentType != "application/json" {
		return errors.New("unexpected content type " + contentType)
	}
	g.uploads[key] = data
	return nil
}

type fakeLookup struct {
	records map[string]*description.Record
}

func (f *fakeLookup) Lookup(_ context.Context, derivedID string) (*description.Record, error) {
	rec, ok := f.records[derivedID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "description", "lookup", derivedID, nil)
	}
	return rec, nil
}

const sourceURI = "/repositories/2/archival_objects/42"

func TestRecreatorRunWithBagRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	derivedID := bags.DeriveIdentifier(sourceURI)
	bag := testsupport.AddBag(t, store, "bag-1")
	bag.DerivedIdentifier = derivedID
	bag.Title = "Board Minutes"
	bag.DisplayDate = "1901"
	bag.Status = bags.StatusCleanedUp
	if err := store.Update(ctx, bag); err != nil {
		t.Fatalf("update: %v", err)
	}

	gateway := newFakeGateway()
	gateway.keys["images/"+derivedID+"_0001"] = [2]int{2480, 3508}
	gateway.keys["images/"+derivedID+"_0002"] = [2]int{2400, 3500}

	recreator := manifests.NewRecreator(cfg, store, gateway, &fakeLookup{}, nil)
	key, err := recreator.Run(ctx, derivedID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if key != "manifests/"+derivedID {
		t.Errorf("key = %q", key)
	}

	data, ok := gateway.uploads[key]
	if !ok {
		t.Fatal("manifest not uploaded")
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("uploaded manifest invalid: %v", err)
	}
	if doc["label"] != "Board Minutes" {
		t.Errorf("label = %v", doc["label"])
	}
	canvases := doc["sequences"].([]any)[0].(map[string]any)["canvases"].([]any)
	if len(canvases) != 2 {
		t.Fatalf("canvases = %d", len(canvases))
	}
}

func TestRecreatorRecoversMissingBag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	derivedID := bags.DeriveIdentifier(sourceURI)
	gateway := newFakeGateway()
	gateway.keys["images/"+derivedID+"_0001"] = [2]int{100, 80}
	lookup := &fakeLookup{records: map[string]*description.Record{
		derivedID: {URI: sourceURI, Title: "Recovered Minutes", Dates: "1903"},
	}}

	recreator := manifests.NewRecreator(cfg, store, gateway, lookup, nil)
	if _, err := recreator.Run(ctx, derivedID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The description record was re-registered as a cleaned-up bag.
	recovered, err := store.GetByDerivedIdentifier(ctx, derivedID)
	if err != nil {
		t.Fatalf("get recovered: %v", err)
	}
	if recovered == nil {
		t.Fatal("bag record not recovered")
	}
	if recovered.Status != bags.StatusCleanedUp || recovered.Title != "Recovered Minutes" {
		t.Errorf("recovered = %+v", recovered)
	}
}

func TestRecreatorRejectsMismatchedRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	gateway := newFakeGateway()
	gateway.keys["images/bogus_0001"] = [2]int{100, 80}
	lookup := &fakeLookup{records: map[string]*description.Record{
		"bogus": {URI: sourceURI, Title: "Wrong Object"},
	}}

	recreator := manifests.NewRecreator(cfg, store, gateway, lookup, nil)
	_, err := recreator.Run(context.Background(), "bogus")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestRecreatorNoStoredImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	derivedID := bags.DeriveIdentifier(sourceURI)
	bag := testsupport.AddBag(t, store, "bag-1")
	bag.DerivedIdentifier = derivedID
	if err := store.Update(context.Background(), bag); err != nil {
		t.Fatalf("update: %v", err)
	}

	recreator := manifests.NewRecreator(cfg, store, newFakeGateway(), &fakeLookup{}, nil)
	_, err := recreator.Run(context.Background(), derivedID)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestRecreatorRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	derivedID := bags.DeriveIdentifier(sourceURI)
	bag := testsupport.AddBag(t, store, "bag-1")
	bag.DerivedIdentifier = derivedID
	bag.Title = "Board Minutes"
	if err := store.Update(ctx, bag); err != nil {
		t.Fatalf("update: %v", err)
	}

	gateway := newFakeGateway()
	gateway.keys["images/"+derivedID+"_0001"] = [2]int{100, 80}
	gateway.manifest = []string{"manifests/" + derivedID}

	recreator := manifests.NewRecreator(cfg, store, gateway, &fakeLookup{}, nil)
	processed, err := recreator.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(processed) != 1 || processed[0] != derivedID {
		t.Fatalf("processed = %v", processed)
	}
	if _, ok := gateway.uploads["manifests/"+derivedID]; !ok {
		t.Error("manifest not re-uploaded")
	}
}
