package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/rio-inventory/inventory/storage/model"
)

func TestCRUDCreateGetList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	locations := s.LocationsStorage()

	for _, n := range []string{"Zurich", "Bern", "Basel"} {
		if _, err := locations.Create(ctx, model.AddLocation{AddNamed: model.AddNamed{Name: n}}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	page, err := locations.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Bern" {
		t.Fatalf("Expected [Bern], got %+v", page)
	}
	all, err := locations.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 locations with the default limit, got %d", len(all))
	}
	got, err := locations.Get(ctx, all[2].ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Basel" {
		t.Fatalf("Expected Basel, got %s", got.Name)
	}
}

func TestCRUDCreateValidatesAndRejectsDuplicates(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	manufacturers := s.ManufacturersStorage()

	_, err := manufacturers.Create(ctx, model.AddManufacturer{AddNamed: model.AddNamed{Name: "  "}})
	var verr model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for a blank name, got %v", err)
	}

	if _, err = manufacturers.Create(ctx, model.AddManufacturer{AddNamed: model.AddNamed{Name: "Dell"}}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = manufacturers.Create(ctx, model.AddManufacturer{AddNamed: model.AddNamed{Name: "Dell"}})
	var exists model.AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("Expected AlreadyExistsError for a duplicate name, got %v", err)
	}
}

func TestCRUDUpdateAppliesOnlyPresentFields(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	suppliers := s.SuppliersStorage()

	created, err := suppliers.Create(
		ctx, model.AddSupplier{
			AddNamed:      model.AddNamed{Name: "TechData"},
			ContactPerson: "Jane",
		},
	)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := suppliers.Update(
		ctx, created, model.SupplierUpdate{NamedUpdate: model.NamedUpdate{Name: model.Some("TechData AG")}},
	)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "TechData AG" {
		t.Fatalf("Expected the new name, got %s", updated.Name)
	}
	if updated.ContactPerson != "Jane" {
		t.Fatalf("Expected the untouched contact person to stay, got %q", updated.ContactPerson)
	}
	if updated.ID != created.ID {
		t.Fatalf("Expected the id to stay %d, got %d", created.ID, updated.ID)
	}
	if created.Name != "TechData" {
		t.Fatalf("Expected the passed entity to stay unmodified, got %s", created.Name)
	}
}

func TestCRUDUpdateNullClearsColumn(t *testing.T) {
	s := newTestStorage(t)
	f := newFixture(t, s)
	ctx := context.Background()
	assets := s.AssetsStorage()

	add := f.asset("INV-1")
	add.Hostname = ptr("nb-001")
	asset, err := assets.CreateWithLog(ctx, add, f.users[0])
	if err != nil {
		t.Fatalf("CreateWithLog failed: %v", err)
	}
	updated, err := assets.Update(ctx, asset, model.AssetUpdate{Hostname: model.Null[string]()})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Hostname != nil {
		t.Fatalf("Expected hostname to be cleared, got %q", *updated.Hostname)
	}
}

func TestCRUDDeleteMissingIsNotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	removed, err := s.StatusesStorage().Delete(ctx, 4711)
	if removed != nil {
		t.Fatalf("Expected nothing to be removed, got %+v", removed)
	}
	var nf model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}

	_, err = s.StatusesStorage().Get(ctx, 4711)
	if !errors.As(err, &nf) {
		t.Fatalf("Expected NotFoundError from Get, got %v", err)
	}
}

func TestCRUDDeleteReturnsRemovedEntity(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	statuses := s.StatusesStorage()

	created, err := statuses.Create(ctx, model.AddStatus{AddNamed: model.AddNamed{Name: "Retired"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	removed, err := statuses.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed.Name != "Retired" {
		t.Fatalf("Expected the removed status, got %+v", removed)
	}
	count, err := statuses.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected no statuses left, got %d", count)
	}
}

func TestCRUDUpdateRejectsBlankName(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	manufacturers := s.ManufacturersStorage()

	dell, err := manufacturers.Create(ctx, model.AddManufacturer{AddNamed: model.AddNamed{Name: "Dell"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, name := range []model.Optional[string]{model.Null[string](), model.Some(""), model.Some("   ")} {
		_, err = manufacturers.Update(ctx, dell, model.NamedUpdate{Name: name})
		var verr model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected ValidationError for name %v, got %v", name.Value, err)
		}
	}
	got, err := manufacturers.Get(ctx, dell.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Dell" {
		t.Fatalf("Expected the name to stay Dell, got %q", got.Name)
	}

	location, err := s.LocationsStorage().Create(ctx, model.AddLocation{AddNamed: model.AddNamed{Name: "Bern"}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = s.LocationsStorage().Update(
		ctx, location, model.LocationUpdate{NamedUpdate: model.NamedUpdate{Name: model.Null[string]()}},
	)
	var verr model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for a cleared location name, got %v", err)
	}

	renamed, err := s.LocationsStorage().Update(
		ctx, location, model.LocationUpdate{NamedUpdate: model.NamedUpdate{Name: model.Some("  Basel ")}},
	)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if renamed.Name != "Basel" {
		t.Fatalf("Expected the trimmed name, got %q", renamed.Name)
	}
}
