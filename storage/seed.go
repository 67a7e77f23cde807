package storage

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rio-inventory/inventory/storage/model"
)

// SeedOptions configures Seed
type SeedOptions struct {
	// Reset clears all tables before seeding
	Reset bool
	// Bulk is the number of generated assets added for pagination testing
	Bulk int
	// RandSeed makes the generated assets reproducible
	RandSeed uint64
}

type seedUser struct {
	oid, email, name, department string
}

var (
	seedLocations = []model.AddLocation{
		{AddNamed: model.AddNamed{Name: "Büro Zürich"}, Description: "Hauptsitz"},
		{AddNamed: model.AddNamed{Name: "Büro Bern"}, Description: "Zweigniederlassung"},
		{AddNamed: model.AddNamed{Name: "Hauptlager"}, Description: "Keller UG"},
	}
	seedManufacturers = []string{"Dell", "Apple", "Logitech", "HP"}
	seedStatuses      = []string{"An Lager", "Im Betrieb", "In Reparatur", "Ausgemustert"}
	seedSuppliers     = []string{"TechData AG", "Apple Business"}
	seedAssetTypes    = []string{"Notebook", "Monitor", "Maus", "Dockingstation", "Tastatur"}
	seedUsers         = []seedUser{
		{"ea60d443-71b8-4121-8647-4ea830365524", "l.brunner@example.com", "Lars Brunner", "IT"},
		{"5327c84c-6121-47c7-b335-1b4b317558a6", "m.muster@example.com", "Martina Muster", "Marketing"},
		{"3ab87443-02e8-4432-8675-cdb73efe1cb7", "p.pan@example.com", "Peter Pan", "Sales"},
	}
)

// seedAsset references the seeded reference rows by their index in the
// slices above; -1 leaves the optional user empty
type seedAsset struct {
	inv, model, serial            string
	price                         float64
	bought                        model.Date
	typ, man, status, loc, supply int
	user                          int
}

var seedAssets = []seedAsset{
	{"IT-LAP-001", "Latitude 7440", "SN-DELL-001", 2200.50, model.NewDate(2023, 10, 5), 0, 0, 1, 0, 0, 0},
	{"IT-MON-005", "UltraSharp U2723QE", "SN-DELL-002", 850, model.NewDate(2023, 10, 5), 1, 0, 1, 0, 0, 0},
	{"IT-DOC-003", "WD22TB4 Thunderbolt Dock", "SN-DELL-003", 350, model.NewDate(2023, 10, 5), 3, 0, 1, 0, 0, 0},
	{"IT-NB-002", "MacBook Pro 16 M3", "SN-APPLE-001", 3500, model.NewDate(2023, 11, 15), 0, 1, 1, 0, 1, 1},
	{"IT-MON-008", "Studio Display", "SN-APPLE-002", 1800, model.NewDate(2023, 11, 15), 1, 1, 1, 0, 1, 1},
	{"IT-LAP-004", "EliteBook 840 G10", "SN-HP-001", 1950, model.NewDate(2024, 1, 20), 0, 3, 1, 1, 0, 2},
	{"IT-LAP-005", "Latitude 7440", "SN-DELL-004", 2200.50, model.NewDate(2024, 3, 1), 0, 0, 0, 2, 0, -1},
	{"IT-LAP-006", "Latitude 7440", "SN-DELL-005", 2200.50, model.NewDate(2024, 3, 1), 0, 0, 0, 2, 0, -1},
	{"IT-MOU-010", "MX Master 3S", "SN-LOGI-001", 120, model.NewDate(2024, 2, 10), 2, 2, 0, 2, 0, -1},
	{"IT-KEY-007", "MX Keys", "SN-LOGI-002", 130, model.NewDate(2022, 5, 5), 4, 2, 2, 2, 0, -1},
	{"IT-LAP-OLD-099", "MacBook Pro 2018", "SN-APPLE-OLD", 2800, model.NewDate(2018, 7, 15), 0, 1, 3, 2, 1, -1},
}

var bulkModelPrefix = []string{"Latitude", "MacBook", "MX", "EliteBook"}

// Seed fills the database with demo reference data, users and assets
func Seed(ctx context.Context, s *Storage, opts SeedOptions) error {
	if opts.Reset {
		if err := reset(ctx, s.db); err != nil {
			return err
		}
	}

	locations := make([]uint, len(seedLocations))
	for i, l := range seedLocations {
		row, err := s.LocationsStorage().Create(ctx, l)
		if err != nil {
			return errors.Wrapf(err, "seeding location %s", l.Name)
		}
		locations[i] = row.ID
	}
	manufacturers, err := seedNamed(seedManufacturers, func(n model.AddNamed) (uint, error) {
		row, err := s.ManufacturersStorage().Create(ctx, model.AddManufacturer{AddNamed: n})
		if err != nil {
			return 0, err
		}
		return row.ID, nil
	})
	if err != nil {
		return err
	}
	statuses, err := seedNamed(seedStatuses, func(n model.AddNamed) (uint, error) {
		row, err := s.StatusesStorage().Create(ctx, model.AddStatus{AddNamed: n})
		if err != nil {
			return 0, err
		}
		return row.ID, nil
	})
	if err != nil {
		return err
	}
	suppliers, err := seedNamed(seedSuppliers, func(n model.AddNamed) (uint, error) {
		row, err := s.SuppliersStorage().Create(ctx, model.AddSupplier{AddNamed: n})
		if err != nil {
			return 0, err
		}
		return row.ID, nil
	})
	if err != nil {
		return err
	}
	types, err := seedNamed(seedAssetTypes, func(n model.AddNamed) (uint, error) {
		row, err := s.AssetTypesStorage().Create(ctx, model.AddAssetType{AddNamed: n})
		if err != nil {
			return 0, err
		}
		return row.ID, nil
	})
	if err != nil {
		return err
	}
	users := make([]uint, len(seedUsers))
	for i, u := range seedUsers {
		row, err := s.UsersStorage().Create(
			ctx, model.AddUser{
				AzureOID:    u.oid,
				Email:       u.email,
				DisplayName: u.name,
				Department:  u.department,
			},
		)
		if err != nil {
			return errors.Wrapf(err, "seeding user %s", u.name)
		}
		users[i] = row.ID
	}
	actor := users[0]

	assets := s.AssetsStorage()
	for _, a := range seedAssets {
		add := model.AddAsset{
			InventoryNumber: a.inv,
			SerialNumber:    ptr(a.serial),
			Model:           ptr(a.model),
			PurchasePrice:   ptr(a.price),
			PurchaseDate:    ptr(a.bought),
			AssetTypeID:     types[a.typ],
			ManufacturerID:  manufacturers[a.man],
			StatusID:        statuses[a.status],
			LocationID:      locations[a.loc],
			SupplierID:      ptr(suppliers[a.supply]),
		}
		if a.user >= 0 {
			add.UserID = ptr(users[a.user])
		}
		if _, err = assets.CreateWithLog(ctx, add, actor); err != nil {
			return errors.Wrapf(err, "seeding asset %s", a.inv)
		}
	}

	r := rand.New(rand.NewPCG(opts.RandSeed, opts.RandSeed^0x9e3779b97f4a7c15))
	for i := 0; i < opts.Bulk; i++ {
		idx := 1000 + i
		man := r.IntN(len(manufacturers))
		add := model.AddAsset{
			InventoryNumber: fmt.Sprintf("IT-BULK-%04d", idx),
			SerialNumber:    ptr(fmt.Sprintf("SN-BULK-%06d", idx)),
			Model:           ptr(fmt.Sprintf("%s %d", bulkModelPrefix[man], 1+r.IntN(999))),
			PurchasePrice:   ptr(math.Round((80+r.Float64()*3120)*100) / 100),
			PurchaseDate:    ptr(model.NewDate(2023, time.Month(1+r.IntN(12)), 1+r.IntN(28))),
			AssetTypeID:     types[r.IntN(len(types))],
			ManufacturerID:  manufacturers[man],
			StatusID:        statuses[r.IntN(3)],
			LocationID:      locations[r.IntN(len(locations))],
			SupplierID:      ptr(suppliers[0]),
		}
		if u := r.IntN(len(users) + 1); u < len(users) {
			add.UserID = ptr(users[u])
		}
		if _, err = assets.CreateWithLog(ctx, add, actor); err != nil {
			return errors.Wrapf(err, "seeding asset %s", add.InventoryNumber)
		}
	}
	log.WithFields(
		log.Fields{
			"assets": len(seedAssets) + opts.Bulk,
			"users":  len(users),
		},
	).Info("database seeded")
	return nil
}

func seedNamed(names []string, create func(model.AddNamed) (uint, error)) ([]uint, error) {
	ids := make([]uint, len(names))
	for i, n := range names {
		id, err := create(model.AddNamed{Name: n})
		if err != nil {
			return nil, errors.Wrapf(err, "seeding %s", n)
		}
		ids[i] = id
	}
	return ids, nil
}

// reset empties all tables, dependents first
func reset(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(
		func(tx *gorm.DB) error {
			for i := len(models) - 1; i >= 0; i-- {
				if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(models[i]).Error; err != nil {
					return errors.Wrapf(err, "clearing %T", models[i])
				}
			}
			return nil
		},
	)
}

func ptr[T any](v T) *T {
	return &v
}
