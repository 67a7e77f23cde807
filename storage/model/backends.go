package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Assets        AssetsStore
	AssetLogs     AssetLogsStore
	AssetTypes    ReferenceStore[AssetType, AddAssetType, NamedUpdate]
	Manufacturers ReferenceStore[Manufacturer, AddManufacturer, NamedUpdate]
	Statuses      ReferenceStore[Status, AddStatus, NamedUpdate]
	Locations     ReferenceStore[Location, AddLocation, LocationUpdate]
	Suppliers     ReferenceStore[Supplier, AddSupplier, SupplierUpdate]
	Users         UsersStore
}
