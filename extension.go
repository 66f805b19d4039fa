package sqldbpool

// DriverExtension is an opaque, driver-kind-specific capability object
// attached to a descriptor. The pool never inspects it; it exists purely so
// callers that do know the concrete driver kind can type-assert it back to
// whatever capability type their DriverExtensionFactory produced.
type DriverExtension interface{}

// DriverExtensionFactory materialises the (optional) DriverExtension for a
// driver kind. A factory that has nothing to offer a kind returns nil,
// which is a valid, common case.
type DriverExtensionFactory interface {
	Create(driverKind string) DriverExtension
}

// NopExtensionFactory is a DriverExtensionFactory that never produces an
// extension. It is the default when a ConnectionRegistry is built without
// one.
type NopExtensionFactory struct{}

var _ DriverExtensionFactory = NopExtensionFactory{}

func (NopExtensionFactory) Create(string) DriverExtension { return nil }
