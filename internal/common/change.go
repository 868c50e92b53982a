package common

// ChangeVariant specifies what kind of change is being distributed.
type ChangeVariant string

// Change is a payload which can be distributed to external observers.
type Change interface {
	Variant() ChangeVariant
	MarshalJSON() ([]byte, error)
}
