package scene

// Field is one editable property as shown by the editor panels.
type Field struct {
	Name  string
	Value string
}

// Describer lists the editable fields of a component in display order.
type Describer interface {
	Describe() []Field
}
