package utils

// AttributeMap is a convenience wrapper for pulling out typed information from a map.
type AttributeMap map[string]interface{}

// Has returns whether or not the given name is in the attributes.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// String returns the string value for the given name, or "" when it is missing or not a string.
func (am AttributeMap) String(name string) string {
	s, _ := am[name].(string)
	return s
}

// Int returns the int value for the given name, or def when it is missing or not a whole number.
func (am AttributeMap) Int(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}
	v, ok := ToInt(x)
	if !ok {
		return def
	}
	return v
}
