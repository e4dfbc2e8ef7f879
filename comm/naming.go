package comm

import (
	"strconv"
	"strings"
)

// Named is implemented by every object that carries a hierarchical name.
type Named interface {
	Name() string
}

// NameMustBeValid panics if the name does not follow the naming
// convention. A name is a series of dot-separated tokens. Each token is a
// capitalized CamelCase element, optionally followed by square-bracket
// indices for elements in a series, such as "Testbed.Node[3]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("name " + name + " is not valid: " + r.(string))
		}
	}()

	for _, token := range strings.Split(name, ".") {
		tokenMustBeValid(token)
	}
}

func tokenMustBeValid(token string) {
	parts := strings.Split(token, "[")
	elemMustBeValid(parts[0])

	for _, p := range parts[1:] {
		if !strings.HasSuffix(p, "]") {
			panic("name bracket must match")
		}

		if _, err := strconv.Atoi(strings.TrimSuffix(p, "]")); err != nil {
			panic("name index must be integer")
		}
	}
}

func elemMustBeValid(elem string) {
	if elem == "" {
		panic("name element must not be empty")
	}

	for _, c := range []string{"_", "\"", "'", "-", " "} {
		if strings.Contains(elem, c) {
			panic("name element must not contain " + c)
		}
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		panic("name element must start with a capital letter")
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}
