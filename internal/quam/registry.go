package quam

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]func() Component)
	classNames = make(map[reflect.Type]string)
	byType     = make(map[reflect.Type]func() Component)
)

// Register makes a component class known under name. The factory must return
// a component with its defaults filled in; it is used when loading JSON.
// Registering the same name twice panics.
func Register(name string, factory func() Component) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, dup := factories[name]; dup {
		panic(fmt.Sprintf("quam: class %q registered twice", name))
	}
	t := reflect.TypeOf(factory())
	factories[name] = factory
	if _, ok := classNames[t]; !ok {
		classNames[t] = name
		byType[t] = factory
	}
}

// New constructs a registered class.
func New(name string) (Component, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	return factory(), nil
}

// ClassName returns the registered name of c's type, or "".
func ClassName(c Component) string {
	if c == nil {
		return ""
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	return classNames[reflect.TypeOf(c)]
}

// Classes lists registered class names in sorted order.
func Classes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func factoryFor(t reflect.Type) (func() Component, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := byType[t]
	return f, ok
}
