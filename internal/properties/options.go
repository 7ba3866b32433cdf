package properties

import (
	"fmt"
	"strconv"
)

// Option is one persisted server.properties entry.
type Option struct {
	Key   string
	Value any
}

// Options is an insertion-ordered set of server.properties values. Setting
// an existing key replaces its value in place.
type Options struct {
	items []Option
	index map[string]int
}

// NewOptions builds Options from pairs, keeping their order.
func NewOptions(pairs ...Option) *Options {
	o := &Options{}
	for _, p := range pairs {
		o.Set(p.Key, p.Value)
	}
	return o
}

// Set stores value under key. Accepted values are strings, bools, and the
// int, uint and float families.
func (o *Options) Set(key string, value any) {
	if o.index == nil {
		o.index = map[string]int{}
	}
	if i, ok := o.index[key]; ok {
		o.items[i].Value = value
		return
	}
	o.index[key] = len(o.items)
	o.items = append(o.items, Option{Key: key, Value: value})
}

// Get returns the value for key.
func (o *Options) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.items[i].Value, true
}

// Has reports whether key is set.
func (o *Options) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Len returns the number of keys.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.items)
}

// Items returns entries in insertion order.
func (o *Options) Items() []Option {
	if o == nil {
		return nil
	}
	return append([]Option(nil), o.items...)
}

// Clone returns an independent copy.
func (o *Options) Clone() *Options {
	c := &Options{}
	for _, it := range o.Items() {
		c.Set(it.Key, it.Value)
	}
	return c
}

// FormatValue renders a scalar the way it is written to server.properties.
func FormatValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
