package params

import (
	"fmt"
	"sort"
	"strings"
)

// KeyValue is a single configuration pair. Pairs are kept in slices rather
// than maps so that everything derived from them renders in a stable order.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Pairs []KeyValue

func FromMap(m map[string]string) Pairs {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make(Pairs, 0, len(m))
	for _, k := range keys {
		pairs = append(pairs, KeyValue{Key: k, Value: m[k]})
	}
	return pairs
}

// ParseKV splits a "KEY=VALUE" argument. The value may itself contain '='.
func ParseKV(s string) (KeyValue, error) {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return KeyValue{}, fmt.Errorf("params: %q is not KEY=VALUE", s)
	}
	return KeyValue{Key: parts[0], Value: parts[1]}, nil
}

// ParseKVs parses a list of "KEY=VALUE" arguments, keeping their order.
func ParseKVs(args []string) (Pairs, error) {
	var pairs Pairs
	for _, arg := range args {
		kv, err := ParseKV(arg)
		if err != nil {
			return nil, err
		}
		pairs = pairs.Set(kv.Key, kv.Value)
	}
	return pairs, nil
}

func (p Pairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place, or appends the pair
// when the key is new. Declaration order of existing keys is preserved.
func (p Pairs) Set(key string, value string) Pairs {
	for idx, kv := range p {
		if kv.Key == key {
			p[idx].Value = value
			return p
		}
	}
	return append(p, KeyValue{Key: key, Value: value})
}

func (p Pairs) Merge(other Pairs) Pairs {
	merged := make(Pairs, len(p))
	copy(merged, p)
	for _, kv := range other {
		merged = merged.Set(kv.Key, kv.Value)
	}
	return merged
}

func (p Pairs) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, kv := range p {
		keys = append(keys, kv.Key)
	}
	return keys
}

func (p Pairs) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}
