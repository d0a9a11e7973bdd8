package domain

import "slices"

// AppliedMigrationsKey is the reserved setting key of the applied-migrations record.
const AppliedMigrationsKey = "AppliedMigrations"

// AppliedMigrationsSettingKey returns the record key, namespaced by prefix when one is set.
func AppliedMigrationsSettingKey(prefix string) string {
	if prefix == "" {
		return AppliedMigrationsKey
	}
	return prefix + "." + AppliedMigrationsKey
}

// AppliedMigrations maps a setting set to the ordered keys of the migrations applied to it.
// Values are treated as immutable; every mutation returns a new record.
type AppliedMigrations map[string][]string

// Contains reports whether any of keys is recorded for set.
func (a AppliedMigrations) Contains(set string, keys ...string) bool {
	for _, key := range keys {
		if slices.Contains(a[set], key) {
			return true
		}
	}
	return false
}

// Append returns a copy of the record with key appended to set.
func (a AppliedMigrations) Append(set, key string) AppliedMigrations {
	out := a.Clone()
	if !slices.Contains(out[set], key) {
		out[set] = append(out[set], key)
	}
	return out
}

// Remove returns a copy of the record without keys in set. Empty sets are dropped.
func (a AppliedMigrations) Remove(set string, keys ...string) AppliedMigrations {
	out := a.Clone()
	remaining := slices.DeleteFunc(out[set], func(k string) bool {
		return slices.Contains(keys, k)
	})
	if len(remaining) == 0 {
		delete(out, set)
	} else {
		out[set] = remaining
	}
	return out
}

// Clone returns a deep copy of the record.
func (a AppliedMigrations) Clone() AppliedMigrations {
	out := make(AppliedMigrations, len(a))
	for set, keys := range a {
		out[set] = slices.Clone(keys)
	}
	return out
}

// Count returns the total number of recorded migrations.
func (a AppliedMigrations) Count() int {
	n := 0
	for _, keys := range a {
		n += len(keys)
	}
	return n
}
