package domain

import "path/filepath"

const (
	// KnobDirName is the name of the directory holding local knob state.
	KnobDirName = ".knob"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "knob.yaml"

	// SettingsFileName is the name of the default file backend document.
	SettingsFileName = "settings.json"

	// DefaultTableName is the table used by the SQL backend when none is configured.
	DefaultTableName = "knob_settings"

	// DefaultRedisPrefix namespaces setting hashes in Redis.
	DefaultRedisPrefix = "knob:"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultSettingsPath returns the default path of the file backend document.
func DefaultSettingsPath() string {
	return filepath.Join(KnobDirName, SettingsFileName)
}
