// ABOUTME: Default configuration values
// ABOUTME: Applied before any file is read
package config

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			TimeoutSeconds: 10,
			Discover:       true,
		},
		Playback: Playback{
			SaveIntervalSeconds: 30,
			SkipSeconds:         15,
			Autoplay:            true,
			Volume:              100,
		},
		Paths: Paths{
			StateDir: "~/.local/share/voxplay",
			LogDir:   "~/.local/share/voxplay/logs",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
