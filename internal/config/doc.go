// Package config provides configuration management for suno-downloader.
//
// This package handles:
//   - Loading and saving settings from JSON or TOML files
//   - Default configuration values
//   - Conversion to model.RunConfig for batch runs
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Music/Suno/{playlist}
//	// 5 concurrent downloads
//	// Cover art embedded in tags
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.toml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.DownloadsPath = "/custom/path/{playlist}"
//	err := settings.Save("/path/to/config.json")
package config
