// Package ioutils provides file system and image processing utilities.
//
// This package contains:
//   - DirStore, the directory-backed download destination
//   - Atomic file writing and directory creation
//   - Image resizing and format conversion for cover art
//
// # File Operations
//
//	store := ioutils.NewDirStore("/music/Road Trip")
//	if ok, _ := store.Exists(ctx, "01 - Song.mp3"); !ok {
//	    err := store.Write(ctx, "01 - Song.mp3", data)
//	}
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Image Processing
//
// The ImageService handles cover art manipulation:
//
//	svc := ioutils.NewImageService()
//
//	// Resize image to fit within 500x500
//	resized, _ := svc.ResizeImage(ctx, imageData, 500, 500)
//
//	// Convert to JPEG
//	jpeg, _ := svc.ConvertToJPEG(ctx, pngData)
package ioutils
