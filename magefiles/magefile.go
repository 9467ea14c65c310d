//go:build mage

// Package main provides build targets for the storyflow project using Mage.
//
// Usage:
//
//	mage build     Compile the storyflow binary to bin/
//	mage test:all  Run all tests
//	mage test:cover Run tests with coverage
//	mage lint      Run golangci-lint
//	mage clean     Remove build artifacts
//	mage install   Install storyflow to GOPATH/bin
//	mage stats     Print Go LOC counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "storyflow"
	binaryDir  = "bin"
	cmdDir     = "./cmd/storyflow"
)

// Build compiles the storyflow binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install installs the storyflow binary to GOPATH/bin.
func Install() error {
	return sh.RunV(binGo, "install", cmdDir)
}