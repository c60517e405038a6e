//go:build mage

// Package main contains Mage build targets for docxify developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the service expects.
var projectDirs = []string{
	"data",
	".secrets",
	"out",
}

// Init creates the directories used by the journal, the session key and
// batch output.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if err := os.Chmod(".secrets", 0o700); err != nil {
		return fmt.Errorf("restricting .secrets: %w", err)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "docxify"
	cmdPkg  = "./cmd/docxify"
)

// Build compiles the CLI binary into bin/, stamping the version from
// $VERSION (default "dev").
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Doctor builds the CLI and checks that pandoc can be run.
func Doctor() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "doctor")
}

// Serve builds the CLI and starts the web service.
func Serve() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	var st projectStats
	if err := filepath.WalkDir(".", st.visit); err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", st.prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", st.testLines)
	fmt.Printf("Words (documentation):           %d\n", st.docWords)
	for _, path := range st.unlicensed {
		fmt.Printf("missing license header: %s\n", path)
	}
	if len(st.unlicensed) > 0 {
		return fmt.Errorf("%d Go files lack the license header", len(st.unlicensed))
	}
	return nil
}

// licenseHeader opens every Go source file outside magefiles.
const licenseHeader = "// Copyright Mesh Intelligence Inc., 2026. All rights reserved."

// projectStats accumulates counts over one walk of the tree. Go files
// count non-blank lines; Markdown and YAML files count words.
type projectStats struct {
	prodLines  int
	testLines  int
	docWords   int
	unlicensed []string
}

func (st *projectStats) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	if d.IsDir() {
		if ignoredDir(path) {
			return filepath.SkipDir
		}
		return nil
	}

	switch filepath.Ext(path) {
	case ".go":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !bytes.HasPrefix(data, []byte(licenseHeader)) && filepath.Base(filepath.Dir(path)) != "magefiles" {
			st.unlicensed = append(st.unlicensed, path)
		}
		n := nonBlankLines(data)
		if strings.HasSuffix(path, "_test.go") {
			st.testLines += n
		} else {
			st.prodLines += n
		}
	case ".md", ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		st.docWords += len(bytes.Fields(data))
	}
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}

// ignoredDir reports whether the go tool would skip dir: names starting
// with "_" or ".", plus testdata and bin.
func ignoredDir(dir string) bool {
	name := filepath.Base(dir)
	if dir == "." {
		return false
	}
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata" || name == binDir
}
