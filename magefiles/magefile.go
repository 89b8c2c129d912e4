//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const versionPkg = "github.com/manageitwa/payg-tax/cmd/paygtax/cmd.Version"

// Build compiles the server and the CLI into ./bin.
func Build() error {
	mg.Deps(Tidy)
	version := os.Getenv("PAYG_VERSION")
	if version == "" {
		version = "dev"
	}
	fmt.Println(">> Building bin/payg-server ...")
	if err := sh.Run("go", "build", "-o", "bin/payg-server", "./cmd/server"); err != nil {
		return err
	}
	fmt.Println(">> Building bin/paygtax", version, "...")
	return sh.Run("go", "build", "-ldflags", "-X "+versionPkg+"="+version, "-o", "bin/paygtax", "./cmd/paygtax")
}

// Run builds then starts the server.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server ...")
	return sh.RunV("./bin/payg-server")
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests with the race detector.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet, then golangci-lint if available.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts and the local SQLite journal.
func Clean() error {
	fmt.Println(">> Cleaning...")
	if err := sh.Rm("bin"); err != nil {
		return err
	}
	return sh.Rm("payg.db")
}

func init() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "error loading .env file:", err)
	}
}
