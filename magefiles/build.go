//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles every package.
func (Build) All() error {
	_, err := executeCmd("go", withArgs("build", "./..."), withStream())
	return err
}

// Builds the meshsync binary into bin/.
func (Build) Binary() error {
	mg.Deps(Build.All)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/meshsync", "."), withStream())
	return err
}

// Runs go mod tidy.
func (Build) Tidy() error {
	return goModTidy()
}
