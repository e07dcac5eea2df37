//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests of every package.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the unit tests with the race detector, the sync layer is parallel.
func (Test) Race() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./engine/..."), withStream())
	return err
}

// Replays the bundled scenes.
func (Test) Scenes() error {
	_, err := executeCmd("go", withArgs("test", "-run", "TestReplay", "."), withDir("testbed"), withStream())
	return err
}

// Runs go vet, including the printf check on the logging helpers.
func (Test) Vet() error {
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}
