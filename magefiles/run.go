//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Replays a scene script, e.g. mage run:replay testbed/scenes/basic.hcl
func (Run) Replay(script string) error {
	fmt.Printf("Replaying %s...\n", script)
	if _, err := executeCmd("go", withArgs("run", ".", "replay", "--color", "--script", script), withStream()); err != nil {
		return err
	}
	return nil
}

// Prints the configuration the replay tool would use.
func (Run) Config() error {
	_, err := executeCmd("go", withArgs("run", ".", "config"), withStream())
	return err
}
