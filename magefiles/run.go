//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the engine from source.
func (Run) Engine() error {
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "main.go"), withStream()); err != nil {
		return err
	}
	return nil
}

// Imports a scene and exits, for quick pipeline checks.
func (Run) Import(scene string) error {
	if _, err := executeCmd("go", withArgs("run", "main.go", "-scene", scene), withStream()); err != nil {
		return err
	}
	return nil
}
