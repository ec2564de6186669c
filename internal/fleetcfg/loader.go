// Package fleetcfg loads cart fleet definitions written in CUE.
//
// Administrators describe the fleet declaratively in .cue files; the loader
// compiles them with the CUE SDK (not a CLI subprocess), decodes the cart
// list, and validates it before the result is handed to the bulk-replace
// operation. This is the one place cart data is validated: the engine itself
// trusts whatever it is given.
package fleetcfg

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/mealrounds/cartsync/internal/cart"
)

// LoadError describes a failure to load or validate a fleet definition.
type LoadError struct {
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load compiles all CUE files in a directory and returns the validated
// fleet. The definition must expose the fleet under the path "fleet.carts",
// for example:
//
//	fleet: carts: [
//		{id: 1, name: "chir A", floor: 1, state: "kitchen", active: true},
//	]
func Load(dir string) ([]cart.Cart, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Message: fmt.Sprintf("fleet directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("accessing fleet directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return Compile(value)
}

// Compile extracts and validates the fleet from an already-built CUE value.
// Split out from Load so tests can compile definitions from strings.
func Compile(value cue.Value) ([]cart.Cart, error) {
	cartsVal := value.LookupPath(cue.ParsePath("fleet.carts"))
	if !cartsVal.Exists() {
		return nil, &LoadError{Message: "fleet.carts not found in definition", Pos: value.Pos()}
	}

	iter, err := cartsVal.List()
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("fleet.carts is not a list: %v", err), Pos: cartsVal.Pos()}
	}

	var fleet []cart.Cart
	for iter.Next() {
		v := iter.Value()

		var c cart.Cart
		if err := v.Decode(&c); err != nil {
			return nil, &LoadError{Message: fmt.Sprintf("decoding cart: %v", err), Pos: v.Pos()}
		}
		if err := validateCart(c, v.Pos()); err != nil {
			return nil, err
		}
		fleet = append(fleet, c)
	}

	if len(fleet) == 0 {
		return nil, &LoadError{Message: "fleet.carts is empty", Pos: cartsVal.Pos()}
	}

	if err := validateFleet(fleet); err != nil {
		return nil, err
	}
	return fleet, nil
}
