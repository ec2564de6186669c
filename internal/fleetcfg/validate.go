package fleetcfg

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/mealrounds/cartsync/internal/cart"
)

// validateCart checks one cart in isolation. Fleet definitions are strict
// where the transition protocol is permissive: here the state must be one of
// the two known values.
func validateCart(c cart.Cart, pos token.Pos) error {
	if c.ID <= 0 {
		return &LoadError{Message: fmt.Sprintf("cart id must be positive, got %d", c.ID), Pos: pos}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &LoadError{Message: fmt.Sprintf("cart %d: name is required", c.ID), Pos: pos}
	}
	if c.Floor < 0 {
		return &LoadError{Message: fmt.Sprintf("cart %d: floor must be >= 0, got %d", c.ID, c.Floor), Pos: pos}
	}
	if c.State != cart.StateKitchen && c.State != cart.StateService {
		return &LoadError{Message: fmt.Sprintf("cart %d: state must be %q or %q, got %q",
			c.ID, cart.StateKitchen, cart.StateService, c.State), Pos: pos}
	}
	return nil
}

// validateFleet checks cross-cart constraints: ids unique, names unique.
//
// Ward names carry accents ("Privé") and may arrive in either Unicode
// composition form depending on the editor that wrote the file, so names
// are compared after NFC normalization.
func validateFleet(fleet []cart.Cart) error {
	ids := make(map[int]bool, len(fleet))
	names := make(map[string]bool, len(fleet))

	for _, c := range fleet {
		if ids[c.ID] {
			return &LoadError{Message: fmt.Sprintf("duplicate cart id %d", c.ID)}
		}
		ids[c.ID] = true

		key := norm.NFC.String(strings.TrimSpace(c.Name))
		if names[key] {
			return &LoadError{Message: fmt.Sprintf("duplicate cart name %q", c.Name)}
		}
		names[key] = true
	}
	return nil
}
