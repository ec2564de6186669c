package cart

// DefaultFleet returns the fixed fleet the service is seeded with when no
// cart collection exists yet. Ward names and floor assignments come from the
// hospital deployment this service was built for; ids are stable and must
// not be renumbered.
func DefaultFleet() []Cart {
	return []Cart{
		{ID: 1, Name: "chir A", Floor: 1, State: StateKitchen, Active: true},
		{ID: 2, Name: "Chir B1", Floor: 1, State: StateKitchen, Active: true},
		{ID: 3, Name: "Chir B2", Floor: 1, State: StateService, Active: true},
		{ID: 4, Name: "Chir C", Floor: 1, State: StateKitchen, Active: true},
		{ID: 5, Name: "Med A", Floor: 1, State: StateService, Active: true},
		{ID: 6, Name: "Med B", Floor: 1, State: StateKitchen, Active: true},
		{ID: 7, Name: "Med C", Floor: 1, State: StateKitchen, Active: true},
		{ID: 8, Name: "Med D", Floor: 2, State: StateService, Active: true},
		{ID: 9, Name: "Med E", Floor: 2, State: StateKitchen, Active: true},
		{ID: 10, Name: "Mat", Floor: 2, State: StateKitchen, Active: true},
		{ID: 11, Name: "Ped", Floor: 2, State: StateService, Active: true},
		{ID: 12, Name: "Privé", Floor: 3, State: StateKitchen, Active: true},
		{ID: 13, Name: "Demi Privé", Floor: 3, State: StateKitchen, Active: true},
		{ID: 14, Name: "Urgence", Floor: 0, State: StateService, Active: true},
		{ID: 15, Name: "Onco", Floor: 0, State: StateKitchen, Active: true},
		{ID: 16, Name: "HDJ", Floor: 1, State: StateKitchen, Active: true},
		{ID: 17, Name: "Soins", Floor: 0, State: StateKitchen, Active: true},
	}
}
