package classify

import "github.com/loggers/logbook/internal/domain/identity"

// Lists holds the configurable allow-lists the classifier consults.
type Lists struct {
	// KnownPlayers are canonical callsigns and aliases that are always combatants.
	KnownPlayers []string
	// Aliases lets a raw label reach a known player through its alias
	// fragments. Nil disables alias lookups.
	Aliases identity.Table
	// Roster is the squadron callsign roster. When non-empty it is authoritative.
	Roster []string
	// FlyableAircraft are player-flyable aircraft/module names.
	FlyableAircraft []string
}

// DefaultKnownPlayers returns the built-in known-player allow-list.
func DefaultKnownPlayers() []string {
	return []string{"machinegun817", "six", "fatal", "drunkbonsai", "bones", "bullet"}
}

// DefaultFlyableAircraft returns the built-in list of player-flyable modules.
// Entries are matched by substring in either direction, so very short names
// such as "Hip" are left out.
func DefaultFlyableAircraft() []string {
	return []string{
		// fixed wing
		"F-14", "F-15", "F-16", "F/A-18", "FA-18", "F-4E", "F-5E", "F-86",
		"A-10", "AV-8B", "A-4E", "Skyhawk", "AJS-37", "Viggen", "JF-17", "M-2000", "Mirage",
		"MiG-15", "MiG-19", "MiG-21", "MiG-29", "Su-25", "Su-27", "Su-33", "J-11",
		"L-39", "C-101", "MB-339", "Yak-52", "Christen Eagle",
		// warbirds
		"P-47", "P-51", "Mustang", "Thunderbolt", "Spitfire", "Bf 109", "Fw 190",
		"Mosquito", "Corsair", "I-16",
		// rotary wing
		"Ka-50", "Black Shark", "Mi-8", "Mi-24", "Hind", "UH-1H", "Huey",
		"AH-64", "Apache", "SA342", "Gazelle", "OH-58", "Kiowa", "CH-47", "Chinook",
		"Havoc", "Black Hawk", "Super Cobra", "Viper", "Venom", "Osprey", "Halo",
		"Helix", "Little Bird", "Cayuse", "Twin Huey", "Super Stallion", "Sea Knight",
	}
}

// DefaultLists returns the built-in lists with an empty roster.
func DefaultLists() Lists {
	return Lists{
		KnownPlayers:    DefaultKnownPlayers(),
		FlyableAircraft: DefaultFlyableAircraft(),
	}
}
