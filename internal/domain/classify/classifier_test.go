package classify_test

import (
	"testing"

	"github.com/loggers/logbook/internal/domain/classify"
	"github.com/loggers/logbook/internal/domain/identity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifierChain(t *testing.T) {
	Convey("Given a classifier with the default lists and no roster", t, func() {
		c := classify.New(classify.DefaultLists())

		Convey("When the label is a known player", func() {
			d := c.Classify("MachineGun817", "Tank", "Enemy Armor")

			Convey("Then it is accepted before any other rule runs", func() {
				So(d.Combatant, ShouldBeTrue)
				So(d.Rule, ShouldEqual, classify.RuleKnownPlayer)
			})
		})

		Convey("When the group looks computer-controlled", func() {
			Convey("Then it is rejected", func() {
				d := c.Classify("Viper 1-1 Maverick", "F-16C Fighting Falcon", "Enemy CAP")
				So(d.Combatant, ShouldBeFalse)
				So(d.Rule, ShouldEqual, classify.RuleAIGroup)
				So(c.IsCombatant("Viper 1-1 Maverick", "F-16C", "AI Flight"), ShouldBeFalse)
				So(c.IsCombatant("Viper 1-1 Maverick", "F-16C", "Threat SAM"), ShouldBeFalse)
			})

			Convey("But AI tokens must be whole words", func() {
				d := c.Classify("Viper 1-1 Maverick", "F-16C", "Airline Escort")
				So(d.Combatant, ShouldBeTrue)
			})
		})

		Convey("When the aircraft is not player-flyable", func() {
			Convey("Then static armor is rejected", func() {
				d := c.Classify("Static Armor RED-B-7-1", "Tank", "")
				So(d.Combatant, ShouldBeFalse)
				So(d.Rule, ShouldEqual, classify.RuleNotFlyable)
			})

			Convey("And ground vehicles are rejected", func() {
				So(c.IsCombatant("Ground-7-1", "Humvee", ""), ShouldBeFalse)
				So(c.IsCombatant("Static Armor RED-DECOY-B-4", "Infantry", ""), ShouldBeFalse)
			})

			Convey("And an empty aircraft is rejected", func() {
				So(c.Classify("Maverick", "", "").Rule, ShouldEqual, classify.RuleNotFlyable)
			})
		})

		Convey("When lexical heuristics decide", func() {
			Convey("Then unit codes are rejected", func() {
				d := c.Classify("1234 Naval Frigate", "F-16C", "")
				So(d.Combatant, ShouldBeFalse)
				So(d.Rule, ShouldEqual, classify.RuleUnitCode)
			})

			Convey("And AI squadron names are rejected", func() {
				for _, label := range []string{"Enfield11", "Colt123", "Dodgepilot4", "Springcas1pilot2", "Uzi1x"} {
					d := c.Classify(label, "F-16C", "")
					So(d.Combatant, ShouldBeFalse)
					So(d.Rule, ShouldEqual, classify.RuleAISquadron)
				}
			})

			Convey("And AI tokens are rejected", func() {
				d := c.Classify("Static Armor RED-B-7-1", "F-16C", "")
				So(d.Combatant, ShouldBeFalse)
				So(d.Rule, ShouldEqual, classify.RuleAIToken)
				So(c.Classify("Blue Air Defense Site", "F-16C", "").Rule, ShouldEqual, classify.RuleAIToken)
			})

			Convey("And flight plus personal names are accepted", func() {
				for _, label := range []string{"Katana 1-1 Jediknight", "Gunner 1 | Machinegun817", "(HHC/229) Six", "Dude - Nomad"} {
					d := c.Classify(label, "F-16C Fighting Falcon", "")
					So(d.Combatant, ShouldBeTrue)
					So(d.Rule, ShouldEqual, classify.RuleCompoundName)
				}
			})

			Convey("And bare alphabetic names are accepted", func() {
				d := c.Classify("Maverick", "F-14B", "")
				So(d.Combatant, ShouldBeTrue)
				So(d.Rule, ShouldEqual, classify.RuleBareName)
			})

			Convey("And anything else falls to the default rejection", func() {
				So(c.Classify("Jo", "F-14B", "").Rule, ShouldEqual, classify.RuleDefault)
				So(c.Classify("R2D2", "F-14B", "").Combatant, ShouldBeFalse)
			})
		})
	})

	Convey("Given a classifier with a squadron roster", t, func() {
		lists := classify.DefaultLists()
		lists.Roster = []string{"Machinegun817", "Jediknight"}
		c := classify.New(lists)

		Convey("When the label contains a roster callsign", func() {
			d := c.Classify("Gunner 1 | Machinegun817", "Mi-24P Hind-F", "")

			Convey("Then it is accepted by the roster rule", func() {
				So(d.Combatant, ShouldBeTrue)
				So(d.Rule, ShouldEqual, classify.RuleRoster)
			})
		})

		Convey("When one side of a compound name is contained by a callsign", func() {
			Convey("Then it is accepted", func() {
				So(c.IsCombatant("Katana 1-1 | Jedi", "F-16C", ""), ShouldBeTrue)
			})
		})

		Convey("When the label matches no roster entry", func() {
			d := c.Classify("Dude - Nomad", "F-16C", "")

			Convey("Then the roster rejects it even though lexical rules would accept", func() {
				So(d.Combatant, ShouldBeFalse)
				So(d.Rule, ShouldEqual, classify.RuleRoster)
			})
		})

		Convey("When a rostered pilot flies a helicopter or tiltrotor module", func() {
			Convey("Then the aircraft gate lets it through", func() {
				for _, aircraft := range []string{
					"Mi-28N Havoc", "UH-60L Black Hawk", "AH-1W Super Cobra", "UH-1Y Venom",
					"MV-22B Osprey", "Mi-26 Halo", "Ka-27 Helix", "MH-6 Little Bird",
					"OH-6 Cayuse", "UH-1N Twin Huey", "CH-53E Super Stallion", "CH-46 Sea Knight",
					"A-4 Skyhawk",
				} {
					d := c.Classify("Katana 1-1 Jediknight", aircraft, "")
					So(d.Rule, ShouldEqual, classify.RuleRoster)
					So(d.Combatant, ShouldBeTrue)
				}
			})
		})

		Convey("When a rostered pilot flies a non-flyable aircraft", func() {
			Convey("Then the aircraft gate still rejects first", func() {
				So(c.Classify("Gunner 1 | Machinegun817", "Humvee", "").Rule, ShouldEqual, classify.RuleNotFlyable)
			})
		})
	})

	Convey("Given a classifier with an alias table", t, func() {
		lists := classify.DefaultLists()
		lists.Aliases = identity.DefaultTable()
		c := classify.New(lists)

		Convey("When a label resolves to a known player through its alias", func() {
			d := c.Classify("Gunner 1 | Machinegun817", "Humvee", "")

			Convey("Then it is accepted as that player", func() {
				So(d.Combatant, ShouldBeTrue)
				So(d.Rule, ShouldEqual, classify.RuleKnownPlayer)
			})
		})

		Convey("When the alias identity is not a known player", func() {
			lists.KnownPlayers = []string{"six"}
			d := classify.New(lists).Classify("Gunner 1 | Machinegun817", "Humvee", "")

			Convey("Then later rules decide", func() {
				So(d.Rule, ShouldEqual, classify.RuleNotFlyable)
			})
		})
	})

	Convey("Given any classifier", t, func() {
		c := classify.New(classify.DefaultLists())

		Convey("Then results are deterministic", func() {
			for i := 0; i < 3; i++ {
				So(c.Classify("Katana 1-1 Jediknight", "F-16C", ""), ShouldResemble, c.Classify("Katana 1-1 Jediknight", "F-16C", ""))
				So(c.IsCombatant("Enfield11", "F-16C", ""), ShouldEqual, c.IsCombatant("Enfield11", "F-16C", ""))
			}
		})

		Convey("Then rule order is fixed", func() {
			So(c.RuleNames(), ShouldResemble, []string{
				classify.RuleKnownPlayer,
				classify.RuleAIGroup,
				classify.RuleNotFlyable,
				classify.RuleRoster,
				classify.RuleUnitCode,
				classify.RuleAISquadron,
				classify.RuleAIToken,
				classify.RuleCompoundName,
				classify.RuleBareName,
				classify.RuleDefault,
			})
		})
	})
}
