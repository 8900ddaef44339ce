// Package simhost is an in-memory host engine. It models just enough of a
// campaign (factions, parties, a state stack and game menus) to drive fast
// dialogue end to end in tests and in the console simulator.
package simhost

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/d20"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Faction struct {
	ID      string
	Name    string
	enemies map[*Faction]bool
}

func NewFaction(id, name string) *Faction {
	return &Faction{ID: id, Name: name, enemies: make(map[*Faction]bool)}
}

// DeclareWar puts both factions at war with each other.
func DeclareWar(a, b *Faction) {
	a.enemies[b] = true
	b.enemies[a] = true
}

func (f *Faction) IsAtWarWith(other host.Faction) bool {
	o, ok := other.(*Faction)
	return ok && f.enemies[o]
}

type Character struct {
	ID     string
	Origin string
}

func (c *Character) StringID() string { return c.ID }

func (c *Character) OriginStringID() string {
	if c.Origin == "" {
		return c.ID
	}
	return c.Origin
}

// Party is a map party led by a d20 actor.
type Party struct {
	ID      string
	Faction *Faction
	Leader  *Character
	Actor   *d20.Actor
	Troops  int
	// Pursuing parties cannot be left behind.
	Pursuing bool
}

// PartySpec describes a party to build.
type PartySpec struct {
	ID       string `yaml:"id"`
	Leader   string `yaml:"leader"`
	Origin   string `yaml:"origin,omitempty"`
	HP       int    `yaml:"hp"`
	AC       int    `yaml:"ac"`
	Troops   int    `yaml:"troops"`
	Pursuing bool   `yaml:"pursuing,omitempty"`
}

func NewParty(spec PartySpec, faction *Faction) (*Party, error) {
	hp := spec.HP
	if hp <= 0 {
		hp = 10
	}
	actor, err := d20.NewActor(spec.Leader).
		WithHP(hp).
		WithAC(spec.AC).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build party leader %s: %w", spec.Leader, err)
	}

	return &Party{
		ID:       spec.ID,
		Faction:  faction,
		Leader:   &Character{ID: spec.Leader, Origin: spec.Origin},
		Actor:    actor,
		Troops:   spec.Troops,
		Pursuing: spec.Pursuing,
	}, nil
}

func (p *Party) MapFaction() host.Faction { return p.Faction }

// Strength is what the party brings to a fight.
func (p *Party) Strength() int {
	return p.Troops + p.Actor.AC()
}

// CharacterData pairs a character with its party inside a conversation.
type CharacterData struct {
	character *Character
	party     *Party
}

func NewCharacterData(c *Character, p *Party) *CharacterData {
	return &CharacterData{character: c, party: p}
}

func (d *CharacterData) Character() host.Character { return d.character }
func (d *CharacterData) Party() host.Party         { return d.party }

// DisplayName renders a character id for people: "sea_raiders_boss" becomes
// "Sea Raiders Boss".
func DisplayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}
