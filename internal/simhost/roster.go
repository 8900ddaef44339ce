package simhost

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed world.yaml
var defaultWorldYAML []byte

// World is a small campaign: the player's party and a roster of parties it
// can meet on the map.
type World struct {
	Player   *Party
	Factions map[string]*Faction
	Parties  map[string]*Party
}

type FactionSpec struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	AtWarWith []string `yaml:"at_war_with,omitempty"`
}

// Preset is a roster party and the faction it fights for.
type Preset struct {
	Faction string    `yaml:"faction"`
	Spec    PartySpec `yaml:",inline"`
}

// WorldSpec is the YAML form of a World.
type WorldSpec struct {
	Factions []FactionSpec `yaml:"factions"`
	Player   PartySpec     `yaml:"player"`
	Parties  []Preset      `yaml:"parties"`
}

// ParseWorld reads a WorldSpec and checks that its references resolve.
func ParseWorld(data []byte) (*WorldSpec, error) {
	var spec WorldSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse world: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *WorldSpec) Validate() error {
	var errs []error
	factions := make(map[string]bool, len(s.Factions))
	for _, f := range s.Factions {
		if f.ID == "" {
			errs = append(errs, errors.New("faction without id"))
			continue
		}
		if factions[f.ID] {
			errs = append(errs, fmt.Errorf("duplicate faction %s", f.ID))
		}
		factions[f.ID] = true
	}
	for _, f := range s.Factions {
		for _, enemy := range f.AtWarWith {
			if !factions[enemy] {
				errs = append(errs, fmt.Errorf("faction %s: at war with unknown faction %s", f.ID, enemy))
			}
		}
	}

	if s.Player.Leader == "" {
		errs = append(errs, errors.New("player has no leader"))
	}

	parties := make(map[string]bool, len(s.Parties))
	for i, p := range s.Parties {
		if p.Spec.ID == "" || p.Spec.Leader == "" {
			errs = append(errs, fmt.Errorf("party #%d: id and leader are required", i+1))
			continue
		}
		if parties[p.Spec.ID] {
			errs = append(errs, fmt.Errorf("duplicate party %s", p.Spec.ID))
		}
		parties[p.Spec.ID] = true
		if !factions[p.Faction] {
			errs = append(errs, fmt.Errorf("party %s: unknown faction %s", p.Spec.ID, p.Faction))
		}
	}
	return errors.Join(errs...)
}

// Build creates the world. The player fights for the first faction.
func (s *WorldSpec) Build() (*World, error) {
	if len(s.Factions) == 0 {
		return nil, errors.New("world has no factions")
	}

	w := &World{
		Factions: make(map[string]*Faction, len(s.Factions)),
		Parties:  make(map[string]*Party, len(s.Parties)),
	}
	for _, f := range s.Factions {
		w.Factions[f.ID] = NewFaction(f.ID, f.Name)
	}
	for _, f := range s.Factions {
		for _, enemy := range f.AtWarWith {
			DeclareWar(w.Factions[f.ID], w.Factions[enemy])
		}
	}

	player, err := NewParty(s.Player, w.Factions[s.Factions[0].ID])
	if err != nil {
		return nil, err
	}
	w.Player = player

	for _, p := range s.Parties {
		faction, ok := w.Factions[p.Faction]
		if !ok {
			return nil, fmt.Errorf("party %s: unknown faction %s", p.Spec.ID, p.Faction)
		}
		party, err := NewParty(p.Spec, faction)
		if err != nil {
			return nil, err
		}
		w.Parties[party.ID] = party
	}
	return w, nil
}

// DefaultWorld builds the embedded campaign. The player fights for the
// empire, which is at war with vlandia and every outlaw faction.
func DefaultWorld() (*World, error) {
	spec, err := ParseWorld(defaultWorldYAML)
	if err != nil {
		return nil, err
	}
	return spec.Build()
}

// Party returns the roster party with id.
func (w *World) Party(id string) (*Party, error) {
	p, ok := w.Parties[id]
	if !ok {
		return nil, fmt.Errorf("unknown party %q", id)
	}
	return p, nil
}

// PartyIDs lists the roster in name order.
func (w *World) PartyIDs() []string {
	ids := make([]string, 0, len(w.Parties))
	for id := range w.Parties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
