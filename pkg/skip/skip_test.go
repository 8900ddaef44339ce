package skip

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		id       string
		expected bool
	}{
		{"village_elder_villager_01", true},
		{"bandit_boss_chief", false},
		{"sea_raiders_grunt", true},
		{"random_traveler", false},
		{"looter", true},
		{"spc_wanderer_1", true},
		{"mountain_bandits_raider", true},
		{"forest_bandits_boss", false},
		{"lord_boss", true},
		{"boss_of_lords", true},
		{"desert_bandits", true},
		{"Looter", false},
		{"LORD_1_1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldSkip(tt.id))
		})
	}
}

func TestShouldSkip_CommonRuleBeatsBoss(t *testing.T) {
	ids := []string{
		"lord_boss",
		"boss_lord",
		"lord_1_1_boss",
		"sea_raiders_boss_lord",
		"bandits_boss_lord",
	}
	for _, id := range ids {
		assert.True(t, ShouldSkip(id), id)
	}
}

func TestRules_Match(t *testing.T) {
	r, ok := DefaultRules.Match("sea_raiders_boss")
	require.True(t, ok)
	assert.Equal(t, "boss", r.Name)

	_, ok = DefaultRules.Match("caravan_master")
	assert.False(t, ok)

	var empty Rules
	assert.False(t, empty.ShouldSkip("looter"))
}

func TestParseRules(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rules, err := ParseRules([]byte(`
rules:
  - name: deserters
    contains: [deserter]
    skip: true
  - name: everyone else
    contains: ["_"]
    skip: false
`))
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.True(t, rules.ShouldSkip("imperial_deserter"))
		assert.False(t, rules.ShouldSkip("looter_1"))
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := ParseRules([]byte("rules: []\n"))
		assert.Error(t, err)
	})

	t.Run("empty substring", func(t *testing.T) {
		_, err := ParseRules([]byte(`
rules:
  - name: all
    contains: [""]
    skip: true
`))
		assert.ErrorContains(t, err, "empty substring")
	})

	t.Run("rule without substrings", func(t *testing.T) {
		_, err := ParseRules([]byte(`
rules:
  - skip: true
`))
		assert.ErrorContains(t, err, "rule #1: no substrings")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseRules([]byte("rules: [\n"))
		assert.Error(t, err)
	})

	t.Run("round trip of defaults", func(t *testing.T) {
		data, err := DefaultRules.Marshal()
		require.NoError(t, err)

		rules, err := ParseRules(data)
		require.NoError(t, err)
		assert.Equal(t, DefaultRules, rules)
	})
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - contains: [caravan]\n    skip: true\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.True(t, rules.ShouldSkip("caravan_guard"))

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: []\n"), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	assert.False(t, w.Changed())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - contains: [a]\n"), 0o644))

	assert.Eventually(t, w.Changed, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_Errors(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "rules.yaml"))
	require.NoError(t, err)
	defer w.Close()

	assert.Empty(t, w.Errors())

	overflow := errors.New("event queue overflow")
	w.errs <- overflow
	assert.Equal(t, []error{overflow}, w.Errors())
	assert.Empty(t, w.Errors(), "errors are reported once")
}
