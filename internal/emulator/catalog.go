package emulator

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Game describes one catalog entry: its identifier and the legal controller
// button vocabulary for the console it runs on.
type Game struct {
	ID          string
	Console     string
	Buttons     []string
	Description string
}

var gameboyButtons = []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B", "START", "SELECT"}
var genesisButtons = []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B", "C", "X", "Y", "Z", "START"}

var builtinGames = []Game{
	{ID: "sf2", Console: "genesis", Buttons: genesisButtons, Description: "Street Fighter II"},
	{ID: "super_mario_land", Console: "gameboy", Buttons: gameboyButtons, Description: "Super Mario Land"},
	{ID: "pokemon_red", Console: "gameboy", Buttons: gameboyButtons, Description: "Pokemon Red"},
}

// Catalog is the static registry of playable games. Besides the built-in
// entries it picks up every ROM file found under the configured directory,
// registered with the Game Boy pad profile.
type Catalog struct {
	games map[string]Game
	ids   []string
}

func NewCatalog(romsPath string) *Catalog {
	c := &Catalog{games: make(map[string]Game)}
	for _, g := range builtinGames {
		c.add(g)
	}
	if romsPath != "" {
		c.scanRoms(romsPath)
	}
	sort.Strings(c.ids)
	return c
}

func (c *Catalog) add(g Game) {
	if _, exists := c.games[g.ID]; exists {
		return
	}
	c.games[g.ID] = g
	c.ids = append(c.ids, g.ID)
}

func (c *Catalog) scanRoms(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("⚠️ ROM directory %s not readable: %v", dir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".gb" && ext != ".gbc" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		c.add(Game{ID: stem, Console: "gameboy", Buttons: gameboyButtons})
	}
}

// Lookup returns the game definition and whether it exists.
func (c *Catalog) Lookup(gameID string) (Game, bool) {
	g, ok := c.games[gameID]
	return g, ok
}

// IDs returns all known game identifiers, sorted.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}
