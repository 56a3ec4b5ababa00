package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClassicImages are the faces of the classic board, in deal order
var ClassicImages = []string{
	"1Bulbasaur", "2Ivysaur", "4Charmander", "5Charmeleon", "7Squirtle",
	"8Warturtle", "12Butterfree", "26Raichu", "35Clefairy", "37Vulpix",
	"39Jigglypuff", "43Oddish", "45Vileplume", "48Venonat", "50Diglet",
	"52Meowth", "54Psyduck", "58Growlith", "66Machop", "74Geodude",
	"79Slowpoke", "81Magnemite", "82Magneton", "83Farfetchd", "92Gastly",
	"94Gengar", "101Electrode", "120Staryu", "121Starmie", "129Magikarp",
	"131Lapras", "132Ditto", "134Vaporeon", "135Jolteon", "136Flareon",
	"143Snorlax", "148Dragonair", "149Dragonite", "151Mew", "152Chikorita",
	"155Cyndaquil", "158Totodile", "161Furret", "166Ledian", "172Pichu",
	"173Cleffa", "175Togepi", "176Togetic", "182Bellossom", "183Marill",
}

// ValidateGameConfig validates a board configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Grid size
	if config.Columns < MinGridSize || config.Columns > MaxGridSize {
		return fmt.Errorf("config validation: columns must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Columns)
	}
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}

	// Pairing
	if config.PairMultiplicity < MinMultiplicity || config.PairMultiplicity%2 != 0 {
		return fmt.Errorf("config validation: pair_multiplicity must be an even number >= %d, got %d", MinMultiplicity, config.PairMultiplicity)
	}
	if (config.Columns*config.Rows)%config.PairMultiplicity != 0 {
		return fmt.Errorf("config validation: %dx%d cells cannot be split into groups of %d",
			config.Columns, config.Rows, config.PairMultiplicity)
	}
	if len(config.Images) < config.ImageCount() {
		return fmt.Errorf("config validation: board needs %d images, got %d", config.ImageCount(), len(config.Images))
	}
	seen := make(map[string]bool, len(config.Images))
	for i, img := range config.Images {
		if img == "" {
			return fmt.Errorf("config validation: images[%d] is empty", i)
		}
		if seen[img] {
			return fmt.Errorf("config validation: image %q is listed twice", img)
		}
		seen[img] = true
	}

	// Geometry
	if config.BoardWidth <= 2*config.Padding || config.BoardHeight <= 2*config.Padding {
		return fmt.Errorf("config validation: board %gx%g leaves no room inside padding %g",
			config.BoardWidth, config.BoardHeight, config.Padding)
	}
	if config.Padding < VirtualLaneInset {
		return fmt.Errorf("config validation: padding must be at least %g to fit the virtual lanes, got %g",
			VirtualLaneInset, config.Padding)
	}

	// Clock
	if config.StartingSeconds <= 0 {
		return fmt.Errorf("config validation: starting_seconds must be positive, got %g", config.StartingSeconds)
	}
	if config.MismatchPenalty < 0 {
		return fmt.Errorf("config validation: mismatch_penalty cannot be negative, got %g", config.MismatchPenalty)
	}
	if config.TimerPeriodMS <= 0 {
		return fmt.Errorf("config validation: timer_period_ms must be positive, got %d", config.TimerPeriodMS)
	}
	if config.TimerDecrement < 0 {
		return fmt.Errorf("config validation: timer_decrement cannot be negative, got %g", config.TimerDecrement)
	}
	if config.HighlightMS < 0 || config.DealDelayMS < 0 {
		return fmt.Errorf("config validation: highlight_ms and deal_delay_ms cannot be negative")
	}

	return nil
}

// DefaultConfig returns the classic 16x10 board with four tiles per face
func DefaultConfig() *GameConfig {
	images := make([]string, 40)
	copy(images, ClassicImages)

	return &GameConfig{
		Name:             "classic",
		Description:      "16x10 board, four tiles per face, ten minutes on the clock",
		Columns:          16,
		Rows:             10,
		PairMultiplicity: 4,
		BoardWidth:       1440,
		BoardHeight:      860,
		Padding:          60,
		StartingSeconds:  DefaultStartingSeconds,
		MismatchPenalty:  DefaultMismatchPenalty,
		TimerPeriodMS:    int(DefaultTimerPeriod / time.Millisecond),
		TimerDecrement:   DefaultTimerDecrement,
		HighlightMS:      int(DefaultHighlight / time.Millisecond),
		DealDelayMS:      int(DefaultDealDelay / time.Millisecond),
		Images:           images,
	}
}

// ParseGameConfig decodes a config in JSON or YAML. The format is picked
// from the file extension; anything other than .yaml/.yml is JSON.
func ParseGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse json %s: %w", filename, err)
		}
	}
	return &config, nil
}

// LoadGameConfig loads and validates a board configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := ParseGameConfig(configPath, data)
	if err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// GridFromConfig returns the coordinate mapper for a config
func GridFromConfig(config *GameConfig) Grid {
	return Grid{
		Columns: config.Columns,
		Rows:    config.Rows,
		Width:   config.BoardWidth,
		Height:  config.BoardHeight,
		Padding: config.Padding,
	}
}

// dealKeys returns the ordered multiset of keys for a full deal: the first
// ImageCount images, each repeated PairMultiplicity times.
func dealKeys(config *GameConfig) []ImageKey {
	keys := make([]ImageKey, 0, config.Columns*config.Rows)
	for i := 0; i < config.ImageCount(); i++ {
		for j := 0; j < config.PairMultiplicity; j++ {
			keys = append(keys, ImageKey(config.Images[i]))
		}
	}
	return keys
}
