package bgthrust

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable used to find conf.toml when no directory is given.
const ConfigEnv = "BGTHRUST_CONFIG"

// Settings are the tunables of the thrust integration.
type Settings struct {
	// MassEpsilon is the mass change (kg) under which the mass is deemed constant.
	MassEpsilon float64
	// RotationThreshold is the largest heading change (degrees) applied to a packed
	// vessel in one tick before reverting to a fixed heading. Zero or less disables it.
	RotationThreshold float64
	// CompletionTolerance is the remaining burn (m/s) at which a maneuver is complete.
	CompletionTolerance float64
	// LoadedResourceProcessing and UnloadedResourceProcessing control whether
	// mass depletion is accounted for in each representation.
	LoadedResourceProcessing   bool
	UnloadedResourceProcessing bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MassEpsilon:                DefaultMassε,
		RotationThreshold:          90,
		CompletionTolerance:        1e-3,
		LoadedResourceProcessing:   true,
		UnloadedResourceProcessing: true,
	}
}

func (s Settings) String() string {
	return fmt.Sprintf("ε=%g rot=%g° tol=%g m/s loaded=%t unloaded=%t", s.MassEpsilon, s.RotationThreshold, s.CompletionTolerance, s.LoadedResourceProcessing, s.UnloadedResourceProcessing)
}

// LoadSettings reads conf.toml from dir, or from $BGTHRUST_CONFIG if dir is empty.
// Missing keys, or a missing file, take their default value.
func LoadSettings(dir string) (Settings, error) {
	def := DefaultSettings()
	if dir == "" {
		dir = os.Getenv(ConfigEnv)
	}
	v := viper.New()
	v.SetDefault("thrust.mass_epsilon", def.MassEpsilon)
	v.SetDefault("thrust.rotation_threshold", def.RotationThreshold)
	v.SetDefault("maneuver.completion_tolerance", def.CompletionTolerance)
	v.SetDefault("resources.loaded", def.LoadedResourceProcessing)
	v.SetDefault("resources.unloaded", def.UnloadedResourceProcessing)
	if dir != "" {
		v.SetConfigName("conf")
		v.SetConfigType("toml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return def, fmt.Errorf("%s/conf.toml: %w", dir, err)
			}
		}
	}
	s := Settings{
		MassEpsilon:                v.GetFloat64("thrust.mass_epsilon"),
		RotationThreshold:          v.GetFloat64("thrust.rotation_threshold"),
		CompletionTolerance:        v.GetFloat64("maneuver.completion_tolerance"),
		LoadedResourceProcessing:   v.GetBool("resources.loaded"),
		UnloadedResourceProcessing: v.GetBool("resources.unloaded"),
	}
	if s.MassEpsilon < 0 || s.CompletionTolerance < 0 {
		return def, fmt.Errorf("%w: negative tolerance in %s", ErrMalformedValue, s)
	}
	return s, nil
}
