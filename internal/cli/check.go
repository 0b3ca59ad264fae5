package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vintageshock/bridge/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the settings file and print the effective snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := app.LoadSettings(viper.GetViper())
		if err != nil {
			return fmt.Errorf("settings invalid (defaults would be used): %w", err)
		}
		settings = settings.Normalized()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config file: %s\n", orNone(viper.ConfigFileUsed()))
		fmt.Fprintf(out, "enabled: %t (damage=%t hurt-other=%t death=%t)\n",
			settings.Enabled, settings.OnDamage, settings.OnHurtOther, settings.OnDeath)
		fmt.Fprintf(out, "base: intensity=%d duration=%.2fs\n", settings.Intensity, settings.DurationSeconds)
		fmt.Fprintf(out, "intensity ramp: enabled=%t step=%.1f%% decay=%.1f%%/%.1fs max=%.1f\n",
			settings.IntensityRamp.Enabled, settings.IntensityRamp.StepPercent,
			settings.IntensityRamp.DecayPercent, settings.IntensityRamp.DecayIntervalSeconds,
			settings.IntensityRamp.Max)
		fmt.Fprintf(out, "duration ramp: enabled=%t step=%.1f%% decay=%.1f%%/%.1fs max=%.1f\n",
			settings.DurationRamp.Enabled, settings.DurationRamp.StepPercent,
			settings.DurationRamp.DecayPercent, settings.DurationRamp.DecayIntervalSeconds,
			settings.DurationRamp.Max)
		fmt.Fprintf(out, "api: base=%s device=%s token=%s\n",
			settings.API.URLBase, orNone(settings.API.DeviceID), maskToken(settings.API.Token))
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	return "(set)"
}
