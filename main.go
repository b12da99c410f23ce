package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vox/config"
	"vox/doctor"
	"vox/log"
	"vox/toggle"
	"vox/transcriber"
	"vox/update"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var logPath string

	root := &cobra.Command{
		Use:   "vox",
		Short: "Toggle voice recording and transcribe to the clipboard",
		Long: `vox toggles audio recording on and off. Invoke it once to start a
background recording, invoke it again to stop: the captured audio is
transcribed, saved to the transcriptions directory, copied to the clipboard,
and announced with a desktop notification. Bind it to a keybinding.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(configPath, logPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.config/vox/config.toml)")
	root.Flags().StringVar(&logPath, "logpath", "", "log directory path (default: OS-specific location)")
	root.AddCommand(newDoctorCmd(&configPath))
	root.AddCommand(newUpdateCmd())
	return root
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "update",
		Short:        "Update to the latest release",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return update.Run(version)
		},
	}
}

func runToggle(configPath, logPath string) error {
	if dir, err := log.ResolveDir(logPath); err == nil {
		log.SetDir(dir)
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		}
		defer log.Close()
	}

	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		// Defaults are still usable; say why the file was ignored.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		log.Warnf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c := toggle.New(cfg, transcriber.New(cfg))
	return c.Toggle()
}

func newDoctorCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:          "doctor",
		Short:        "Run system diagnostics and exit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Path(*configPath))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
			if code := doctor.Run(cfg); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}
