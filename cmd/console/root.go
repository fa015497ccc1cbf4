package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JaimeStill/patentbot/internal/console"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "patentbot-console",
	Short: "Operator console for patentbot",
	Long: `patentbot-console drives a patentbot server from the terminal:
create cases from the office-action documents, run or resume their
pipeline with live progress, and resolve rejected claims one by one.

Configuration (highest to lowest priority):
  1. flags
  2. environment variables (PATENTBOT_CONSOLE_*)
  3. config file ($HOME/.patentbot/console.toml)
  4. defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)
	console.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.patentbot/console.toml)")
	flags.String("url", "", "patentbot API base url")
	flags.String("token", "", "bearer token sent to the API")
	flags.Duration("timeout", 0, "timeout of each API request")

	_ = viper.BindPFlag(console.KeyBaseURL, flags.Lookup("url"))
	_ = viper.BindPFlag(console.KeyToken, flags.Lookup("token"))
	_ = viper.BindPFlag(console.KeyTimeout, flags.Lookup("timeout"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".patentbot"))
		viper.SetConfigName("console")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("PATENTBOT_CONSOLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
}

func newClient() (*console.Client, error) {
	cfg, err := console.ConfigFrom(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return console.NewClient(cfg), nil
}
