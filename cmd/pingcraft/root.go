package main

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "pingcraft",
	Short: "Craft and send raw ICMPv4 echo requests",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "pingcraft.yaml", "Path to the configuration file")
}
