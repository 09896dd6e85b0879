package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var modelFlagKeys = map[string]string{
	"server-type":   "llm.server_type",
	"server-url":    "llm.server_url",
	"llm-name-full": "llm.model",
	"llm-name":      "llm.name",
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("server-type", "", "openai, claude, hf_text_gen or ollama")
	cmd.Flags().String("server-url", "", "model server URL")
	cmd.Flags().String("llm-name-full", "", "model identifier sent to the server")
	cmd.Flags().String("llm-name", "", "short model name used in report file names")
}

// bindFlags binds flags to viper keys so that set flags override config and
// env. Binding happens when a command runs since several commands share keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}
