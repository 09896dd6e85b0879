package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"examgrader/src/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "examgrader",
	Short: "Answer exams with LLMs and grade the answers",
	Long: `examgrader sends exam questions to language models, collects the answers
into one transcript per exam, and grades transcripts against a rubric.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	settingDefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().IntP("verbosity", "v", 0, "log verbosity; 1 enables debug logs")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit JSON logs")
	viper.BindPFlag("log.verbosity", rootCmd.PersistentFlags().Lookup("verbosity"))
}

func initConfig(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	development := viper.GetBool("log.development")
	if jsonLogs, _ := cmd.Flags().GetBool("log-json"); jsonLogs {
		development = false
	}
	if err := log.Configure(development, viper.GetInt("log.verbosity")); err != nil {
		return err
	}
	if viper.ConfigFileUsed() != "" {
		log.Debug("using config file", "path", viper.ConfigFileUsed())
	}
	return nil
}
