package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"meal-recommender/internal/app"
	"meal-recommender/internal/core/meal"
	"meal-recommender/internal/core/meal/fallback"
	"meal-recommender/internal/infrastructure/config"
	"meal-recommender/internal/pkg/common"
)

// exitCode 推論錯誤種類對應的結束碼
func exitCode(err error) int {
	switch {
	case meal.IsKind(err, meal.InvalidInput):
		return 2
	case meal.IsKind(err, meal.RecipeNotFound):
		return 3
	default:
		return 1
	}
}

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mealctl",
		Short:         "Manage the recipe corpus and meal model, and run predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml/json/toml)")

	cmd.AddCommand(
		newImportCmd(opts),
		newTrainCmd(opts),
		newPredictCmd(opts),
		newSuggestCmd(),
		newInfoCmd(opts),
	)
	return cmd
}

// open 載入設定、初始化日誌並開啟 App
func (o *rootOptions) open() (*app.App, error) {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	if err := common.InitStderrLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <recipes.json>",
		Short: "Filter a recipes.json file and replace the corpus in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			n, err := a.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d recipes\n", n)
			return nil
		},
	}
}

func newTrainCmd(opts *rootOptions) *cobra.Command {
	var (
		name               string
		epochs             int
		batchSize          int
		learningRate       float64
		validationFraction float64
		hiddenLayers       []int
		seed               int64
		maxSamples         int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model bundle from the database corpus and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.Config.Model.TrainConfig()
			flags := cmd.Flags()
			if flags.Changed("epochs") {
				cfg.Epochs = epochs
			}
			if flags.Changed("batch-size") {
				cfg.BatchSize = batchSize
			}
			if flags.Changed("learning-rate") {
				cfg.LearningRate = learningRate
			}
			if flags.Changed("validation-fraction") {
				cfg.ValidationFraction = validationFraction
			}
			if flags.Changed("hidden-layers") {
				cfg.HiddenLayers = hiddenLayers
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}
			if flags.Changed("max-samples") {
				cfg.MaxSamples = maxSamples
			}
			if name == "" {
				name = a.Config.Model.Name
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			b, err := a.Trainer.Run(ctx, name, cfg)
			if err != nil {
				return err
			}
			common.LogInfo("訓練完成", zap.String("name", name), zap.String("version", b.Version))
			return printJSON(cmd.OutOrStdout(), b.Summary())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "bundle name (default: model.name)")
	flags.IntVar(&epochs, "epochs", 0, "training epochs")
	flags.IntVar(&batchSize, "batch-size", 0, "mini-batch size")
	flags.Float64Var(&learningRate, "learning-rate", 0, "Adam learning rate")
	flags.Float64Var(&validationFraction, "validation-fraction", 0, "fraction of rows held out for validation")
	flags.IntSliceVar(&hiddenLayers, "hidden-layers", nil, "hidden layer widths, e.g. 256,128")
	flags.Int64Var(&seed, "seed", 0, "random seed")
	flags.IntVar(&maxSamples, "max-samples", 0, "use at most this many recipes (0 = all)")
	return cmd
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "predict <ingredient>...",
		Short: "Predict a meal from ingredients and print its recipe as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if name == "" {
				name = a.Config.Model.Name
			}
			snap, err := a.Trainer.Load(cmd.Context(), name)
			if err != nil {
				return err
			}

			pred, err := meal.PredictMeal(snap, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pred)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bundle name (default: model.name)")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <ingredient>...",
		Short: "Suggest a meal with the keyword matcher (no model needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), fallback.NewMatcher(fallback.DefaultEntries()).Suggest(args))
			return nil
		},
	}
}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print metadata of a saved model bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if name == "" {
				name = a.Config.Model.Name
			}
			b, err := a.Bundles.Load(cmd.Context(), name)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), b.Summary())
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "bundle name (default: model.name)")
	return cmd
}
