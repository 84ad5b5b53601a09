package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/auth"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/config"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/kiosk"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/logger"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/offline"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/queue"
	"github.com/subir-ghosh-au26/Manthan-2025/internal/submit"
)

type kioskApp struct {
	configPath *string

	cfg     *config.Config
	log     zerolog.Logger
	client  *submit.Client
	manager *offline.Manager
	session *kiosk.Session
	closers []func() error
}

// setup loads config and builds the queue, client and session. A store that
// cannot be opened leaves the kiosk running with every submit sent directly.
func (a *kioskApp) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if *a.configPath != "" {
		cfg, err = config.LoadFile(*a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.InitWithWriter(cfg.Logging.Level, "console", os.Stderr)
	a.log = logger.Component("kiosk")

	a.client = submit.NewClient(cfg.Kiosk.ServerURL, cfg.Kiosk.SubmitTimeout, a.log)
	a.manager = offline.NewManager(a.openStore(), a.client, a.log)
	a.session = kiosk.NewSession(a.manager, a.client, a.client, cfg.Kiosk.ProbeInterval, a.log)
	return nil
}

func (a *kioskApp) openStore() offline.Store {
	storeCfg := a.cfg.Kiosk.Store

	switch storeCfg.Driver {
	case "redis":
		redisClient, err := queue.NewRedisClient(a.cfg)
		if err != nil {
			a.log.Warn().Err(err).Msg("Pending queue store unavailable")
			return offline.Unavailable{Reason: err}
		}
		a.closers = append(a.closers, redisClient.Close)
		return offline.NewRedisStore(redisClient.Client(), storeCfg.Key)
	case "sqlite":
		store, err := offline.OpenSQLiteStore(storeCfg.Path, storeCfg.Key)
		if err != nil {
			a.log.Warn().Err(err).Str("path", storeCfg.Path).Msg("Pending queue store unavailable")
			return offline.Unavailable{Reason: err}
		}
		a.closers = append(a.closers, store.Close)
		return store
	default:
		a.log.Warn().Str("driver", storeCfg.Driver).Msg("Unknown pending queue driver")
		return offline.Unavailable{Reason: fmt.Errorf("unknown driver %q", storeCfg.Driver)}
	}
}

func (a *kioskApp) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close resource")
		}
	}
}

// withApp wraps a command body with setup and teardown.
func (a *kioskApp) withApp(run func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(); err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args)
	}
}

// waitForFlushes gives background flushes up to the configured time to finish.
func (a *kioskApp) waitForFlushes() {
	if !a.session.Wait(a.cfg.Kiosk.FlushWait) {
		a.log.Warn().Msg("Background flush still running, records stay queued")
	}
}

func (a *kioskApp) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the interactive feedback form",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a.session.Mount(ctx)
			go a.session.Watch(ctx)

			prompter := kiosk.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			defer a.waitForFlushes()

			for ctx.Err() == nil {
				form := a.session.NewForm()

				for {
					rec, err := prompter.Collect()
					if errors.Is(err, io.EOF) {
						return nil
					}
					if err != nil {
						return err
					}

					outcome := form.Submit(ctx, rec)
					prompter.Show(outcome)
					if outcome.State != kiosk.StateIdle {
						break
					}
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		}),
	}
}

func (a *kioskApp) submitCommand() *cobra.Command {
	var (
		ratings  model.Submission
		comments string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit one feedback record",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.session.Mount(ctx)

			form := a.session.NewForm()
			rec := model.NewSubmission(ratings.Food, ratings.Stay, ratings.Conference, ratings.Campus, ratings.Activities, comments)
			outcome := form.Submit(ctx, rec)

			kiosk.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Show(outcome)
			a.waitForFlushes()

			switch outcome.State {
			case kiosk.StateIdle:
				return errors.New(outcome.Notice)
			case kiosk.StateError:
				return outcome.Err
			}
			if outcome.Queued {
				fmt.Fprintf(cmd.OutOrStdout(), "Record %d: %s\n", rec.ID, a.manager.Status(rec.ID))
			}
			return nil
		}),
	}

	flags := cmd.Flags()
	flags.IntVar(&ratings.Conference, "conference", 0, "BIPARD Conference rating (1-5)")
	flags.IntVar(&ratings.Stay, "stay", 0, "Accommodation rating (1-5)")
	flags.IntVar(&ratings.Food, "food", 0, "Dining & Refreshments rating (1-5)")
	flags.IntVar(&ratings.Campus, "campus", 0, "Campus Environment rating (1-5)")
	flags.IntVar(&ratings.Activities, "activities", 0, "Activities rating (0-5, 0 for not rated)")
	flags.StringVar(&comments, "comments", "", "Additional remarks")
	return cmd
}

func (a *kioskApp) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send every pending submission now",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			report, err := a.session.Mount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d acknowledged=%d failed=%d remaining=%d\n",
				report.Attempted, report.Acknowledged, report.Failed, report.Remaining)
			return nil
		}),
	}
}

func (a *kioskApp) pendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List submissions waiting to be sent",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			pending, err := a.manager.Pending(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d pending\n", len(pending))
			for _, rec := range pending {
				fmt.Fprintf(out, "%d\t%s\tconference=%d stay=%d food=%d campus=%d activities=%d\n",
					rec.ID, time.Unix(0, rec.ID).Format(time.DateTime),
					rec.Conference, rec.Stay, rec.Food, rec.Campus, rec.Activities)
			}
			return nil
		}),
	}
}

func (a *kioskApp) clearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every pending submission without sending it",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to drop pending submissions without --yes")
			}
			dropped, err := a.manager.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %d pending submissions\n", dropped)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping unsent submissions")
	return cmd
}

func (a *kioskApp) reportCommand() *cobra.Command {
	var pin string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the feedback dashboard summary",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.client.Login(ctx, pin); err != nil {
				return err
			}

			metrics, err := a.client.Metrics(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total responses: %d\n\nAverage scores\n", metrics.TotalResponses)
			for _, avg := range metrics.Averages {
				fmt.Fprintf(out, "  %-12s %.1f (%d answers)\n", avg.Name, avg.Score, avg.Answers)
			}
			fmt.Fprintln(out, "\nRatings")
			for _, s := range metrics.Sentiment {
				fmt.Fprintf(out, "  %-18s %d\n", s.Name, s.Value)
			}
			fmt.Fprintln(out, "\nRecent comments")
			for _, c := range metrics.RecentComments {
				fmt.Fprintf(out, "  [%s] %s\n", c.SubmittedAt.Local().Format(time.DateTime), c.Comments)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&pin, "pin", "", "dashboard PIN")
	cmd.MarkFlagRequired("pin")
	return cmd
}

func (a *kioskApp) exportCommand() *cobra.Command {
	var (
		pin    string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the feedback spreadsheet",
		RunE: a.withApp(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.client.Login(ctx, pin); err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.Export.FileName
			}

			file, err := os.Create(output)
			if err != nil {
				return err
			}
			defer file.Close()

			n, err := a.client.Export(ctx, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, n)
			return nil
		}),
	}
	cmd.Flags().StringVar(&pin, "pin", "", "dashboard PIN")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default export.file_name)")
	cmd.MarkFlagRequired("pin")
	return cmd
}

func hashPinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin PIN",
		Short: "Print the bcrypt hash to use as admin.pin_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPin(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

