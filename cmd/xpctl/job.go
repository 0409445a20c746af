package main

import (
	"fmt"

	"algomancy.gg/deckhub/internal/scheduler"
	"github.com/spf13/cobra"
)

// jobOpener builds a scheduler with every background job registered. The
// returned func releases whatever the jobs hold open.
type jobOpener func(cmd *cobra.Command) (*scheduler.Scheduler, func(), error)

func openJobs(cmd *cobra.Command) (*scheduler.Scheduler, func(), error) {
	e, err := openEnv(true)
	if err != nil {
		return nil, nil, err
	}

	s := scheduler.NewScheduler(e.log)
	job := scheduler.NewXPReconcileJob(e.achievementService(), e.cfg.XPReconcileCron, e.cfg.XPReconcileConcurrency, e.log)
	if err := s.Register(job); err != nil {
		e.close(cmd)
		return nil, nil, err
	}
	return s, func() { e.close(cmd) }, nil
}

func newJobCmd(open jobOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and run the server's background jobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, name := range s.JobNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "run <name>",
		Short:   "Run a job once, now",
		Example: "  xpctl job run xp-reconcile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := s.RunJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	})

	return cmd
}
