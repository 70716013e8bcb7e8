package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aulanet-io/ad-console/internal/client"
	"github.com/aulanet-io/ad-console/internal/logging"
	"github.com/aulanet-io/ad-console/internal/password"
	"github.com/aulanet-io/ad-console/internal/poll"
)

var (
	flagGateway        string
	flagImportPassword string
	flagImportDryRun   bool
	flagImportWatch    bool
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk-create users from a CSV file",
	Long: `Validate a CSV file and create the users it describes through a
running gateway.

Each row has five fields: username, given name, surname, OU, group.
All created users share the password given with --password. Validation
covers field arity, empty fields, identifier safety, the password
policy, and that every OU and group already exists in the directory.
Any validation error blocks the whole import.

With --dry-run the file is validated and nothing is created. With
--watch the command polls the batch job and prints progress until it
finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagGateway, "gateway", "http://localhost:8420", "Gateway base URL (env: ADC_GATEWAY_URL)")
	importCmd.Flags().StringVar(&flagImportPassword, "password", "", "Shared password for all created users (required unless --dry-run)")
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Validate only, create nothing")
	importCmd.Flags().BoolVar(&flagImportWatch, "watch", false, "Poll the batch job and print progress")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	logging.Setup(resolveLogLevel(), resolveLogFormat())

	if !flagImportDryRun {
		if flagImportPassword == "" {
			return fmt.Errorf("--password is required (all imported users share it)")
		}
		if err := password.Validate(flagImportPassword); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	c := client.New(resolveGateway())
	if err := c.Health(); err != nil {
		return fmt.Errorf("gateway %s not reachable: %w", resolveGateway(), err)
	}

	acc, err := c.Import(client.ImportRequest{
		CSV:      string(data),
		Password: flagImportPassword,
		DryRun:   flagImportDryRun,
	})
	var verr *client.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(os.Stderr, "Validation failed:")
		for _, e := range verr.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
		return fmt.Errorf("import rejected")
	}
	if err != nil {
		return err
	}

	if flagImportDryRun {
		fmt.Printf("CSV valid: %d rows\n", acc.Total)
		return nil
	}

	fmt.Printf("Import accepted: job %s, %d users\n", acc.JobID, acc.Total)

	if !flagImportWatch {
		fmt.Printf("Track progress with: GET %s/api/batch/%s\n", resolveGateway(), acc.JobID)
		return nil
	}

	return watchJob(cmd.Context(), c, acc.JobID)
}

// watchJob polls the job until it completes and prints a progress line
// per poll. Poll errors back off rather than aborting the watch.
func watchJob(ctx context.Context, c *client.Client, jobID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var final client.JobSnapshot
	poll.New(time.Second).Run(ctx, func(ctx context.Context) error {
		snap, err := c.JobStatus(jobID)
		if err != nil {
			return err
		}
		fmt.Printf("  %d/%d (%d%%)\n", snap.Completed, snap.Total, snap.Percent)
		if snap.Done {
			final = snap
			cancel()
		}
		return nil
	})

	if !final.Done {
		return fmt.Errorf("watch interrupted")
	}

	if final.Result != nil {
		fmt.Printf("Done: %d created, %d failed\n", len(final.Result.Succeeded), len(final.Result.Errors))
		for _, e := range final.Result.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Identifier, e.Message)
		}
		if len(final.Result.Errors) > 0 {
			return fmt.Errorf("%d users failed", len(final.Result.Errors))
		}
	}
	return nil
}

// resolveGateway returns the gateway URL from flag or environment.
func resolveGateway() string {
	if flagGateway != "http://localhost:8420" && flagGateway != "" {
		return flagGateway
	}
	if v := os.Getenv("ADC_GATEWAY_URL"); v != "" {
		return v
	}
	return flagGateway
}
