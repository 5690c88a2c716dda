// Command breakdown prints the salary breakdown of a stored profile, or of the default rates.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/Simplici0/crewpay/internal/backend"
	"github.com/Simplici0/crewpay/internal/config"
	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/profile"
	"github.com/Simplici0/crewpay/internal/report"
	"github.com/Simplici0/crewpay/internal/salary"
)

// readPassphrase prompts on the controlling terminal without echo.
var readPassphrase = func(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("profiles file is encrypted; set PROFILES_PASSPHRASE or run from a terminal")
	}
	fmt.Fprint(prompt, "Profiles passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(pass), nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("breakdown", flag.ContinueOnError)
	flags.SetOutput(stderr)
	profileID := flags.String("profile", "", "Profile id to print; lists profiles when empty")
	defaults := flags.Bool("defaults", false, "Print the breakdown of the default rates without opening a store")
	asJSON := flags.Bool("json", false, "Print JSON instead of text")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	logger.SetConsole(stderr)
	logger.SetLevel("warn")

	if *defaults {
		return printBreakdown(stdout, stderr, "Default rates", salary.DefaultRateConfig(), *asJSON)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load configuration: %v\n", err)
		return 1
	}
	if err := unlock(&cfg, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "open profile store: %v\n", err)
		return 1
	}
	defer b.Close()

	svc := profile.NewService(b.Store)
	if *profileID == "" {
		return list(ctx, stdout, svc)
	}

	p, err := svc.Load(ctx, *profileID)
	if errors.Is(err, profile.ErrNotFound) {
		fmt.Fprintf(stderr, "profile %q not found\n", *profileID)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "load profile: %v\n", err)
		return 1
	}
	if p.Recovered {
		fmt.Fprintln(stderr, "warning: stored profile could not be read, showing default values")
	}
	return printBreakdown(stdout, stderr, p.Name, p.Config, *asJSON)
}

// unlock asks for the passphrase when the configured profiles file is encrypted and none is set.
func unlock(cfg *config.Config, prompt io.Writer) error {
	if cfg.StoreDriver != config.DriverFile || cfg.ProfilesPassphrase != "" {
		return nil
	}

	fs, err := profile.NewFileStore(cfg.ProfilesFile, "")
	if err != nil {
		return err
	}
	encrypted, err := fs.IsEncrypted()
	if err != nil || !encrypted {
		return err
	}

	pass, err := readPassphrase(prompt)
	if err != nil {
		return err
	}
	cfg.ProfilesPassphrase = pass
	return nil
}

func list(ctx context.Context, stdout io.Writer, svc *profile.Service) int {
	profiles := svc.List(ctx)
	if len(profiles) == 0 {
		fmt.Fprintln(stdout, "No profiles stored.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUPDATED")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
	return 0
}

func printBreakdown(stdout, stderr io.Writer, title string, cfg salary.RateConfig, asJSON bool) int {
	res := salary.Calculate(cfg)

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.NewView(res)); err != nil {
			fmt.Fprintf(stderr, "write breakdown: %v\n", err)
			return 1
		}
		return 0
	}

	if err := report.WriteText(stdout, title, res); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
