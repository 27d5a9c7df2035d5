/*
main.go - Command-line retirement calculator

PURPOSE:
  Computes one retirement date from the command line, without a server or
  database. Uses the same engine, profiles and output shape as the API.

COMMAND-LINE FLAGS:
  -dob               Date of birth (YYYY-MM-DD, required)
  -doa               Date of first appointment (YYYY-MM-DD, required)
  -research-fellow   Apply the Research Fellow override
  -profile           Jurisdiction profile (default: NG)
  -profiles          Optional YAML file of extra profiles
  -retirement-age    Override the profile's mandatory retirement age
  -service-cap       Override the profile's service cap
  -rf-age            Override the profile's Research Fellow age
  -cutoff            Override the profile's cutoff date
  -strict            Reject inputs and configs the calculator form would reject
  -json              Print the API's JSON instead of text
  -list-profiles     Print the available profiles and exit

EXAMPLES:
  retcalc -dob=1970-01-01 -doa=2000-01-01
  retcalc -dob=1965-05-20 -doa=1990-08-01 -research-fellow -json
  retcalc -dob=1970-01-01 -doa=2000-01-01 -profile=GB -service-cap=30

EXIT CODES:
  0 success, 1 computation refused (bad input or config), 2 usage error
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warp/retirement-engine/api"
	"github.com/warp/retirement-engine/calendar"
	"github.com/warp/retirement-engine/factory"
	"github.com/warp/retirement-engine/profile"
	"github.com/warp/retirement-engine/retirement"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, retirement.SystemClock))
}

type options struct {
	dob, doa       string
	researchFellow bool
	profileID      string
	profilesFile   string
	retirementAge  int
	serviceCap     int
	rfAge          int
	cutoff         string
	strict         bool
	asJSON         bool
	listProfiles   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("retcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.dob, "dob", "", "Date of birth (YYYY-MM-DD)")
	fs.StringVar(&o.doa, "doa", "", "Date of first appointment (YYYY-MM-DD)")
	fs.BoolVar(&o.researchFellow, "research-fellow", false, "Apply the Research Fellow override")
	fs.StringVar(&o.profileID, "profile", profile.DefaultProfileID, "Jurisdiction profile")
	fs.StringVar(&o.profilesFile, "profiles", "", "YAML file of extra jurisdiction profiles")
	fs.IntVar(&o.retirementAge, "retirement-age", 0, "Override the mandatory retirement age")
	fs.IntVar(&o.serviceCap, "service-cap", 0, "Override the service cap in years")
	fs.IntVar(&o.rfAge, "rf-age", 0, "Override the Research Fellow retirement age")
	fs.StringVar(&o.cutoff, "cutoff", "", "Override the cutoff date (YYYY-MM-DD)")
	fs.BoolVar(&o.strict, "strict", false, "Validate inputs and config before computing")
	fs.BoolVar(&o.asJSON, "json", false, "Print JSON")
	fs.BoolVar(&o.listProfiles, "list-profiles", false, "List profiles and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer, clock retirement.Clock) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	registry := profile.NewRegistry()
	if o.profilesFile != "" {
		extra, err := factory.LoadProfilesFile(o.profilesFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		for _, p := range extra {
			if err := registry.Register(p); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 2
			}
		}
	}

	if o.listProfiles {
		printProfiles(stdout, registry.List())
		return 0
	}

	p, err := registry.Get(o.profileID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	cfg, err := applyOverrides(p.Config, o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	in, err := parseInputs(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if o.strict {
		today := calendar.DateOf(clock.Now().In(time.Local))
		if err := retirement.Validate(in, cfg, today); err != nil {
			printValidation(stderr, err)
			return 1
		}
	}

	res := retirement.NewEngine(retirement.WithClock(clock)).ComputeInputs(in, cfg)
	profileID := p.ID
	if !p.Matches(cfg) {
		profileID = profile.IDCustom
	}

	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.NewRetirementDTO(res, profileID)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	printResult(stdout, res, profileID)
	return 0
}

// applyOverrides replaces profile fields given on the command line. Zero
// means "not given".
func applyOverrides(cfg retirement.Config, o options) (retirement.Config, error) {
	if o.retirementAge != 0 {
		cfg.RetirementAge = o.retirementAge
	}
	if o.serviceCap != 0 {
		cfg.ServiceCap = o.serviceCap
	}
	if o.rfAge != 0 {
		cfg.ResearchFellowAge = o.rfAge
	}
	if o.cutoff != "" {
		d, err := calendar.ParseDate(o.cutoff)
		if err != nil {
			return retirement.Config{}, fmt.Errorf("-cutoff: %w", err)
		}
		cfg.CutoffDate = d
	}
	return cfg, nil
}

func parseInputs(o options) (retirement.Inputs, error) {
	if o.dob == "" || o.doa == "" {
		return retirement.Inputs{}, errors.New("-dob and -doa are required")
	}
	dob, err := calendar.ParseDate(o.dob)
	if err != nil {
		return retirement.Inputs{}, fmt.Errorf("-dob: %w", err)
	}
	doa, err := calendar.ParseDate(o.doa)
	if err != nil {
		return retirement.Inputs{}, fmt.Errorf("-doa: %w", err)
	}
	return retirement.Inputs{DOB: dob, DOA: doa, IsResearchFellow: o.researchFellow}, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func printResult(w io.Writer, res retirement.Result, profileID string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Retirement date:\t%s\n", res.FormattedRetirementDate())
	fmt.Fprintf(tw, "Rule:\t%s\n", res.Label)
	if d, ok := res.AgeLimitDate(); ok {
		fmt.Fprintf(tw, "Age limit:\t%s\n", d.Institutional())
	}
	if d, ok := res.ServiceLimitDate(); ok {
		fmt.Fprintf(tw, "Service limit:\t%s\n", d.Institutional())
	}
	fmt.Fprintf(tw, "Total service:\t%s (%d days)\n", res.TotalService.Formatted, res.TotalService.TotalDays)
	if res.ServiceToCutoff != nil {
		fmt.Fprintf(tw, "Service to cutoff:\t%s\n", res.ServiceToCutoff.Formatted)
	} else {
		fmt.Fprintf(tw, "Service to cutoff:\tnot applicable\n")
	}
	if usage, ok := res.ServiceCapUsage(); ok {
		fmt.Fprintf(tw, "Service cap used:\t%s%%\n", usage.Shift(2).StringFixed(2))
	}
	fmt.Fprintf(tw, "Profile:\t%s\n", profileID)
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n", res.Description)
}

func printProfiles(w io.Writer, profiles []profile.Profile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tCAP\tRF AGE\tCUTOFF")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			p.ID, p.Name, p.Config.RetirementAge, p.Config.ServiceCap, p.Config.ResearchFellowAge, p.Config.CutoffDate)
	}
	tw.Flush()
}

func printValidation(w io.Writer, err error) {
	var verrs retirement.ValidationErrors
	if !errors.As(err, &verrs) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Validation failed:")
	for _, e := range verrs {
		fmt.Fprintf(w, "  %s: %s\n", e.Field, e.Message)
	}
}
