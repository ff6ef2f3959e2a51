// Command lapctl lists and deletes runners through the HTTP API.
//
//	lapctl -server http://localhost:8080 -token $LAPCTL_TOKEN list
//	lapctl delete 17
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/text/language"

	"github.com/TooLazyToCreate/lap-counter/internal/client"
	"github.com/TooLazyToCreate/lap-counter/internal/i18n"
)

type defaults struct {
	Server  string        `env:"LAPCTL_SERVER" envDefault:"http://localhost:8080"`
	Token   string        `env:"LAPCTL_TOKEN"`
	Lang    string        `env:"LAPCTL_LANG" envDefault:"de"`
	Timeout time.Duration `env:"LAPCTL_TIMEOUT" envDefault:"10s"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cfg defaults
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	flags := flag.NewFlagSet("lapctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cfg.Server, "server", cfg.Server, "Base URL of the lap counter")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Session token")
	flags.StringVar(&cfg.Lang, "lang", cfg.Lang, "Message language (de or en)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Timeout of a single request")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	localizer := i18n.New(cfg.Lang)
	tag := localizer.Default()
	if parsed, err := language.Parse(cfg.Lang); err == nil {
		tag = localizer.Match(parsed)
	}
	printer := localizer.Printer(tag)
	list := client.NewRunnerList(cfg.Server, cfg.Token, printer).
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout})

	if toast, err := list.Refresh(ctx); err != nil {
		fmt.Fprintln(stderr, toast.Message+":", err)
		return 1
	}

	switch flags.Arg(0) {
	case "", "list":
		writeTable(stdout, list, localizer.Messages(tag))
		return 0
	case "delete":
		number, err := strconv.ParseInt(flags.Arg(1), 10, 64)
		if err != nil || number <= 0 {
			fmt.Fprintln(stderr, printer.Sprintf(i18n.RunnerNumberInvalid))
			return 2
		}
		toast := list.Delete(ctx, number)
		if toast.Failed() {
			fmt.Fprintln(stderr, toast.Message)
			return 1
		}
		fmt.Fprintln(stdout, toast.Message)
		writeTable(stdout, list, localizer.Messages(tag))
		return 0
	}
	fmt.Fprintf(stderr, "unknown command %q\n", flags.Arg(0))
	return 2
}

func writeTable(out io.Writer, list *client.RunnerList, t map[i18n.Key]string) {
	if list.Empty() {
		fmt.Fprintln(out, t[i18n.EmptyRunners])
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t[i18n.ColumnNumber], t[i18n.ColumnFirstName],
		t[i18n.ColumnLastName], t[i18n.ColumnGrade], t[i18n.ColumnHouse], t[i18n.ColumnLaps])
	for _, r := range list.Rows() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", r.Number, r.FirstName, r.LastName, r.Grade, r.House, r.Count.Laps)
	}
	tw.Flush()
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
