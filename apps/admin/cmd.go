package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/partnership"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	svc        *partnership.Service
	validate   *validator.Validate
	translator ut.Translator
	mailSvc    core.EmailService
	out        io.Writer
}

// listFlag collects repeated or comma-separated flag values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(val string) error {
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l = append(*l, v)
		}
	}
	return nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                  - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  token -username USERNAME -role ROLE ... - issue an API token")
	fmt.Fprintln(cli.out, "  coverage -id PARTNERSHIP_ID             - check a partnership's validated years")
	fmt.Fprintln(cli.out, "  gaps                                    - list partnerships missing valid years")
	fmt.Fprintln(cli.out, "  notifygaps -to EMAIL[,EMAIL]            - email the coverage gaps report")
	fmt.Fprintln(cli.out, "  loaddata -file FILE                     - load partners from a YAML fixtures file")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args, mapping -h to errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "token":
		tokenCmd := cli.newFlagSet("token")
		username := tokenCmd.String("username", "", "The token subject.")
		email := tokenCmd.String("email", "", "The subject's email.")
		var roles listFlag
		tokenCmd.Var(&roles, "role", "A role granted by the token (repeatable).")
		if err := parse(tokenCmd, args[2:]); err != nil {
			return err
		}
		if *username == "" || len(roles) == 0 {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*username, *email, roles)

	case "coverage":
		coverageCmd := cli.newFlagSet("coverage")
		id := coverageCmd.String("id", "", "The partnership ID.")
		if err := parse(coverageCmd, args[2:]); err != nil {
			return err
		}
		if *id == "" {
			coverageCmd.Usage()
			return errHelp
		}
		return cli.coverage(*id)

	case "gaps":
		return cli.gaps()

	case "notifygaps":
		notifyCmd := cli.newFlagSet("notifygaps")
		var to listFlag
		notifyCmd.Var(&to, "to", "Recipient email address(es), comma-separated or repeated.")
		if err := parse(notifyCmd, args[2:]); err != nil {
			return err
		}
		if len(to) == 0 {
			notifyCmd.Usage()
			return errHelp
		}
		return cli.notifyGaps(to)

	case "loaddata":
		loadCmd := cli.newFlagSet("loaddata")
		file := loadCmd.String("file", "", "Path to the YAML fixtures file.")
		if err := parse(loadCmd, args[2:]); err != nil {
			return err
		}
		if *file == "" {
			loadCmd.Usage()
			return errHelp
		}
		return cli.loadData(*file)

	default:
		cli.printUsage()
		return errHelp
	}
}
