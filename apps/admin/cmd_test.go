package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/partnerships/apps/api/echo"
	"github.com/trezcool/partnerships/core"
	"github.com/trezcool/partnerships/core/coverage"
	"github.com/trezcool/partnerships/core/partnership"
	"github.com/trezcool/partnerships/fs"
	emailsvc "github.com/trezcool/partnerships/services/email"
	"github.com/trezcool/partnerships/storage/database/inmem"
	"github.com/trezcool/partnerships/tests"
)

type testCLI struct {
	*commandLine
	repo    partnership.Repository
	mailSvc *emailsvc.ConsoleServiceMock
	buf     *bytes.Buffer
}

func setup(t *testing.T) *testCLI {
	conf := &core.Config{
		AppName:   "Partnerships",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
	logger := new(testutil.Logger)

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	repo := inmemdb.NewPartnershipRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	partnership.InitValidators(validate, translator)

	require.NoError(t, core.ParseEmailTemplates(appfs.FS, true))
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// plain output by default
	isTerminalFunc = func() bool { return false }

	buf := new(bytes.Buffer)
	return &testCLI{
		commandLine: &commandLine{
			conf:       conf,
			svc:        partnership.NewService(repo, new(testutil.Events), logger),
			validate:   validate,
			translator: translator,
			mailSvc:    mailSvc,
			out:        buf,
		},
		repo:    repo,
		mailSvc: mailSvc,
		buf:     buf,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func runCLITests(t *testing.T, cli *testCLI, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli.buf.Reset()
			err := cli.run(args)
			switch {
			case err == nil:
				if tt.wantErr != nil || tt.wantErrStr != "" {
					t.Errorf("cli.run() error = nil, want an error")
				}
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			default:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, cli.buf.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "help flag", args: []string{"coverage", "-h"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"coverage", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	runCLITests(t, cli, tests)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		if dir != "migrations" {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_partner_notes", "sql"}},
	}
	runCLITests(t, cli, tests)
}

func Test_commandLine_token(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"token"}, wantErr: errHelp},
		{name: "no role", args: []string{"token", "-username", "awe"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"token", "-username", "awe", "-role", "lol:"}, wantErrStr: `unknown role "lol:"`},
	}
	runCLITests(t, cli, tests)

	t.Run("issue token", func(t *testing.T) {
		cli.buf.Reset()
		args := []string{"admin", "token", "-username", "awe", "-email", "awe@test.cd", "-role", "adri:,gf:", "-role", "viewer:"}
		require.NoError(t, cli.run(args))

		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(strings.TrimSpace(cli.buf.String()), claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cli.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "awe", claims.Subject)
		assert.Equal(t, "awe@test.cd", claims.Email)
		assert.Equal(t, []string{echoapi.RoleADRI, echoapi.RoleGF, echoapi.RoleViewer}, claims.Roles)
	})
}

func Test_commandLine_coverage(t *testing.T) {
	cli := setup(t)

	partner := testutil.CreatePartner(t, cli.repo, "Université de Kinshasa", "UNIKIN", "CD", true)
	covered := testutil.CreatePartnership(t, cli.repo, partner.ID, "FSA", testutil.YearsBetween(2018, 2021))
	testutil.CreateAgreement(t, cli.repo, covered.ID, 2018, 2019, partnership.StatusValidated)
	testutil.CreateAgreement(t, cli.repo, covered.ID, 2020, 2021, partnership.StatusValidated)
	gap := testutil.CreatePartnership(t, cli.repo, partner.ID, "EPL", testutil.YearsBetween(2018, 2021))
	testutil.CreateAgreement(t, cli.repo, gap.ID, 2018, 2019, partnership.StatusValidated)
	testutil.CreateAgreement(t, cli.repo, gap.ID, 2020, 2021, partnership.StatusWaiting)

	tests := []cliTest{
		{name: "no id", args: []string{"coverage"}, wantErr: errHelp},
		{name: "not found", args: []string{"coverage", "-id", "lol"}, wantErrStr: partnership.ErrPartnershipNotFound.Error()},
	}
	runCLITests(t, cli, tests)

	t.Run("json output", func(t *testing.T) {
		cli.buf.Reset()
		require.NoError(t, cli.run([]string{"admin", "coverage", "-id", gap.ID}))

		var rep partnership.Coverage
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &rep))
		assert.Equal(t, gap.ID, rep.PartnershipID)
		assert.Equal(t, &coverage.YearSpan{Min: 2018, Max: 2021}, rep.Span)
		assert.Equal(t, []int{2020, 2021}, rep.UncoveredYears)
		assert.True(t, rep.MissingValidYears)
	})

	t.Run("table output", func(t *testing.T) {
		isTerminalFunc = func() bool { return true }
		defer func() { isTerminalFunc = func() bool { return false } }()

		cli.buf.Reset()
		require.NoError(t, cli.run([]string{"admin", "coverage", "-id", covered.ID}))
		out := cli.buf.String()
		assert.Contains(t, out, "PARTNERSHIP")
		assert.Contains(t, out, covered.ID)
		assert.Contains(t, out, "2018-2021")
		assert.Contains(t, out, "false")
	})

	t.Run("gaps", func(t *testing.T) {
		cli.buf.Reset()
		require.NoError(t, cli.run([]string{"admin", "gaps"}))

		var reps []partnership.Coverage
		require.NoError(t, json.Unmarshal(cli.buf.Bytes(), &reps))
		require.Len(t, reps, 1)
		assert.Equal(t, gap.ID, reps[0].PartnershipID)
	})
}

func Test_commandLine_notifyGaps(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no recipient", args: []string{"notifygaps"}, wantErr: errHelp},
		{name: "invalid recipient", args: []string{"notifygaps", "-to", "lol"}, wantErrStr: `parsing recipient "lol"`},
		{name: "no gaps", args: []string{"notifygaps", "-to", "adri@test.cd"}, wantOut: "nothing to send"},
	}
	runCLITests(t, cli, tests)
	assert.Empty(t, cli.mailSvc.SentMessages())

	partner := testutil.CreatePartner(t, cli.repo, "Université de Lubumbashi", "UNILU", "CD", true)
	gap := testutil.CreatePartnership(t, cli.repo, partner.ID, "FSA", testutil.YearsBetween(2019, 2021))
	testutil.CreateAgreement(t, cli.repo, gap.ID, 2019, 2019, partnership.StatusValidated)

	cli.buf.Reset()
	require.NoError(t, cli.run([]string{"admin", "notifygaps", "-to", "adri@test.cd, gf@test.cd"}))
	assert.Contains(t, cli.buf.String(), "sent to 2 recipient(s)")

	sent := cli.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	require.Len(t, msg.To, 2)
	assert.Equal(t, "adri@test.cd", msg.To[0].Address)
	assert.Equal(t, "gf@test.cd", msg.To[1].Address)
	assert.Equal(t, "1 partnership(s) missing valid years", msg.Subject)
	assert.Contains(t, msg.TextContent, gap.ID)
	assert.Contains(t, msg.TextContent, "missing 2020, 2021")
}

const fixturesYAML = `
partners:
  - name: Université de Kinshasa
    code: UNIKIN
    type: university
    country: cd
    partnerships:
      - entity: FSA
        type: mobility
        years: [2019, 2020, 2021]
        agreements:
          - {start_year: 2019, end_year: 2020, status: validated}
          - {start_year: 2021, end_year: 2021}
      - entity: EPL
        type: course
  - name: Katholieke Universiteit Leuven
    type: university
    country: BE
`

func Test_commandLine_loadData(t *testing.T) {
	cli := setup(t)

	dir := t.TempDir()
	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	valid := writeFile("valid.yml", fixturesYAML)
	malformed := writeFile("malformed.yml", "partners: {")
	invalid := writeFile("invalid.yml", "partners:\n  - name: Nowhere\n    type: lol\n    country: CD\n")

	tests := []cliTest{
		{name: "no file", args: []string{"loaddata"}, wantErr: errHelp},
		{name: "missing file", args: []string{"loaddata", "-file", filepath.Join(dir, "lol.yml")}, wantErrStr: "reading fixtures"},
		{name: "malformed file", args: []string{"loaddata", "-file", malformed}, wantErrStr: "decoding fixtures"},
		{name: "invalid partner", args: []string{"loaddata", "-file", invalid}, wantErrStr: "invalid partners[0]"},
		{name: "load", args: []string{"loaddata", "-file", valid}, wantOut: "Loaded 2 partner(s), 2 partnership(s), 2 agreement(s)."},
	}
	runCLITests(t, cli, tests)

	ctx := context.Background()
	partners, err := cli.repo.QueryPartners(ctx, partnership.PartnerFilter{Search: "UNIKIN"})
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "CD", partners[0].Country)

	partnerships, err := cli.repo.QueryPartnerships(ctx, partnership.PartnershipFilter{PartnerID: partners[0].ID, Entity: "FSA"})
	require.NoError(t, err)
	require.Len(t, partnerships, 1)
	assert.Equal(t, []int{2019, 2020, 2021}, partnerships[0].Years)

	rep, err := cli.svc.Coverage(ctx, partnerships[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []int{2021}, rep.UncoveredYears)
	assert.True(t, rep.MissingValidYears)
}
